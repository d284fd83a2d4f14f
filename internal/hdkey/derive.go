// Package hdkey implements the non-hardened, BIP32-flavoured hierarchical
// derivation of §4.4: an additive tweak on the joint public key and secret
// share, computed from a path of small integers rather than a standard
// BIP32 byte-serialized index.
package hdkey

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

var ring = bignum.ModRing(curve.N())

// Result is the output of deriving along a path: the child public key and
// the accumulated additive tweak to apply to the secret share/shares.
type Result struct {
	ChildKey *curve.Point
	Tweak    *big.Int
}

// Derive walks path, applying one HMAC-SHA512 step per element as described
// in §4.4: seed the chain code from the generator, then for each path
// element split H = HMAC-SHA512(chainCode, compress(Y) || index) into
// f_L (top 256 bits) and f_R (bottom 256 bits), updating
// Y <- Y + f_L*G and chainCode <- chainCode * f_R (mod N), accumulating
// f_L into the total additive tweak.
func Derive(root *curve.Point, path []uint32) (*Result, error) {
	if len(path) == 0 {
		return &Result{ChildKey: root, Tweak: big.NewInt(0)}, nil
	}
	y := root
	// seed with the generator's own compressed encoding, per §4.4 step 1
	seed := new(big.Int).SetBytes(curve.Generator().Compressed())
	chainCode := new(big.Int).Mod(seed, curve.N())

	total := big.NewInt(0)
	for _, idx := range path {
		data := make([]byte, 4)
		binary.BigEndian.PutUint32(data, idx)

		mac := hmac.New(sha512.New, chainCode.Bytes())
		mac.Write(y.Compressed())
		mac.Write(data)
		h := mac.Sum(nil) // 64 bytes

		fL := new(big.Int).SetBytes(h[:32])
		fR := new(big.Int).SetBytes(h[32:])

		fLScalar := new(big.Int).Mod(fL, curve.N())
		if fLScalar.Sign() == 0 {
			return nil, errors.New("hdkey: derived tweak is zero, path is invalid at this index")
		}

		y = y.Add(curve.ScalarBaseMult(fLScalar))
		chainCode = ring.Mul(chainCode, fR)
		total = ring.Add(total, fLScalar)
	}
	return &Result{ChildKey: y, Tweak: total}, nil
}

// ParsePath parses a "/"-separated string of non-negative integers, e.g.
// "0/1/2", into the uint32 path Derive expects.
func ParsePath(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint32
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			if i == start {
				return nil, errors.Errorf("hdkey: empty path segment in %q", s)
			}
			v, err := parseUint(s[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			start = i + 1
		}
	}
	return out, nil
}

// TweakCommitments rewrites a party's Feldman commitment vector so that
// C_0 (the constant term) reflects the tweaked secret, keeping VSS
// verification consistent after an HD tweak is applied (§4.4: "the signing
// engine ... rewrites the first VSS commitment C_0 <- C_0 + f_L_total*G").
func TweakCommitments(commits vss.Commitments, tweak *big.Int) vss.Commitments {
	out := make(vss.Commitments, len(commits))
	copy(out, commits)
	out[0] = out[0].Add(curve.ScalarBaseMult(tweak))
	return out
}

func parseUint(s string) (uint32, error) {
	var v uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("hdkey: invalid path segment %q", s)
		}
		v = v*10 + uint64(c-'0')
		if v > 0xFFFFFFFF {
			return 0, errors.Errorf("hdkey: path segment %q overflows uint32", s)
		}
	}
	return uint32(v), nil
}
