// Package commitment implements a SHA3-256 hiding/binding commitment over a
// vector of big integers, used by the DKG and signing engines' commit/
// decommit rounds (§4.5 round 1/2, §4.6 round 1/4/5/7).
package commitment

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
)

const blindingBits = 256

// Commitment is the public digest C published in the commit round.
type Commitment = *big.Int

// Opening is the blinded preimage: [r, secrets...].
type Opening []*big.Int

type CommitDecommit struct {
	C Commitment
	D Opening
}

// New commits to secrets with a fresh random blinding factor.
func New(secrets ...*big.Int) (*CommitDecommit, error) {
	r := bignum.MustRandomBits(blindingBits)
	parts := append([]*big.Int{r}, secrets...)
	digest, err := digest(parts)
	if err != nil {
		return nil, err
	}
	return &CommitDecommit{C: new(big.Int).SetBytes(digest), D: parts}, nil
}

// Verify checks that D opens to C.
func (cd *CommitDecommit) Verify() (bool, error) {
	digest, err := digest(cd.D)
	if err != nil {
		return false, err
	}
	return new(big.Int).SetBytes(digest).Cmp(cd.C) == 0, nil
}

// Decommit verifies and, on success, returns the secrets with the blinding
// factor stripped off.
func (cd *CommitDecommit) Decommit() (bool, []*big.Int, error) {
	ok, err := cd.Verify()
	if err != nil || !ok {
		return ok, nil, err
	}
	return true, cd.D[1:], nil
}

// digest hashes parts as a length-prefixed sequence so the mapping from
// component vector to digest is injective: two differently-split vectors
// whose raw bytes happen to concatenate identically must still hash
// differently, which a plain concatenation does not guarantee.
func digest(parts []*big.Int) ([]byte, error) {
	h := sha3.New256()
	var lenBuf [4]byte
	for _, v := range parts {
		if v == nil {
			return nil, errors.New("commitment: nil component")
		}
		b := v.Bytes()
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		if _, err := h.Write(lenBuf[:]); err != nil {
			return nil, errors.Wrap(err, "commitment: hash write failed")
		}
		if _, err := h.Write(b); err != nil {
			return nil, errors.Wrap(err, "commitment: hash write failed")
		}
	}
	return h.Sum(nil), nil
}

// FlattenPoints packs a list of (x,y) coordinate pairs for use as commitment
// input, e.g. an ephemeral point or a VSS commitment vector.
func FlattenPoints(coords [][2]*big.Int) ([]*big.Int, error) {
	flat := make([]*big.Int, 0, len(coords)*2)
	for _, c := range coords {
		if c[0] == nil || c[1] == nil {
			return nil, errors.New("commitment: nil coordinate")
		}
		flat = append(flat, c[0], c[1])
	}
	return flat, nil
}
