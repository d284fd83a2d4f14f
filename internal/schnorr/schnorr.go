// Package schnorr implements the Schnorr discrete-log proof used to close
// out DKG (§4.5 round 5) and the two-statement "HEG" consistency proof used
// in signing's phase 5A/5C commitments (§4.6 rounds 5-8).
package schnorr

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
)

var ring = bignum.ModRing(curve.N())

// DLogProof proves knowledge of x such that X = x*G, non-interactively via
// Fiat-Shamir (session tag "gg18-dlog" plays the role of the upstream
// library's fixed challenge-binding string).
type DLogProof struct {
	E *big.Int
	S *big.Int
}

func ProveDLog(x *big.Int) *DLogProof {
	r := bignum.RandomBelow(curve.N())
	rG := curve.ScalarBaseMult(r)
	e := challenge(rG, "gg18-dlog")
	s := ring.Add(r, ring.Mul(e, x))
	return &DLogProof{E: e, S: s}
}

func (pf *DLogProof) Verify(x *curve.Point) bool {
	sG := curve.ScalarBaseMult(pf.S)
	negEX := x.ScalarMult(ring.Neg(pf.E))
	rG := sG.Add(negEX)
	return challenge(rG, "gg18-dlog").Cmp(pf.E) == 0
}

// HEGProof is a Chaum-Pedersen-style proof of knowledge of (x, r) such that
// A = x*G and B = x*H + r*G for a second base H, proving that the committed
// value behind A and the one blinded inside B are the same — this is what
// binds a phase-5 commitment's (V,A,B) triple to a consistent secret
// without revealing it (the "HEG"/homomorphic-ElGamal check of §4.6).
type HEGProof struct {
	E     *big.Int
	S1    *big.Int // response for x
	S2    *big.Int // response for r
}

func ProveHEG(x, r *big.Int, h *curve.Point) *HEGProof {
	k1 := bignum.RandomBelow(curve.N())
	k2 := bignum.RandomBelow(curve.N())
	t1 := curve.ScalarBaseMult(k1)
	t2 := h.ScalarMult(k1).Add(curve.ScalarBaseMult(k2))
	e := challenge2(t1, t2, "gg18-heg")
	return &HEGProof{
		E:  e,
		S1: ring.Add(k1, ring.Mul(e, x)),
		S2: ring.Add(k2, ring.Mul(e, r)),
	}
}

func (pf *HEGProof) Verify(a, b, h *curve.Point) bool {
	t1 := curve.ScalarBaseMult(pf.S1).Add(a.ScalarMult(ring.Neg(pf.E)))
	t2 := h.ScalarMult(pf.S1).Add(curve.ScalarBaseMult(pf.S2)).Add(b.ScalarMult(ring.Neg(pf.E)))
	return challenge2(t1, t2, "gg18-heg").Cmp(pf.E) == 0
}

func challenge(p *curve.Point, tag string) *big.Int {
	h := sha3.New256()
	h.Write(p.X().Bytes())
	h.Write(p.Y().Bytes())
	h.Write([]byte(tag))
	return new(big.Int).SetBytes(h.Sum(nil))
}

func challenge2(p, q *curve.Point, tag string) *big.Int {
	h := sha3.New256()
	h.Write(p.X().Bytes())
	h.Write(p.Y().Bytes())
	h.Write(q.X().Bytes())
	h.Write(q.Y().Bytes())
	h.Write([]byte(tag))
	return new(big.Int).SetBytes(h.Sum(nil))
}
