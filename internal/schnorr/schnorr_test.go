package schnorr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
)

func TestDLogProofRoundTrip(t *testing.T) {
	x := bignum.RandomBelow(curve.N())
	X := curve.ScalarBaseMult(x)

	proof := ProveDLog(x)
	assert.True(t, proof.Verify(X))
}

func TestDLogProofRejectsWrongPoint(t *testing.T) {
	x := bignum.RandomBelow(curve.N())
	other := curve.ScalarBaseMult(bignum.RandomBelow(curve.N()))

	proof := ProveDLog(x)
	assert.False(t, proof.Verify(other))
}

func TestHEGProofRoundTrip(t *testing.T) {
	x := bignum.RandomBelow(curve.N())
	r := bignum.RandomBelow(curve.N())
	h := curve.ScalarBaseMult(bignum.RandomBelow(curve.N()))

	a := curve.ScalarBaseMult(x)
	b := h.ScalarMult(x).Add(curve.ScalarBaseMult(r))

	proof := ProveHEG(x, r, h)
	assert.True(t, proof.Verify(a, b, h))
}

func TestHEGProofRejectsInconsistentB(t *testing.T) {
	x := bignum.RandomBelow(curve.N())
	r := bignum.RandomBelow(curve.N())
	h := curve.ScalarBaseMult(bignum.RandomBelow(curve.N()))

	a := curve.ScalarBaseMult(x)
	wrongB := curve.ScalarBaseMult(bignum.RandomBelow(curve.N()))

	proof := ProveHEG(x, r, h)
	assert.False(t, proof.Verify(a, wrongB, h))
}

// TestHEGProofDLEQ exercises the discrete-log-equality use case signing's
// phase-5D relies on: r=0 makes B = x*h exactly, a plain DLEQ of x across
// bases G and h.
func TestHEGProofDLEQ(t *testing.T) {
	x := bignum.RandomBelow(curve.N())
	h := curve.ScalarBaseMult(bignum.RandomBelow(curve.N()))

	a := curve.ScalarBaseMult(x)
	b := h.ScalarMult(x)

	proof := ProveHEG(x, bignum.Zero, h)
	assert.True(t, proof.Verify(a, b, h))
}
