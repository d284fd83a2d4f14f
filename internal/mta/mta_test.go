package mta

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/paillier"
)

const testModulusBits = 256

func randBelow() *big.Int {
	return bignum.RandomBelow(curve.N())
}

func TestMtAProducesAdditiveShares(t *testing.T) {
	sk, err := paillier.GenerateKeyPair(testModulusBits)
	require.NoError(t, err)

	aliceA := randBelow()
	bobB := randBelow()

	msgA, _, err := NewMessageA(&sk.PublicKey, aliceA)
	require.NoError(t, err)

	beta, msgB, err := BobStep(&sk.PublicKey, msgA, bobB)
	require.NoError(t, err)

	alpha, err := AliceEnd(sk, msgB)
	require.NoError(t, err)

	sum := ring.Add(alpha, beta)
	expected := ring.Mul(aliceA, bobB)
	assert.Equal(t, 0, sum.Cmp(expected))
}

func TestMtAWCVerifiesExpectedPoint(t *testing.T) {
	sk, err := paillier.GenerateKeyPair(testModulusBits)
	require.NoError(t, err)

	aliceA := randBelow()
	bobB := randBelow()
	expected := curve.ScalarBaseMult(bobB)

	msgA, _, err := NewMessageA(&sk.PublicKey, aliceA)
	require.NoError(t, err)

	beta, msgB, err := BobStepWC(&sk.PublicKey, msgA, bobB)
	require.NoError(t, err)

	alpha, err := AliceEndWC(sk, msgB, expected)
	require.NoError(t, err)

	sum := ring.Add(alpha, beta)
	assert.Equal(t, 0, sum.Cmp(ring.Mul(aliceA, bobB)))
}

func TestMtAWCRejectsWrongExpectedPoint(t *testing.T) {
	sk, err := paillier.GenerateKeyPair(testModulusBits)
	require.NoError(t, err)

	aliceA := randBelow()
	bobB := randBelow()
	wrong := curve.ScalarBaseMult(randBelow())

	msgA, _, err := NewMessageA(&sk.PublicKey, aliceA)
	require.NoError(t, err)

	_, msgB, err := BobStepWC(&sk.PublicKey, msgA, bobB)
	require.NoError(t, err)

	_, err = AliceEndWC(sk, msgB, wrong)
	assert.Error(t, err)
}
