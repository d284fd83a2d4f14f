package vss

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerius-tss/gg18-signer/internal/curve"
)

func ids(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		out[i] = big.NewInt(int64(i + 1))
	}
	return out
}

func TestCreateAndReconstruct(t *testing.T) {
	secret := big.NewInt(424242)
	commits, shares, err := Create(2, secret, ids(5))
	require.NoError(t, err)

	for _, s := range shares {
		assert.True(t, s.Verify(commits))
	}

	recovered, err := Reconstruct(shares[:3])
	require.NoError(t, err)
	assert.Equal(t, 0, secret.Cmp(recovered))
}

func TestReconstructInsufficientShares(t *testing.T) {
	secret := big.NewInt(7)
	_, shares, err := Create(2, secret, ids(5))
	require.NoError(t, err)

	_, err = Reconstruct(shares[:2])
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedShare(t *testing.T) {
	secret := big.NewInt(99)
	commits, shares, err := Create(1, secret, ids(3))
	require.NoError(t, err)

	tampered := &Share{Threshold: shares[0].Threshold, ID: shares[0].ID, Value: new(big.Int).Add(shares[0].Value, big.NewInt(1))}
	assert.False(t, tampered.Verify(commits))
}

func TestLagrangeCoefficientsSumToOne(t *testing.T) {
	subset := ids(3)
	sum := big.NewInt(0)
	for _, id := range subset {
		lambda := LagrangeCoefficient(id, subset)
		sum = ring.Add(sum, lambda)
	}
	// sum of Lagrange coefficients at x=0 for evaluating a degree<len(subset)
	// polynomial at 0 is 1 (the constant polynomial f(x)=1 case).
	assert.Equal(t, 0, sum.Cmp(big.NewInt(1)))
}

func TestEvaluateCommitmentMatchesShare(t *testing.T) {
	secret := big.NewInt(123456)
	commits, shares, err := Create(2, secret, ids(4))
	require.NoError(t, err)

	for _, s := range shares {
		expected := curve.ScalarBaseMult(s.Value)
		assert.True(t, expected.Equals(EvaluateCommitment(commits, s.ID)))
	}
}
