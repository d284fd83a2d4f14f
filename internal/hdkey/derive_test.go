package hdkey

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
)

func TestDeriveEmptyPathIsIdentity(t *testing.T) {
	root := curve.ScalarBaseMult(big.NewInt(12345))
	res, err := Derive(root, nil)
	require.NoError(t, err)
	assert.True(t, res.ChildKey.Equals(root))
	assert.Equal(t, 0, res.Tweak.Sign())
}

func TestDeriveTweakMatchesChildKey(t *testing.T) {
	root := curve.ScalarBaseMult(big.NewInt(777))
	res, err := Derive(root, []uint32{0, 1, 2})
	require.NoError(t, err)

	expected := root.Add(curve.ScalarBaseMult(res.Tweak))
	assert.True(t, expected.Equals(res.ChildKey))
}

func TestDeriveIsDeterministic(t *testing.T) {
	root := curve.ScalarBaseMult(big.NewInt(55))
	a, err := Derive(root, []uint32{3, 4})
	require.NoError(t, err)
	b, err := Derive(root, []uint32{3, 4})
	require.NoError(t, err)

	assert.True(t, a.ChildKey.Equals(b.ChildKey))
	assert.Equal(t, 0, a.Tweak.Cmp(b.Tweak))
}

func TestDeriveDifferentPathsDiverge(t *testing.T) {
	root := curve.ScalarBaseMult(big.NewInt(55))
	a, err := Derive(root, []uint32{0})
	require.NoError(t, err)
	b, err := Derive(root, []uint32{1})
	require.NoError(t, err)

	assert.False(t, a.ChildKey.Equals(b.ChildKey))
}

func TestParsePath(t *testing.T) {
	got, err := ParsePath("0/1/2")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, got)

	empty, err := ParsePath("")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParsePath("0//1")
	assert.Error(t, err)
}

func TestTweakCommitmentsMatchesTweakedSecret(t *testing.T) {
	secret := bignum.RandomBelow(curve.N())
	tweak := bignum.RandomBelow(curve.N())
	commits := []*curve.Point{curve.ScalarBaseMult(secret)}

	tweaked := TweakCommitments(commits, tweak)

	ringSum := new(big.Int).Add(secret, tweak)
	assert.True(t, curve.ScalarBaseMult(ringSum).Equals(tweaked[0]))
}
