package commitment

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitDecommitRoundTrip(t *testing.T) {
	secrets := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	cd, err := New(secrets...)
	require.NoError(t, err)

	ok, opened, err := cd.Decommit()
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, opened, len(secrets))
	for i, s := range secrets {
		assert.Equal(t, 0, s.Cmp(opened[i]))
	}
}

func TestDecommitRejectsTamperedOpening(t *testing.T) {
	cd, err := New(big.NewInt(10), big.NewInt(20))
	require.NoError(t, err)

	tampered := &CommitDecommit{C: cd.C, D: append(Opening{}, cd.D...)}
	tampered.D[1] = big.NewInt(999)

	ok, _, err := tampered.Decommit()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDigestIsInjectiveAcrossComponentBoundaries(t *testing.T) {
	a, err := digest([]*big.Int{big.NewInt(0x01), big.NewInt(0x0203)})
	require.NoError(t, err)
	b, err := digest([]*big.Int{big.NewInt(0x0102), big.NewInt(0x03)})
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "length-prefixing must prevent two different splits of the same raw bytes from colliding")
}

func TestFlattenPoints(t *testing.T) {
	coords := [][2]*big.Int{{big.NewInt(1), big.NewInt(2)}, {big.NewInt(3), big.NewInt(4)}}
	flat, err := FlattenPoints(coords)
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)}, flat)
}

func TestFlattenPointsRejectsNilCoordinate(t *testing.T) {
	_, err := FlattenPoints([][2]*big.Int{{nil, big.NewInt(1)}})
	assert.Error(t, err)
}
