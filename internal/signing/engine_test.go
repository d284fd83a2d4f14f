package signing

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/aerius-tss/gg18-signer/internal/keygen"
	"github.com/aerius-tss/gg18-signer/internal/relay"
)

const (
	dkgParties   = 3
	dkgThreshold = 1
)

func runDKG(t *testing.T) []*keygen.Bundle {
	t.Helper()
	transport := relay.NewMemoryTransport()
	roomUUID := "test-room-keygen"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bundles := make([]*keygen.Bundle, dkgParties)
	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= dkgParties; i++ {
		i := i
		g.Go(func() error {
			engine := keygen.NewEngine(transport, roomUUID, keygen.Params{Threshold: dkgThreshold, Parties: dkgParties, Index: i})
			bundle, err := engine.Run(gctx)
			if err != nil {
				return err
			}
			bundles[i-1] = bundle
			return nil
		})
	}
	require.NoError(t, g.Wait())
	return bundles
}

// runSigning signs message with the bundles at the given original indices
// (1-indexed into bundles), each party assigned a room ordinal by its
// position in members.
func runSigning(t *testing.T, bundles []*keygen.Bundle, members []int, message []byte, path []uint32) []*Result {
	t.Helper()
	transport := relay.NewMemoryTransport()
	roomUUID := "test-room-signing"
	n := len(members)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := make([]*Result, n)
	g, gctx := errgroup.WithContext(ctx)
	for ord, origIdx := range members {
		ord := ord
		origIdx := origIdx
		g.Go(func() error {
			engine := NewEngine(transport, roomUUID, Params{
				RegistryOrdinal: ord + 1,
				RoomSize:        n,
				Bundle:          bundles[origIdx-1],
				Message:         message,
				Path:            path,
			})
			res, err := engine.Run(gctx)
			if err != nil {
				return err
			}
			results[ord] = res
			return nil
		})
	}
	require.NoError(t, g.Wait())
	return results
}

func digest(msg string) []byte {
	h := sha256.Sum256([]byte(msg))
	return h[:]
}

func TestSigningHappyPath(t *testing.T) {
	bundles := runDKG(t)
	msg := digest("gg18 signing happy path")

	results := runSigning(t, bundles, []int{1, 2}, msg, nil)

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0].R, results[i].R, "every party must agree on r")
		assert.Equal(t, results[0].S, results[i].S, "every party must agree on s")
	}
	assert.True(t, results[0].ChildKey.Equals(bundles[0].YSum))
}

func TestSigningSubsetAgreement(t *testing.T) {
	bundles := runDKG(t)
	msg := digest("gg18 signing subset agreement")

	results := runSigning(t, bundles, []int{2, 3}, msg, nil)

	assert.Equal(t, results[0].R, results[1].R)
	assert.Equal(t, results[0].S, results[1].S)
}

func TestSigningHDPath(t *testing.T) {
	bundles := runDKG(t)
	msg := digest("gg18 signing hd path")
	path := []uint32{0, 1}

	results := runSigning(t, bundles, []int{1, 2}, msg, path)

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0].R, results[i].R)
		assert.Equal(t, results[0].S, results[i].S)
	}
	assert.False(t, results[0].ChildKey.Equals(bundles[0].YSum), "child key must differ from the root joint key")
}
