package keygen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

const (
	testParties   = 3
	testThreshold = 1
)

func runDKG(t *testing.T, n, threshold int) []*Bundle {
	t.Helper()
	transport := relay.NewMemoryTransport()
	roomUUID := "test-room-keygen"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bundles := make([]*Bundle, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= n; i++ {
		i := i
		g.Go(func() error {
			engine := NewEngine(transport, roomUUID, Params{Threshold: threshold, Parties: n, Index: i})
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

func TestDKGHappyPath(t *testing.T) {
	bundles := runDKG(t, testParties, testThreshold)

	for i := 1; i < testParties; i++ {
		assert.True(t, bundles[0].YSum.Equals(bundles[i].YSum), "all parties must agree on the joint public key")
	}

	ids := PartyIDs(testParties)
	shares := make([]*vss.Share, testParties)
	for i, b := range bundles {
		shares[i] = &vss.Share{Threshold: testThreshold, ID: ids[i], Value: b.SharedKeys.Xi}
	}
	secret, err := vss.Reconstruct(shares)
	require.NoError(t, err)
	assert.True(t, curve.ScalarBaseMult(secret).Equals(bundles[0].YSum), "reconstructed secret must match the joint public key")
}

func TestDKGSubsetReconstruction(t *testing.T) {
	bundles := runDKG(t, testParties, testThreshold)

	ids := PartyIDs(testParties)
	subset := []*vss.Share{
		{Threshold: testThreshold, ID: ids[0], Value: bundles[0].SharedKeys.Xi},
		{Threshold: testThreshold, ID: ids[2], Value: bundles[2].SharedKeys.Xi},
	}
	secret, err := vss.Reconstruct(subset)
	require.NoError(t, err)
	assert.True(t, curve.ScalarBaseMult(secret).Equals(bundles[0].YSum))
}
