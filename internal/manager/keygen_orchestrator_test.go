package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitKeygenSucceeds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bundles, err := SubmitKeygen(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, bundles, 3)
}

func TestSubmitKeygenFailsWhenEveryParticipantFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// threshold 0 is rejected by vss.Create for every participant: this is
	// total failure, not the partial-failure case §4.8 tolerates.
	bundles, err := SubmitKeygen(ctx, 0, 3)
	assert.Error(t, err)
	assert.Empty(t, bundles)
}
