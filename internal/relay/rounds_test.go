package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastAndPoll(t *testing.T) {
	transport := NewMemoryTransport()
	client := NewClient(transport, "room-1")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Broadcast(ctx, 1, "round1", []byte("payload-1")))
	require.NoError(t, client.Broadcast(ctx, 3, "round1", []byte("payload-3")))

	// self=2, n=3: expect peers 1 and 3 in ascending order
	got, err := client.PollBroadcasts(ctx, 2, 3, "round1", 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("payload-1"), got[0])
	assert.Equal(t, []byte("payload-3"), got[1])
}

func TestSendAndPollP2P(t *testing.T) {
	transport := NewMemoryTransport()
	client := NewClient(transport, "room-2")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.SendP2P(ctx, 1, 2, "round2", []byte("from-1")))
	require.NoError(t, client.SendP2P(ctx, 3, 2, "round2", []byte("from-3")))

	got, err := client.PollP2P(ctx, 2, 3, "round2", 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("from-1"), got[0])
	assert.Equal(t, []byte("from-3"), got[1])
}

func TestPollBroadcastsBlocksUntilPublished(t *testing.T) {
	transport := NewMemoryTransport()
	client := NewClient(transport, "room-3")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = client.Broadcast(context.Background(), 1, "roundX", []byte("late"))
	}()

	got, err := client.PollBroadcasts(ctx, 2, 2, "roundX", 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("late"), got[0])
}

func TestMemoryTransportSetIdempotent(t *testing.T) {
	transport := NewMemoryTransport()
	ctx := context.Background()

	require.NoError(t, transport.Set(ctx, "k", []byte("v1")))
	require.NoError(t, transport.Set(ctx, "k", []byte("v2")))

	got, ok, err := transport.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}
