package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelEnqueueConsumeRoundTrip(t *testing.T) {
	q := NewChannel(1)
	ctx := context.Background()

	job := Job{RequestID: "req-1", Message: []byte("hello")}
	require.NoError(t, q.Enqueue(ctx, job))

	got, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, job, got)
}

func TestChannelConsumePreservesFIFOOrder(t *testing.T) {
	q := NewChannel(4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{RequestID: string(rune('a' + i))}))
	}

	for i := 0; i < 3; i++ {
		got, err := q.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, string(rune('a'+i)), got.RequestID)
	}
}

func TestChannelConsumeRespectsContextCancellation(t *testing.T) {
	q := NewChannel(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelEnqueueRespectsContextCancellation(t *testing.T) {
	q := NewChannel(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Enqueue(ctx, Job{RequestID: "blocked"})
	assert.ErrorIs(t, err, context.Canceled)
}
