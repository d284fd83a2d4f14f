package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Client drives the round primitives of §4.2 over a Transport.
type Client struct {
	Transport Transport
	RoomUUID  string
}

func NewClient(t Transport, roomUUID string) *Client {
	return &Client{Transport: t, RoomUUID: roomUUID}
}

func broadcastKey(party int, round, roomUUID string) string {
	return fmt.Sprintf("%d-%s-%s", party, round, roomUUID)
}

func p2pKey(from, to int, round, roomUUID string) string {
	return fmt.Sprintf("%d-%d-%s-%s", from, to, round, roomUUID)
}

// Broadcast publishes payload under this party's round key.
func (c *Client) Broadcast(ctx context.Context, party int, round string, payload []byte) error {
	return c.Transport.Set(ctx, broadcastKey(party, round, c.RoomUUID), payload)
}

// SendP2P publishes a point-to-point payload from `from` to `to`.
func (c *Client) SendP2P(ctx context.Context, from, to int, round string, payload []byte) error {
	return c.Transport.Set(ctx, p2pKey(from, to, round, c.RoomUUID), payload)
}

// PollBroadcasts blocks until every peer 1..n (excluding self) has
// published round, returning their payloads in ascending peer-index order.
// There is no intrinsic timeout (§4.2); callers that need one must wrap
// this call with a context deadline.
func (c *Client) PollBroadcasts(ctx context.Context, self, n int, round string, delay time.Duration) ([][]byte, error) {
	out := make([][]byte, 0, n-1)
	for i := 1; i <= n; i++ {
		if i == self {
			continue
		}
		payload, err := c.pollOne(ctx, broadcastKey(i, round, c.RoomUUID), delay)
		if err != nil {
			return nil, errors.Wrapf(err, "relay: polling broadcast from party %d", i)
		}
		out = append(out, payload)
	}
	return out, nil
}

// PollP2P is PollBroadcasts' point-to-point analogue: waits for every
// peer's message addressed to `self`.
func (c *Client) PollP2P(ctx context.Context, self, n int, round string, delay time.Duration) ([][]byte, error) {
	out := make([][]byte, 0, n-1)
	for i := 1; i <= n; i++ {
		if i == self {
			continue
		}
		payload, err := c.pollOne(ctx, p2pKey(i, self, round, c.RoomUUID), delay)
		if err != nil {
			return nil, errors.Wrapf(err, "relay: polling p2p from party %d", i)
		}
		out = append(out, payload)
	}
	return out, nil
}

func (c *Client) pollOne(ctx context.Context, key string, delay time.Duration) ([]byte, error) {
	for {
		value, found, err := c.Transport.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			return value, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
