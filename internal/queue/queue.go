// Package queue models the signing-job work queue of spec.md §1's data
// flow ("coordinator enqueues a signing job -> t+1 signer processes
// consume the job"). No AMQP client ships in the retrieved example pack
// (see SPEC_FULL.md §3), so Channel is the only implementation: an
// in-process Queue backed by a fixed-capacity buffered channel (Enqueue
// blocks while the buffer is full) satisfying the same Enqueue/Consume
// contract a RabbitMQ client would.
package queue

import "context"

// Job is one signing job handed from the coordinator to a signer
// consumer.
type Job struct {
	RequestID string
	Message   []byte
}

// Queue is the external collaborator contract of SPEC_FULL.md §4.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Consume returns the next job, blocking until one is available or ctx
	// is done.
	Consume(ctx context.Context) (Job, error)
}

// Channel is an in-process Queue backed by a buffered Go channel.
type Channel struct {
	jobs chan Job
}

func NewChannel(buffer int) *Channel {
	return &Channel{jobs: make(chan Job, buffer)}
}

func (c *Channel) Enqueue(ctx context.Context, job Job) error {
	select {
	case c.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Channel) Consume(ctx context.Context) (Job, error) {
	select {
	case job := <-c.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
