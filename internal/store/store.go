// Package store persists SigningRequest/KeyGenRequest records (spec.md
// §3 "SigningRequest / KeyGenRequest... storage sub-system is external"),
// behind a Store interface with an in-memory implementation for tests
// and a mongo-driver-backed implementation for real deployments.
package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// Signature is the wire format of §6: "SignerResult.signature".
type Signature struct {
	R      string `bson:"r" json:"r"`
	S      string `bson:"s" json:"s"`
	Status Status `bson:"status" json:"status"`
	Recid  int    `bson:"recid" json:"recid"`
	X      string `bson:"x" json:"x"`
	Y      string `bson:"y" json:"y"`
	MsgInt string `bson:"msg_int" json:"msg_int"`
}

// SigningRequest is a messages_to_sign record, keyed by request_id.
type SigningRequest struct {
	RequestID string     `bson:"request_id" json:"request_id"`
	Message   []byte     `bson:"message" json:"message"`
	Status    Status     `bson:"status" json:"status"`
	Signature *Signature `bson:"signature,omitempty" json:"signature,omitempty"`
}

// KeyGenRequest is a keys_gen_requests record.
type KeyGenRequest struct {
	RequestID string   `bson:"request_id" json:"request_id"`
	Threshold int      `bson:"threshold" json:"threshold"`
	Parties   int      `bson:"parties" json:"parties"`
	Status    Status   `bson:"status" json:"status"`
	Bundles   []string `bson:"bundles,omitempty" json:"bundles,omitempty"` // serialized per-party bundles
}

var ErrNotFound = errors.New("store: record not found")

// Store is the persistence contract both implementations satisfy.
type Store interface {
	PutSigningRequest(ctx context.Context, req *SigningRequest) error
	GetSigningRequest(ctx context.Context, requestID string) (*SigningRequest, error)
	// UpdateSigningResult applies sig to requestID's record only if the
	// record is not already Completed, per spec.md §8 invariant 4 ("replay
	// safety") and scenario 6 ("first wins").
	UpdateSigningResult(ctx context.Context, requestID string, sig *Signature) error

	PutKeyGenRequest(ctx context.Context, req *KeyGenRequest) error
	GetKeyGenRequest(ctx context.Context, requestID string) (*KeyGenRequest, error)
	CompleteKeyGenRequest(ctx context.Context, requestID string, bundles []string) error
}

// MemoryStore is an in-process Store for tests and single-node demos.
type MemoryStore struct {
	mu      sync.Mutex
	signing map[string]*SigningRequest
	keygen  map[string]*KeyGenRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		signing: make(map[string]*SigningRequest),
		keygen:  make(map[string]*KeyGenRequest),
	}
}

func (s *MemoryStore) PutSigningRequest(_ context.Context, req *SigningRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.signing[req.RequestID] = &cp
	return nil
}

func (s *MemoryStore) GetSigningRequest(_ context.Context, requestID string) (*SigningRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.signing[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) UpdateSigningResult(_ context.Context, requestID string, sig *Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.signing[requestID]
	if !ok {
		return ErrNotFound
	}
	if req.Status == StatusCompleted {
		return nil
	}
	req.Signature = sig
	req.Status = StatusCompleted
	return nil
}

func (s *MemoryStore) PutKeyGenRequest(_ context.Context, req *KeyGenRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.keygen[req.RequestID] = &cp
	return nil
}

func (s *MemoryStore) GetKeyGenRequest(_ context.Context, requestID string) (*KeyGenRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.keygen[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) CompleteKeyGenRequest(_ context.Context, requestID string, bundles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.keygen[requestID]
	if !ok {
		return ErrNotFound
	}
	req.Bundles = bundles
	req.Status = StatusCompleted
	return nil
}
