package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists requests in the messages_to_sign / keys_gen_requests
// collections named in spec.md §6.
type MongoStore struct {
	signing *mongo.Collection
	keygen  *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "store: connecting to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "store: pinging mongodb")
	}
	db := client.Database(database)
	return &MongoStore{
		signing: db.Collection("messages_to_sign"),
		keygen:  db.Collection("keys_gen_requests"),
	}, nil
}

func (s *MongoStore) PutSigningRequest(ctx context.Context, req *SigningRequest) error {
	_, err := s.signing.InsertOne(ctx, req)
	return errors.Wrap(err, "store: inserting signing request")
}

func (s *MongoStore) GetSigningRequest(ctx context.Context, requestID string) (*SigningRequest, error) {
	var req SigningRequest
	err := s.signing.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: finding signing request")
	}
	return &req, nil
}

// UpdateSigningResult uses a status-guarded filter so two concurrent
// calls for the same request_id can race in Mongo and only the first to
// match (status != Completed) takes effect (§8 invariant 4, scenario 6).
func (s *MongoStore) UpdateSigningResult(ctx context.Context, requestID string, sig *Signature) error {
	filter := bson.M{"request_id": requestID, "status": bson.M{"$ne": StatusCompleted}}
	update := bson.M{"$set": bson.M{"signature": sig, "status": StatusCompleted}}
	res, err := s.signing.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "store: updating signing result")
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetSigningRequest(ctx, requestID); err != nil {
			return err
		}
		return nil // already Completed: no-op per replay-safety invariant
	}
	return nil
}

func (s *MongoStore) PutKeyGenRequest(ctx context.Context, req *KeyGenRequest) error {
	_, err := s.keygen.InsertOne(ctx, req)
	return errors.Wrap(err, "store: inserting keygen request")
}

func (s *MongoStore) GetKeyGenRequest(ctx context.Context, requestID string) (*KeyGenRequest, error) {
	var req KeyGenRequest
	err := s.keygen.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: finding keygen request")
	}
	return &req, nil
}

func (s *MongoStore) CompleteKeyGenRequest(ctx context.Context, requestID string, bundles []string) error {
	filter := bson.M{"request_id": requestID}
	update := bson.M{"$set": bson.M{"bundles": bundles, "status": StatusCompleted}}
	_, err := s.keygen.UpdateOne(ctx, filter, update)
	return errors.Wrap(err, "store: completing keygen request")
}
