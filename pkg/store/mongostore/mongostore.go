// Package mongostore implements store.DocumentStore on MongoDB. Each store
// collection maps to a mongo collection; documents are keyed by owner and id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// codeUnauthorized is the server error code for a rejected operation.
const codeUnauthorized = 13

type record struct {
	Key       string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	DocID     string    `bson:"doc_id"`
	Data      string    `bson:"data"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store is a mongo-backed DocumentStore.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed pinging mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database), now: time.Now}, nil
}

func key(userID, id string) string {
	return userID + "/" + id
}

func (s *Store) coll(c store.Collection) *mongo.Collection {
	return s.db.Collection(string(c))
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeUnauthorized {
		return fmt.Errorf("%w: %v", store.ErrPermissionDenied, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}

func toDocument(r record) store.Document {
	return store.Document{ID: r.DocID, Data: []byte(r.Data), Version: r.Version, UpdatedAt: r.UpdatedAt}
}

// List returns the user's documents in insertion order.
func (s *Store) List(ctx context.Context, userID string, c store.Collection) ([]store.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "doc_id", Value: 1}})
	cursor, err := s.coll(c).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var rows []record
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, classify(err)
	}
	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, toDocument(r))
	}
	return docs, nil
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, userID string, c store.Collection, id string) (*store.Document, error) {
	var r record
	if err := s.coll(c).FindOne(ctx, bson.M{"_id": key(userID, id)}).Decode(&r); err != nil {
		return nil, classify(err)
	}
	doc := toDocument(r)
	return &doc, nil
}

func (s *Store) upsert(ctx context.Context, userID string, c store.Collection, id string, data []byte) error {
	now := s.now().UTC()
	update := bson.M{
		"$set": bson.M{"data": string(data), "updated_at": now},
		"$inc": bson.M{"version": 1},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"doc_id":     id,
			"created_at": now,
		},
	}
	_, err := s.coll(c).UpdateOne(ctx, bson.M{"_id": key(userID, id)}, update, options.UpdateOne().SetUpsert(true))
	return err
}

// Set creates or replaces a document.
func (s *Store) Set(ctx context.Context, userID string, c store.Collection, id string, data []byte) error {
	return classify(s.upsert(ctx, userID, c, id, data))
}

// Add stores a document under a fresh uuid.
func (s *Store) Add(ctx context.Context, userID string, c store.Collection, data []byte) (string, error) {
	id := uuid.NewString()
	if err := s.upsert(ctx, userID, c, id, data); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func (s *Store) remove(ctx context.Context, userID string, c store.Collection, id string) error {
	res, err := s.coll(c).DeleteOne(ctx, bson.M{"_id": key(userID, id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, userID string, c store.Collection, id string) error {
	return classify(s.remove(ctx, userID, c, id))
}

// Commit applies ops in a multi-document transaction. Requires a replica set.
func (s *Store) Commit(ctx context.Context, userID string, ops []store.WriteOp) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return classify(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(txCtx context.Context) (interface{}, error) {
		for _, op := range ops {
			var err error
			if op.Delete {
				err = s.remove(txCtx, userID, op.Collection, op.ID)
			} else {
				err = s.upsert(txCtx, userID, op.Collection, op.ID, op.Data)
			}
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", op.Collection, op.ID, err)
			}
		}
		return nil, nil
	})
	return classify(err)
}

// ListOwners returns distinct users holding documents in c, sorted.
func (s *Store) ListOwners(ctx context.Context, c store.Collection) ([]string, error) {
	var owners []string
	res := s.coll(c).Distinct(ctx, "user_id", bson.M{})
	if err := res.Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, classify(err)
	}
	if err := res.Decode(&owners); err != nil {
		return nil, classify(err)
	}
	sort.Strings(owners)
	return owners, nil
}

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	return classify(s.client.Ping(ctx, nil))
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
