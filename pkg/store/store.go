// Package store is the document-store gateway. Every document lives under an
// owning user and a collection; payloads are opaque JSON.
package store

import (
	"context"
	"errors"
	"time"
)

// Collection names a per-user document collection.
type Collection string

const (
	CollectionObras   Collection = "obras"
	CollectionRegions Collection = "regions"
	CollectionMetas   Collection = "metas"
	CollectionProfile Collection = "profile"
)

// Sentinel errors returned by DocumentStore implementations.
var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("store unavailable")
)

// Document is a stored JSON payload with its bookkeeping.
// Version is bumped on every write but never checked: writes are last-writer-wins.
type Document struct {
	ID        string
	Data      []byte
	Version   int64
	UpdatedAt time.Time
}

// WriteOp is one element of an atomic batch. A Delete op ignores Data.
type WriteOp struct {
	Collection Collection
	ID         string
	Data       []byte
	Delete     bool
}

// DocumentStore persists per-user documents.
type DocumentStore interface {
	// List returns the user's documents in insertion order.
	List(ctx context.Context, userID string, coll Collection) ([]Document, error)
	Get(ctx context.Context, userID string, coll Collection, id string) (*Document, error)
	// Set creates or fully replaces the document.
	Set(ctx context.Context, userID string, coll Collection, id string, data []byte) error
	// Add stores a new document under a generated id and returns it.
	Add(ctx context.Context, userID string, coll Collection, data []byte) (string, error)
	Delete(ctx context.Context, userID string, coll Collection, id string) error
	// Commit applies every op or none of them.
	Commit(ctx context.Context, userID string, ops []WriteOp) error
	// ListOwners returns the ids of users holding at least one document in coll.
	ListOwners(ctx context.Context, coll Collection) ([]string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
