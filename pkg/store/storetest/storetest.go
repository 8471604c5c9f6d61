// Package storetest provides DocumentStore fixtures for tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jordanlanch/obramap/pkg/database"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/jordanlanch/obramap/pkg/store/gormstore"
)

// ErrInjected is returned by a Faulty store when a failure is armed.
var ErrInjected = errors.New("injected failure")

// NewSQLite returns a migrated gormstore backed by an in-memory sqlite database.
func NewSQLite(t testing.TB) *gormstore.Store {
	t.Helper()
	client, err := database.NewClient(database.DriverSQLite, "file::memory:", logger.Discard())
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	s := gormstore.New(client.DB)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrating documents: %v", err)
	}
	return s
}

// Faulty wraps a DocumentStore and fails selected operations on demand.
type Faulty struct {
	store.DocumentStore

	mu         sync.Mutex
	FailCommit error
	FailList   error
	FailSet    error
	Commits    int
}

// NewFaulty wraps inner.
func NewFaulty(inner store.DocumentStore) *Faulty {
	return &Faulty{DocumentStore: inner}
}

// Commit fails with FailCommit when set; otherwise delegates.
func (f *Faulty) Commit(ctx context.Context, userID string, ops []store.WriteOp) error {
	f.mu.Lock()
	f.Commits++
	failure := f.FailCommit
	f.mu.Unlock()
	if failure != nil {
		return failure
	}
	return f.DocumentStore.Commit(ctx, userID, ops)
}

// List fails with FailList when set; otherwise delegates.
func (f *Faulty) List(ctx context.Context, userID string, coll store.Collection) ([]store.Document, error) {
	f.mu.Lock()
	failure := f.FailList
	f.mu.Unlock()
	if failure != nil {
		return nil, failure
	}
	return f.DocumentStore.List(ctx, userID, coll)
}

// Set fails with FailSet when set; otherwise delegates.
func (f *Faulty) Set(ctx context.Context, userID string, coll store.Collection, id string, data []byte) error {
	f.mu.Lock()
	failure := f.FailSet
	f.mu.Unlock()
	if failure != nil {
		return failure
	}
	return f.DocumentStore.Set(ctx, userID, coll, id, data)
}

// CommitCount reports how many commits were attempted.
func (f *Faulty) CommitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Commits
}
