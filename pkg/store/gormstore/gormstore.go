// Package gormstore implements store.DocumentStore on a relational database
// through gorm. Documents share one table keyed by (user, collection, id).
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/store"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecord is the row holding one document.
type DocumentRecord struct {
	UserID     string         `gorm:"primaryKey;size:128"`
	Collection string         `gorm:"primaryKey;size:32;index"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	Version    int64          `gorm:"not null;default:1"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
}

// TableName overrides the gorm default.
func (DocumentRecord) TableName() string {
	return "documents"
}

// Store is a gorm-backed DocumentStore.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New wraps an open gorm handle. Call Migrate before first use.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the documents table.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&DocumentRecord{})
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	default:
		return err
	}
}

func toDocument(r DocumentRecord) store.Document {
	return store.Document{ID: r.ID, Data: []byte(r.Data), Version: r.Version, UpdatedAt: r.UpdatedAt}
}

// List returns the user's documents in insertion order.
func (s *Store) List(ctx context.Context, userID string, coll store.Collection) ([]store.Document, error) {
	var rows []DocumentRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, string(coll)).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, toDocument(r))
	}
	return docs, nil
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, userID string, coll store.Collection, id string) (*store.Document, error) {
	var row DocumentRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ? AND id = ?", userID, string(coll), id).
		First(&row).Error
	if err != nil {
		return nil, classify(err)
	}
	doc := toDocument(row)
	return &doc, nil
}

func (s *Store) upsert(tx *gorm.DB, userID string, coll store.Collection, id string, data []byte) error {
	now := s.now().UTC()
	row := DocumentRecord{
		UserID:     userID,
		Collection: string(coll),
		ID:         id,
		Data:       datatypes.JSON(data),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":       datatypes.JSON(data),
			"updated_at": now,
			"version":    gorm.Expr("documents.version + 1"),
		}),
	}).Create(&row).Error
}

// Set creates or replaces a document.
func (s *Store) Set(ctx context.Context, userID string, coll store.Collection, id string, data []byte) error {
	return classify(s.upsert(s.db.WithContext(ctx), userID, coll, id, data))
}

// Add stores a document under a fresh uuid.
func (s *Store) Add(ctx context.Context, userID string, coll store.Collection, data []byte) (string, error) {
	id := uuid.NewString()
	if err := s.upsert(s.db.WithContext(ctx), userID, coll, id, data); err != nil {
		return "", classify(err)
	}
	return id, nil
}

func remove(tx *gorm.DB, userID string, coll store.Collection, id string) error {
	res := tx.Where("user_id = ? AND collection = ? AND id = ?", userID, string(coll), id).
		Delete(&DocumentRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a document. Deleting a missing document is ErrNotFound.
func (s *Store) Delete(ctx context.Context, userID string, coll store.Collection, id string) error {
	return classify(remove(s.db.WithContext(ctx), userID, coll, id))
}

// Commit applies all ops inside one transaction.
func (s *Store) Commit(ctx context.Context, userID string, ops []store.WriteOp) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			var err error
			if op.Delete {
				err = remove(tx, userID, op.Collection, op.ID)
			} else {
				err = s.upsert(tx, userID, op.Collection, op.ID, op.Data)
			}
			if err != nil {
				return fmt.Errorf("%s/%s: %w", op.Collection, op.ID, err)
			}
		}
		return nil
	})
	return classify(err)
}

// ListOwners returns distinct users holding documents in coll.
func (s *Store) ListOwners(ctx context.Context, coll store.Collection) ([]string, error) {
	var owners []string
	err := s.db.WithContext(ctx).Model(&DocumentRecord{}).
		Where("collection = ?", string(coll)).
		Distinct().Order("user_id").
		Pluck("user_id", &owners).Error
	if err != nil {
		return nil, classify(err)
	}
	return owners, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op; the database client owns the connection.
func (s *Store) Close(context.Context) error {
	return nil
}
