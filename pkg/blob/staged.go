package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/models"
)

// Pending is a file chosen in an edit that has not been uploaded yet.
type Pending struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

// Preview is the handle a client shows for a pending file.
func (p Pending) Preview() string {
	return "pending:" + p.ID
}

// Staged merges persisted references with pending files. Nothing touches
// the blob store until Resolve runs inside a save; a discarded edit never does.
type Staged struct {
	persisted []models.Foto
	removed   []models.Foto
	pending   []Pending
	uploaded  []models.Foto
}

// NewStaged starts an edit from the references already saved.
func NewStaged(existing []models.Foto) *Staged {
	return &Staged{persisted: append([]models.Foto(nil), existing...)}
}

// Add queues a file for upload.
func (s *Staged) Add(filename, contentType string, data []byte) Pending {
	p := Pending{ID: uuid.NewString(), Filename: filename, ContentType: contentType, Data: data}
	s.pending = append(s.pending, p)
	return p
}

// Remove drops a persisted reference (by RefPath) or a pending file (by
// preview handle). It reports whether anything matched.
func (s *Staged) Remove(handle string) bool {
	for i, ref := range s.persisted {
		if ref.RefPath == handle {
			s.removed = append(s.removed, ref)
			s.persisted = append(s.persisted[:i], s.persisted[i+1:]...)
			return true
		}
	}
	for i, p := range s.pending {
		if p.Preview() == handle {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// PendingCount is the number of files waiting for upload.
func (s *Staged) PendingCount() int {
	return len(s.pending)
}

// Removed lists persisted references dropped during the edit.
func (s *Staged) Removed() []models.Foto {
	return append([]models.Foto(nil), s.removed...)
}

// Resolve uploads pending files and returns persisted plus new references,
// in that order. pathFor builds the object path of each file. If any upload
// fails, files uploaded by this call are deleted and the error returned.
func (s *Staged) Resolve(ctx context.Context, store Store, pathFor func(filename string) string) ([]models.Foto, error) {
	s.uploaded = s.uploaded[:0]
	for _, p := range s.pending {
		ref, err := store.Upload(ctx, pathFor(p.Filename), bytes.NewReader(p.Data), int64(len(p.Data)), p.ContentType)
		if err != nil {
			s.Rollback(ctx, store)
			return nil, fmt.Errorf("upload %s: %w", p.Filename, err)
		}
		s.uploaded = append(s.uploaded, ref)
	}

	out := make([]models.Foto, 0, len(s.persisted)+len(s.uploaded))
	out = append(out, s.persisted...)
	out = append(out, s.uploaded...)
	return out, nil
}

// Rollback deletes what the last Resolve uploaded. Used when the document
// save that follows Resolve fails.
func (s *Staged) Rollback(ctx context.Context, store Store) {
	for _, ref := range s.uploaded {
		_ = store.Delete(ctx, ref)
	}
	s.uploaded = nil
}

// Purge deletes the references removed during the edit. Call it only after
// the save succeeded. It returns the first error but attempts every delete.
func (s *Staged) Purge(ctx context.Context, store Store) error {
	var first error
	for _, ref := range s.removed {
		if err := store.Delete(ctx, ref); err != nil && first == nil {
			first = err
		}
	}
	s.removed = nil
	return first
}

// Discard drops pending files without touching the blob store.
func (s *Staged) Discard() {
	s.pending = nil
	s.removed = nil
}
