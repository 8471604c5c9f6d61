package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/models"
)

// Translate maps store sentinels onto domain errors.
func Translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, ErrNotFound):
		return domain.NewNotFoundError(resource)
	case errors.Is(err, ErrPermissionDenied):
		return domain.NewPermissionDeniedError(err)
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.NewUnavailableError(err)
	default:
		return domain.NewInternalError(err)
	}
}

// Repository is a typed view over one collection.
type Repository[T any] struct {
	ds       DocumentStore
	coll     Collection
	resource string
	setID    func(*T, string)
}

// NewObras returns the repository for obra documents.
func NewObras(ds DocumentStore) *Repository[models.Obra] {
	return &Repository[models.Obra]{ds: ds, coll: CollectionObras, resource: "obra",
		setID: func(o *models.Obra, id string) { o.ID = id }}
}

// NewRegions returns the repository for drawn regions.
func NewRegions(ds DocumentStore) *Repository[models.Region] {
	return &Repository[models.Region]{ds: ds, coll: CollectionRegions, resource: "region",
		setID: func(r *models.Region, id string) { r.ID = id }}
}

// NewMetas returns the repository for monthly goals, keyed by YYYY-MM.
func NewMetas(ds DocumentStore) *Repository[models.Metas] {
	return &Repository[models.Metas]{ds: ds, coll: CollectionMetas, resource: "metas",
		setID: func(m *models.Metas, id string) { m.ID = id }}
}

// NewProfiles returns the repository for the single profile document.
func NewProfiles(ds DocumentStore) *Repository[models.User] {
	return &Repository[models.User]{ds: ds, coll: CollectionProfile, resource: "profile",
		setID: func(u *models.User, id string) { u.ID = id }}
}

// Collection reports the collection backing the repository.
func (r *Repository[T]) Collection() Collection {
	return r.coll
}

func (r *Repository[T]) decode(doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, domain.NewInternalError(fmt.Errorf("decoding %s %s: %w", r.resource, doc.ID, err))
	}
	r.setID(&v, doc.ID)
	return v, nil
}

// List returns every document of the user in insertion order.
func (r *Repository[T]) List(ctx context.Context, userID string) ([]T, error) {
	docs, err := r.ds.List(ctx, userID, r.coll)
	if err != nil {
		return nil, Translate(err, r.resource)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Get loads one document. A missing document is a domain NotFound error.
func (r *Repository[T]) Get(ctx context.Context, userID, id string) (*T, error) {
	doc, err := r.ds.Get(ctx, userID, r.coll, id)
	if err != nil {
		return nil, Translate(err, r.resource)
	}
	v, err := r.decode(*doc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Add stores v under a generated id and writes the id back into v.
func (r *Repository[T]) Add(ctx context.Context, userID string, v *T) error {
	r.setID(v, "")
	data, err := json.Marshal(v)
	if err != nil {
		return domain.NewInternalError(err)
	}
	id, err := r.ds.Add(ctx, userID, r.coll, data)
	if err != nil {
		return Translate(err, r.resource)
	}
	r.setID(v, id)
	return nil
}

// Set replaces the document stored under id.
func (r *Repository[T]) Set(ctx context.Context, userID, id string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return domain.NewInternalError(err)
	}
	return Translate(r.ds.Set(ctx, userID, r.coll, id, data), r.resource)
}

// Delete removes the document stored under id.
func (r *Repository[T]) Delete(ctx context.Context, userID, id string) error {
	return Translate(r.ds.Delete(ctx, userID, r.coll, id), r.resource)
}

// SetOp builds a batch op replacing the document stored under id.
func (r *Repository[T]) SetOp(id string, v T) (WriteOp, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return WriteOp{}, domain.NewInternalError(err)
	}
	return WriteOp{Collection: r.coll, ID: id, Data: data}, nil
}

// Commit applies ops atomically through the underlying store.
func Commit(ctx context.Context, ds DocumentStore, userID string, ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	return Translate(ds.Commit(ctx, userID, ops), "batch")
}
