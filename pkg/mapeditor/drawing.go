// Package mapeditor implements the map interactions: region drawing,
// visit routes and geolocation recentring.
package mapeditor

import (
	"context"
	"errors"
	"time"

	"github.com/jordanlanch/obramap/pkg/cache"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/models"
)

// Mode is the state of the drawing machine.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeDrawing Mode = "drawing"
)

// TapKind says what a map tap did.
type TapKind string

const (
	TapOpenLeadForm TapKind = "open_lead_form"
	TapVertexAdded  TapKind = "vertex_added"
)

// LeadPrefill is the lead-creation form content for a tapped coordinate.
type LeadPrefill struct {
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	Stage        models.Stage `json:"etapa"`
	RegisteredOn string       `json:"dataCadastro"`
}

// TapOutcome is the result of one tap.
type TapOutcome struct {
	Kind    TapKind      `json:"kind"`
	Prefill *LeadPrefill `json:"prefill,omitempty"`
	Points  int          `json:"points,omitempty"`
}

// Drawing is one user's drawing state. The zero value is idle.
type Drawing struct {
	Mode      Mode            `json:"mode"`
	Points    []models.LatLng `json:"points"`
	StartedAt time.Time       `json:"startedAt,omitempty"`
}

// Drawing reports whether a region is being captured.
func (d *Drawing) Drawing() bool {
	return d.Mode == ModeDrawing
}

// Begin enters drawing mode. Only one region is drawn at a time.
func (d *Drawing) Begin(now time.Time) error {
	if d.Drawing() {
		return domain.NewValidationError("Já existe uma região sendo desenhada.")
	}
	d.Mode = ModeDrawing
	d.Points = nil
	d.StartedAt = now.UTC()
	return nil
}

// Tap handles a map tap. While drawing the point becomes a vertex; otherwise
// it opens the lead form prefilled at the coordinate.
func (d *Drawing) Tap(p models.LatLng, now time.Time) TapOutcome {
	if d.Drawing() {
		d.Points = append(d.Points, p)
		return TapOutcome{Kind: TapVertexAdded, Points: len(d.Points)}
	}
	return TapOutcome{
		Kind: TapOpenLeadForm,
		Prefill: &LeadPrefill{
			Lat:          p.Lat,
			Lng:          p.Lng,
			Stage:        models.StageLead,
			RegisteredOn: now.Format(models.DateLayout),
		},
	}
}

// Save leaves drawing mode and returns the captured points. ok is false when
// fewer than MinRegionPoints were tapped; those points are discarded.
func (d *Drawing) Save() (points []models.LatLng, ok bool) {
	points = d.Points
	d.reset()
	if len(points) < models.MinRegionPoints {
		return nil, false
	}
	return points, true
}

// Cancel discards the points and returns to idle.
func (d *Drawing) Cancel() {
	d.reset()
}

func (d *Drawing) reset() {
	d.Mode = ModeIdle
	d.Points = nil
	d.StartedAt = time.Time{}
}

// SessionTTL bounds how long an abandoned drawing survives.
const SessionTTL = time.Hour

// SessionStore keeps each user's drawing state in Redis.
type SessionStore struct {
	cache *cache.Client
	ttl   time.Duration
}

// NewSessionStore creates a new drawing session store.
func NewSessionStore(c *cache.Client) *SessionStore {
	return &SessionStore{cache: c, ttl: SessionTTL}
}

func drawingKey(userID string) string {
	return "drawing:" + userID
}

// Load returns the user's drawing; a missing or expired one is idle.
func (s *SessionStore) Load(ctx context.Context, userID string) (*Drawing, error) {
	var d Drawing
	err := s.cache.GetJSON(ctx, drawingKey(userID), &d)
	if errors.Is(err, cache.ErrMiss) {
		return &Drawing{Mode: ModeIdle}, nil
	}
	if err != nil {
		return nil, domain.NewUnavailableError(err)
	}
	if d.Mode == "" {
		d.Mode = ModeIdle
	}
	return &d, nil
}

// Save stores d. An idle drawing has nothing to keep and is deleted.
func (s *SessionStore) Save(ctx context.Context, userID string, d *Drawing) error {
	if !d.Drawing() {
		if err := s.cache.Delete(ctx, drawingKey(userID)); err != nil {
			return domain.NewUnavailableError(err)
		}
		return nil
	}
	if err := s.cache.SetJSON(ctx, drawingKey(userID), d, s.ttl); err != nil {
		return domain.NewUnavailableError(err)
	}
	return nil
}
