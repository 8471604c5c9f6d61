package mapeditor

import (
	"context"
	"errors"
	"time"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
)

// ColorFor picks the palette entry of the n-th region (0-indexed).
func ColorFor(n int) string {
	return models.RegionPalette[n%len(models.RegionPalette)]
}

// RegionService persists regions and drives the drawing machine.
type RegionService struct {
	regions  *store.Repository[models.Region]
	sessions *SessionStore
	metrics  *metrics.Metrics
	log      logger.Logger
	now      func() time.Time
}

// NewRegionService creates a new region service. sessions may be nil when
// only region CRUD is needed.
func NewRegionService(ds store.DocumentStore, sessions *SessionStore, m *metrics.Metrics, log logger.Logger) *RegionService {
	return &RegionService{
		regions:  store.NewRegions(ds),
		sessions: sessions,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// List returns the user's regions in creation order.
func (s *RegionService) List(ctx context.Context, sess session.Session) ([]models.Region, error) {
	return s.regions.List(ctx, sess.UserID)
}

// Create persists a region from points, in input order. The color cycles
// through the palette by the number of regions the user already has.
func (s *RegionService) Create(ctx context.Context, sess session.Session, points []models.LatLng) (*models.Region, error) {
	if len(points) < models.MinRegionPoints {
		return nil, domain.NewValidationError("Uma região precisa de pelo menos 3 pontos.")
	}

	existing, err := s.regions.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	region := models.Region{
		Points: append([]models.LatLng(nil), points...),
		Color:  ColorFor(len(existing)),
	}
	if err := s.regions.Add(ctx, sess.UserID, &region); err != nil {
		return nil, err
	}

	s.metrics.RecordRegionCreated()
	s.log.Info("region created", "user_id", sess.UserID, "region_id", region.ID, "points", len(points))
	return &region, nil
}

// Delete removes a region. The caller must pass confirmed after asking the user.
func (s *RegionService) Delete(ctx context.Context, sess session.Session, id string, confirmed bool) error {
	if !confirmed {
		return domain.NewValidationError("Confirme a exclusão da região.")
	}
	return s.regions.Delete(ctx, sess.UserID, id)
}

func (s *RegionService) loadDrawing(ctx context.Context, userID string) (*Drawing, error) {
	if s.sessions == nil {
		return nil, domain.NewInternalError(errors.New("drawing sessions not configured"))
	}
	return s.sessions.Load(ctx, userID)
}

// CurrentDrawing returns the user's drawing state.
func (s *RegionService) CurrentDrawing(ctx context.Context, sess session.Session) (*Drawing, error) {
	return s.loadDrawing(ctx, sess.UserID)
}

// BeginDrawing enters drawing mode for the user.
func (s *RegionService) BeginDrawing(ctx context.Context, sess session.Session) (*Drawing, error) {
	d, err := s.loadDrawing(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if err := d.Begin(s.now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess.UserID, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Tap feeds a map tap to the user's drawing machine.
func (s *RegionService) Tap(ctx context.Context, sess session.Session, p models.LatLng) (TapOutcome, error) {
	d, err := s.loadDrawing(ctx, sess.UserID)
	if err != nil {
		return TapOutcome{}, err
	}
	out := d.Tap(p, s.now())
	if out.Kind == TapVertexAdded {
		if err := s.sessions.Save(ctx, sess.UserID, d); err != nil {
			return TapOutcome{}, err
		}
	}
	return out, nil
}

// SaveDrawing ends the drawing. Fewer than three points are discarded
// silently and a nil region is returned.
func (s *RegionService) SaveDrawing(ctx context.Context, sess session.Session) (*models.Region, error) {
	d, err := s.loadDrawing(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	points, ok := d.Save()
	if err := s.sessions.Save(ctx, sess.UserID, d); err != nil {
		return nil, err
	}
	if !ok {
		s.log.Debug("drawing discarded", "user_id", sess.UserID)
		return nil, nil
	}
	return s.Create(ctx, sess, points)
}

// CancelDrawing discards the drawing.
func (s *RegionService) CancelDrawing(ctx context.Context, sess session.Session) error {
	d, err := s.loadDrawing(ctx, sess.UserID)
	if err != nil {
		return err
	}
	d.Cancel()
	return s.sessions.Save(ctx, sess.UserID, d)
}
