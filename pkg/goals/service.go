// Package goals manages the monthly sales targets ("metas").
package goals

import (
	"context"
	"sort"
	"time"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/shopspring/decimal"
)

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(month string) (string, error) {
	t, err := time.Parse(models.MonthLayout, month)
	if err != nil {
		return "", domain.NewValidationError("Mês inválido. Use o formato AAAA-MM.")
	}
	return t.Format(models.MonthLayout), nil
}

// CurrentMonth is the month key of now.
func CurrentMonth(now time.Time) string {
	return now.Format(models.MonthLayout)
}

// Service reads and writes Metas documents.
type Service struct {
	metas *store.Repository[models.Metas]
	log   logger.Logger
	loc   *time.Location
	now   func() time.Time
}

// NewService creates a new goals service.
func NewService(ds store.DocumentStore, log logger.Logger) *Service {
	return &Service{metas: store.NewMetas(ds), log: log, loc: time.UTC, now: time.Now}
}

// WithLocation sets the timezone whose calendar decides the current month.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Location is the timezone months are read in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Month is the current month key in the service's timezone.
func (s *Service) Month() string {
	return CurrentMonth(s.now().In(s.loc))
}

// Current returns the goals of the current month.
func (s *Service) Current(ctx context.Context, sess session.Session) (*models.Metas, error) {
	return s.Get(ctx, sess, s.Month())
}

// Get returns the goals of month, creating a zero-target record the first
// time a month is viewed.
func (s *Service) Get(ctx context.Context, sess session.Session, month string) (*models.Metas, error) {
	month, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}

	metas, err := s.metas.Get(ctx, sess.UserID, month)
	if err == nil {
		if metas.ByPartner == nil {
			metas.ByPartner = map[models.Partner]decimal.Decimal{}
		}
		return metas, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	created := models.NewMetas(month)
	if err := s.metas.Set(ctx, sess.UserID, month, created); err != nil {
		return nil, err
	}
	s.log.Info("default goals created", "user_id", sess.UserID, "month", month)
	return &created, nil
}

// Update replaces the goals of metas.ID.
func (s *Service) Update(ctx context.Context, sess session.Session, metas models.Metas) (*models.Metas, error) {
	month, err := ParseMonth(metas.ID)
	if err != nil {
		return nil, err
	}
	metas.ID = month

	if metas.TotalSales.IsNegative() || metas.Visits < 0 || metas.Calls < 0 {
		return nil, domain.NewValidationError("As metas não podem ser negativas.")
	}
	if metas.ByPartner == nil {
		metas.ByPartner = map[models.Partner]decimal.Decimal{}
	}
	for p, v := range metas.ByPartner {
		if _, err := models.ParsePartner(string(p)); err != nil {
			return nil, domain.NewValidationError("Representada inválida: " + string(p))
		}
		if v.IsNegative() {
			return nil, domain.NewValidationError("As metas não podem ser negativas.")
		}
	}

	if err := s.metas.Set(ctx, sess.UserID, month, metas); err != nil {
		return nil, err
	}
	return &metas, nil
}

// ListMonths returns the months that have a goals record, oldest first.
func (s *Service) ListMonths(ctx context.Context, sess session.Session) ([]string, error) {
	all, err := s.metas.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	months := make([]string, 0, len(all))
	for _, m := range all {
		months = append(months, m.ID)
	}
	sort.Strings(months)
	return months, nil
}
