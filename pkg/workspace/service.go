// Package workspace assembles everything a signed-in user sees on load and
// reacts to sign-in and sign-out events.
package workspace

import (
	"context"

	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/goals"
	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
)

// DefaultDisplayName is used when the account has no name.
const DefaultDisplayName = "Usuário"

// Snapshot is the state of a freshly loaded workspace.
type Snapshot struct {
	User        *models.User    `json:"user"`
	Obras       []models.Obra   `json:"obras"`
	Regions     []models.Region `json:"regions"`
	Metas       *models.Metas   `json:"metas"`
	AgingNotice string          `json:"agingNotice,omitempty"`
	AgedIDs     []string        `json:"agedIds,omitempty"`
}

// Service loads workspaces.
type Service struct {
	ds        store.DocumentStore
	profiles  *store.Repository[models.User]
	obras     *store.Repository[models.Obra]
	regions   *store.Repository[models.Region]
	goals     *goals.Service
	lifecycle *leadlifecycle.Service
	drawings  *mapeditor.RegionService
	log       logger.Logger
}

// NewService creates a new workspace service. drawings may be nil.
func NewService(ds store.DocumentStore, goalsSvc *goals.Service, lifecycle *leadlifecycle.Service, drawings *mapeditor.RegionService, log logger.Logger) *Service {
	return &Service{
		ds:        ds,
		profiles:  store.NewProfiles(ds),
		obras:     store.NewObras(ds),
		regions:   store.NewRegions(ds),
		goals:     goalsSvc,
		lifecycle: lifecycle,
		drawings:  drawings,
		log:       log,
	}
}

// Bootstrap creates the profile and the current month's default goals in
// one batch the first time a user signs in. It reports whether it created them.
func (s *Service) Bootstrap(ctx context.Context, sess session.Session) (*models.User, bool, error) {
	profile, err := s.profiles.Get(ctx, sess.UserID, sess.UserID)
	if err == nil {
		return profile, false, nil
	}
	if !domain.IsNotFound(err) {
		return nil, false, err
	}

	name := sess.Name
	if name == "" {
		name = DefaultDisplayName
	}
	user := models.User{ID: sess.UserID, FullName: name, Email: sess.Email}
	month := s.goals.Month()

	profileOp, err := s.profiles.SetOp(sess.UserID, user)
	if err != nil {
		return nil, false, err
	}
	metasOp, err := store.NewMetas(s.ds).SetOp(month, models.NewMetas(month))
	if err != nil {
		return nil, false, err
	}
	if err := store.Commit(ctx, s.ds, sess.UserID, []store.WriteOp{profileOp, metasOp}); err != nil {
		s.log.Error("profile bootstrap failed", "user_id", sess.UserID, "error", err)
		return nil, false, err
	}

	s.log.Info("profile created", "user_id", sess.UserID, "month", month)
	return &user, true, nil
}

// Load fetches obras, regions and the current month's goals, then runs the
// aging sweep once. A failed sweep does not fail the load: the fetched obras
// are returned untouched and the notice explains what happened.
func (s *Service) Load(ctx context.Context, sess session.Session) (*Snapshot, error) {
	user, _, err := s.Bootstrap(ctx, sess)
	if err != nil {
		return nil, err
	}

	obras, err := s.obras.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	regions, err := s.regions.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	metas, err := s.goals.Current(ctx, sess)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{User: user, Obras: obras, Regions: regions, Metas: metas}

	swept, res, err := s.lifecycle.Sweep(ctx, sess, obras)
	if err != nil {
		snap.AgingNotice = domain.UserMessageFor(err)
		return snap, nil
	}
	snap.Obras = swept
	snap.AgingNotice = res.Notice
	snap.AgedIDs = res.AgedIDs
	return snap, nil
}

// HandleSessionEvent is subscribed to the session hub. Sign-in bootstraps
// the profile and sweeps; sign-out drops any region left half drawn.
func (s *Service) HandleSessionEvent(ctx context.Context, ev session.Event) {
	switch ev.Kind {
	case session.SignedIn:
		if _, _, err := s.Bootstrap(ctx, ev.Session); err != nil {
			return
		}
		if _, err := s.lifecycle.SweepUser(ctx, ev.Session.UserID); err != nil {
			s.log.Warn("sign-in sweep failed", "user_id", ev.Session.UserID, "error", err)
		}
	case session.SignedOut:
		if s.drawings == nil {
			return
		}
		if err := s.drawings.CancelDrawing(ctx, ev.Session); err != nil {
			s.log.Warn("dropping drawing on sign-out failed", "user_id", ev.Session.UserID, "error", err)
		}
	}
}
