// Package leadlifecycle demotes stale obras to the inactive stage and
// handles user-driven stage changes.
package leadlifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
)

// DefaultThreshold is how long an open obra may go without updates.
const DefaultThreshold = 90 * 24 * time.Hour

// Audit task written on every aged obra.
const (
	AuditTaskTitle       = "Verificar obra inativa"
	AuditTaskDescription = "Obra marcada como inativa automaticamente após 90 dias sem atualização."
)

// Plan returns the indices of leads that age out at now, in input order,
// and separately the indices whose stage is not a known value. Terminal
// stages and leads without LastUpdated never age.
func Plan(leads []models.Obra, now time.Time, threshold time.Duration) (aged []int, unknown []int) {
	for i := range leads {
		terminal, err := leads[i].Stage.IsTerminal()
		if err != nil {
			unknown = append(unknown, i)
			continue
		}
		if terminal || leads[i].LastUpdated == nil {
			continue
		}
		if now.Sub(*leads[i].LastUpdated) > threshold {
			aged = append(aged, i)
		}
	}
	return aged, unknown
}

// Age returns a copy of lead moved to inactive with the audit task appended.
func Age(lead models.Obra, now time.Time) models.Obra {
	out := lead.Clone()
	out.Stage = models.StageInactive
	out.Touch(now)
	out.Tasks = append(out.Tasks, models.Tarefa{
		ID:          uuid.NewString(),
		ObraID:      lead.ID,
		Title:       AuditTaskTitle,
		Description: AuditTaskDescription,
		Due:         now.UTC(),
		Type:        models.TaskCall,
		Status:      models.TaskPending,
	})
	return out
}

// SweepResult reports what one sweep changed.
type SweepResult struct {
	Aged    int      `json:"aged"`
	AgedIDs []string `json:"agedIds,omitempty"`
	Notice  string   `json:"notice,omitempty"`
}

// Service applies the aging rule through the document store.
type Service struct {
	ds        store.DocumentStore
	obras     *store.Repository[models.Obra]
	threshold time.Duration
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a new lead lifecycle service. A non-positive threshold
// means DefaultThreshold.
func NewService(ds store.DocumentStore, threshold time.Duration, m *metrics.Metrics, log logger.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		ds:        ds,
		obras:     store.NewObras(ds),
		threshold: threshold,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Sweep ages stale leads. All aged leads are written in one atomic batch;
// the returned slice reflects the change only if the batch committed. On
// failure the returned slice is leads itself, unchanged. leads is never
// mutated.
func (s *Service) Sweep(ctx context.Context, sess session.Session, leads []models.Obra) ([]models.Obra, SweepResult, error) {
	now := s.now()
	aged, unknown := Plan(leads, now, s.threshold)
	for _, i := range unknown {
		s.log.Warn("obra with unknown stage skipped by aging sweep",
			"user_id", sess.UserID, "obra_id", leads[i].ID, "stage", string(leads[i].Stage))
	}
	if len(aged) == 0 {
		s.metrics.RecordSweep(0, nil)
		return leads, SweepResult{}, nil
	}

	updated := make(map[int]models.Obra, len(aged))
	ops := make([]store.WriteOp, 0, len(aged))
	for _, i := range aged {
		next := Age(leads[i], now)
		op, err := s.obras.SetOp(next.ID, next)
		if err != nil {
			return leads, SweepResult{}, err
		}
		updated[i] = next
		ops = append(ops, op)
	}

	if err := store.Commit(ctx, s.ds, sess.UserID, ops); err != nil {
		s.metrics.RecordSweep(0, err)
		s.log.Error("aging sweep commit failed", "user_id", sess.UserID, "candidates", len(aged), "error", err)
		return leads, SweepResult{}, err
	}

	out := make([]models.Obra, len(leads))
	copy(out, leads)
	ids := make([]string, 0, len(aged))
	for _, i := range aged {
		out[i] = updated[i]
		ids = append(ids, out[i].ID)
	}

	s.metrics.RecordSweep(len(aged), nil)
	s.log.Info("aging sweep applied", "user_id", sess.UserID, "aged", len(aged))

	return out, SweepResult{Aged: len(aged), AgedIDs: ids, Notice: Notice(len(aged))}, nil
}

// Notice is the one-time advisory shown after a sweep aged n leads.
func Notice(n int) string {
	if n == 1 {
		return "1 obra foi marcada como inativa por estar há mais de 90 dias sem atualização."
	}
	return fmt.Sprintf("%d obras foram marcadas como inativas por estarem há mais de 90 dias sem atualização.", n)
}

// SweepUser loads every obra of userID and sweeps them.
func (s *Service) SweepUser(ctx context.Context, userID string) (SweepResult, error) {
	leads, err := s.obras.List(ctx, userID)
	if err != nil {
		return SweepResult{}, err
	}
	_, res, err := s.Sweep(ctx, session.Session{UserID: userID}, leads)
	return res, err
}

// ChangeStage moves an obra to any stage. Transitions are free-form; the
// move refreshes LastUpdated, so reopening a terminal obra restarts its clock.
func (s *Service) ChangeStage(ctx context.Context, sess session.Session, obraID string, stage models.Stage) (*models.Obra, error) {
	if _, err := stage.IsTerminal(); err != nil {
		return nil, domain.NewValidationError("Etapa inválida.")
	}

	obra, err := s.obras.Get(ctx, sess.UserID, obraID)
	if err != nil {
		return nil, err
	}

	obra.Stage = stage
	obra.Touch(s.now())
	if err := s.obras.Set(ctx, sess.UserID, obra.ID, *obra); err != nil {
		return nil, err
	}
	return obra, nil
}
