// Package obras manages the obras (leads) and their contacts, tasks,
// proposals and photos. Obras are never hard-deleted; a lost or abandoned
// obra moves to a terminal stage instead.
package obras

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/blob"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/phone"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
)

// Service handles obra operations.
type Service struct {
	obras   *store.Repository[models.Obra]
	blobs   blob.Store
	phones  *phone.Normalizer
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time
}

// NewService creates a new obra service.
func NewService(ds store.DocumentStore, blobs blob.Store, phones *phone.Normalizer, m *metrics.Metrics, log logger.Logger) *Service {
	return &Service{
		obras:   store.NewObras(ds),
		blobs:   blobs,
		phones:  phones,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func parseStage(value string) (models.Stage, error) {
	if value == "" {
		return models.StageLead, nil
	}
	s, err := models.ParseStage(value)
	if err != nil {
		return "", domain.NewValidationError("Etapa inválida.")
	}
	return s, nil
}

func parsePhase(value string) (models.Phase, error) {
	if value == "" {
		return models.PhaseProspection, nil
	}
	p, err := models.ParsePhase(value)
	if err != nil {
		return "", domain.NewValidationError("Fase da obra inválida.")
	}
	return p, nil
}

func parseDate(value string) (string, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return "", domain.NewValidationError("Data de cadastro inválida. Use o formato AAAA-MM-DD.")
	}
	return t.Format(models.DateLayout), nil
}

// Create stores a new obra. Stage defaults to LEAD and the registration
// date to today.
func (s *Service) Create(ctx context.Context, sess session.Session, req CreateObraRequest) (*models.Obra, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.NewValidationError("O nome da obra é obrigatório.")
	}
	stage, err := parseStage(req.Stage)
	if err != nil {
		return nil, err
	}
	phase, err := parsePhase(req.Phase)
	if err != nil {
		return nil, err
	}

	now := s.now()
	registered := now.Format(models.DateLayout)
	if req.RegisteredOn != "" {
		if registered, err = parseDate(req.RegisteredOn); err != nil {
			return nil, err
		}
	}

	obra := models.Obra{
		UserID:       sess.UserID,
		Name:         name,
		Builder:      strings.TrimSpace(req.Builder),
		Lat:          req.Lat,
		Lng:          req.Lng,
		Stage:        stage,
		Phase:        phase,
		RegisteredOn: registered,
		Contacts:     []models.Contato{},
		Tasks:        []models.Tarefa{},
		Proposals:    []models.Proposta{},
		Photos:       []models.Foto{},
	}
	obra.Touch(now)

	if err := s.obras.Add(ctx, sess.UserID, &obra); err != nil {
		return nil, err
	}
	s.log.Info("obra created", "user_id", sess.UserID, "obra_id", obra.ID)
	return &obra, nil
}

// Get loads one obra.
func (s *Service) Get(ctx context.Context, sess session.Session, id string) (*models.Obra, error) {
	return s.obras.Get(ctx, sess.UserID, id)
}

// List returns the user's obras matching filter, in insertion order.
func (s *Service) List(ctx context.Context, sess session.Session, filter Filter) ([]models.Obra, error) {
	var stage models.Stage
	if filter.Stage != "" {
		st, err := models.ParseStage(filter.Stage)
		if err != nil {
			return nil, domain.NewValidationError("Etapa inválida.")
		}
		stage = st
	}
	var phase models.Phase
	if filter.Phase != "" {
		ph, err := models.ParsePhase(filter.Phase)
		if err != nil {
			return nil, domain.NewValidationError("Fase da obra inválida.")
		}
		phase = ph
	}

	all, err := s.obras.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	query := fold(filter.Query)
	out := make([]models.Obra, 0, len(all))
	for _, o := range all {
		if stage != "" && o.Stage != stage {
			continue
		}
		if phase != "" && o.Phase != phase {
			continue
		}
		if query != "" && !strings.Contains(fold(o.Name+" "+o.Builder), query) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// mutate loads the obra, applies fn to a copy, refreshes LastUpdated and
// writes the copy back.
func (s *Service) mutate(ctx context.Context, sess session.Session, id string, fn func(o *models.Obra) error) (*models.Obra, error) {
	current, err := s.obras.Get(ctx, sess.UserID, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.Touch(s.now())
	if err := s.obras.Set(ctx, sess.UserID, id, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Update edits the obra fields present in req.
func (s *Service) Update(ctx context.Context, sess session.Session, id string, req UpdateObraRequest) (*models.Obra, error) {
	return s.mutate(ctx, sess, id, func(o *models.Obra) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.NewValidationError("O nome da obra é obrigatório.")
			}
			o.Name = name
		}
		if req.Builder != nil {
			o.Builder = strings.TrimSpace(*req.Builder)
		}
		if req.Lat != nil {
			o.Lat = *req.Lat
		}
		if req.Lng != nil {
			o.Lng = *req.Lng
		}
		if req.Stage != nil {
			st, err := models.ParseStage(*req.Stage)
			if err != nil {
				return domain.NewValidationError("Etapa inválida.")
			}
			o.Stage = st
		}
		if req.Phase != nil {
			ph, err := models.ParsePhase(*req.Phase)
			if err != nil {
				return domain.NewValidationError("Fase da obra inválida.")
			}
			o.Phase = ph
		}
		if req.RegisteredOn != nil {
			date, err := parseDate(*req.RegisteredOn)
			if err != nil {
				return err
			}
			o.RegisteredOn = date
		}
		return nil
	})
}

// AddContact appends a contact. The phone is stored in E.164.
func (s *Service) AddContact(ctx context.Context, sess session.Session, obraID string, req ContactRequest) (*models.Obra, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.NewValidationError("O nome do contato é obrigatório.")
	}
	phoneNumber, err := s.phones.Normalize(req.Phone)
	if err != nil {
		return nil, domain.NewValidationError("Telefone inválido.")
	}

	return s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		o.Contacts = append(o.Contacts, models.Contato{
			ID:    uuid.NewString(),
			Name:  name,
			Phone: phoneNumber,
			Email: strings.TrimSpace(req.Email),
			Role:  strings.TrimSpace(req.Role),
		})
		return nil
	})
}

// RemoveContact deletes a contact.
func (s *Service) RemoveContact(ctx context.Context, sess session.Session, obraID, contactID string) (*models.Obra, error) {
	return s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		for i, c := range o.Contacts {
			if c.ID == contactID {
				o.Contacts = append(o.Contacts[:i], o.Contacts[i+1:]...)
				return nil
			}
		}
		return domain.NewNotFoundError("contato")
	})
}

// AddTask schedules a pending task.
func (s *Service) AddTask(ctx context.Context, sess session.Session, obraID string, req TaskRequest) (*models.Obra, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.NewValidationError("O título da tarefa é obrigatório.")
	}
	taskType, err := models.ParseTaskType(req.Type)
	if err != nil {
		return nil, domain.NewValidationError("Tipo de tarefa inválido.")
	}
	if req.Due.IsZero() {
		return nil, domain.NewValidationError("A data da tarefa é obrigatória.")
	}

	return s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		o.Tasks = append(o.Tasks, models.Tarefa{
			ID:          uuid.NewString(),
			ObraID:      o.ID,
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			Due:         req.Due.UTC(),
			Type:        taskType,
			Status:      models.TaskPending,
		})
		return nil
	})
}

func (s *Service) setTaskStatus(ctx context.Context, sess session.Session, obraID, taskID string, status models.TaskStatus) (*models.Obra, error) {
	return s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		for i := range o.Tasks {
			if o.Tasks[i].ID == taskID {
				o.Tasks[i].Status = status
				return nil
			}
		}
		return domain.NewNotFoundError("tarefa")
	})
}

// CompleteTask marks a task done.
func (s *Service) CompleteTask(ctx context.Context, sess session.Session, obraID, taskID string) (*models.Obra, error) {
	return s.setTaskStatus(ctx, sess, obraID, taskID, models.TaskDone)
}

// ReopenTask marks a task pending again.
func (s *Service) ReopenTask(ctx context.Context, sess session.Session, obraID, taskID string) (*models.Obra, error) {
	return s.setTaskStatus(ctx, sess, obraID, taskID, models.TaskPending)
}

// RemoveTask deletes a task.
func (s *Service) RemoveTask(ctx context.Context, sess session.Session, obraID, taskID string) (*models.Obra, error) {
	return s.mutate(ctx, sess, obraID, func(o *models.Obra) error {
		for i, t := range o.Tasks {
			if t.ID == taskID {
				o.Tasks = append(o.Tasks[:i], o.Tasks[i+1:]...)
				return nil
			}
		}
		return domain.NewNotFoundError("tarefa")
	})
}

// PendingTask is a pending task with the obra it belongs to.
type PendingTask struct {
	models.Tarefa
	ObraName string `json:"obraNome"`
}

// PendingTasks lists every pending task of the user, earliest due first.
func (s *Service) PendingTasks(ctx context.Context, sess session.Session) ([]PendingTask, error) {
	all, err := s.obras.List(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	var out []PendingTask
	for _, o := range all {
		for _, t := range o.Tasks {
			if t.Status == models.TaskPending {
				out = append(out, PendingTask{Tarefa: t, ObraName: o.Name})
			}
		}
	}
	sortByDue(out)
	return out, nil
}
