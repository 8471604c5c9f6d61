// Package testdata generates realistic obras for tests and local seeding.
package testdata

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/shopspring/decimal"
)

// ObraGeneratorConfig configures obra generation parameters
type ObraGeneratorConfig struct {
	UserID         string
	Count          int
	City           string
	Stages         []models.Stage // empty means any stage
	ContactChance  float64        // 0.0-1.0
	TaskChance     float64
	ProposalChance float64
	MaxAge         time.Duration // bounds how far back LastUpdated goes
	Now            time.Time
}

// CityCenters maps cities to a coordinate near their center
var CityCenters = map[string]models.LatLng{
	"São Paulo":      {Lat: -23.5505, Lng: -46.6333},
	"Campinas":       {Lat: -22.9056, Lng: -47.0608},
	"Rio de Janeiro": {Lat: -22.9068, Lng: -43.1729},
	"Belo Horizonte": {Lat: -19.9167, Lng: -43.9345},
	"Curitiba":       {Lat: -25.4284, Lng: -49.2733},
}

var builderSuffixes = []string{"Construtora", "Engenharia", "Incorporadora", "Empreendimentos", "Obras"}

var obraKinds = []string{"Residencial", "Edifício", "Condomínio", "Torre", "Galpão", "Loja"}

var contactRoles = []string{"Engenheiro", "Mestre de obras", "Comprador", "Arquiteto", "Proprietário"}

// DefaultConfig returns a config producing obras around São Paulo.
func DefaultConfig(userID string, count int) ObraGeneratorConfig {
	return ObraGeneratorConfig{
		UserID:         userID,
		Count:          count,
		City:           "São Paulo",
		ContactChance:  0.7,
		TaskChance:     0.5,
		ProposalChance: 0.3,
		MaxAge:         120 * 24 * time.Hour,
		Now:            time.Now(),
	}
}

// GenerateBuilderName returns a plausible construction company name.
func GenerateBuilderName() string {
	return fmt.Sprintf("%s %s", gofakeit.LastName(), builderSuffixes[rand.Intn(len(builderSuffixes))])
}

func jitter(center models.LatLng) models.LatLng {
	// about 5km around the center
	return models.LatLng{
		Lat: center.Lat + (rand.Float64()-0.5)*0.09,
		Lng: center.Lng + (rand.Float64()-0.5)*0.09,
	}
}

func pickStage(stages []models.Stage) models.Stage {
	if len(stages) == 0 {
		stages = models.AllStages()
	}
	return stages[rand.Intn(len(stages))]
}

// GenerateObra creates a single obra with realistic data
func GenerateObra(config ObraGeneratorConfig) models.Obra {
	center, ok := CityCenters[config.City]
	if !ok {
		center = CityCenters["São Paulo"]
	}
	pos := jitter(center)
	now := config.Now
	if now.IsZero() {
		now = time.Now()
	}

	var age time.Duration
	if config.MaxAge > 0 {
		age = time.Duration(rand.Int63n(int64(config.MaxAge)))
	}
	updated := now.Add(-age).UTC()
	phases := models.AllPhases()

	o := models.Obra{
		ID:           uuid.NewString(),
		UserID:       config.UserID,
		Name:         fmt.Sprintf("%s %s", obraKinds[rand.Intn(len(obraKinds))], gofakeit.StreetName()),
		Builder:      GenerateBuilderName(),
		Lat:          pos.Lat,
		Lng:          pos.Lng,
		Stage:        pickStage(config.Stages),
		Phase:        phases[rand.Intn(len(phases))],
		RegisteredOn: updated.Format(models.DateLayout),
		LastUpdated:  &updated,
		Contacts:     []models.Contato{},
		Tasks:        []models.Tarefa{},
		Proposals:    []models.Proposta{},
		Photos:       []models.Foto{},
	}

	if rand.Float64() < config.ContactChance {
		o.Contacts = append(o.Contacts, models.Contato{
			ID:    uuid.NewString(),
			Name:  gofakeit.Name(),
			Phone: fmt.Sprintf("+5511%d", 900000000+rand.Intn(99999999)),
			Email: gofakeit.Email(),
			Role:  contactRoles[rand.Intn(len(contactRoles))],
		})
	}

	if rand.Float64() < config.TaskChance {
		types := models.AllTaskTypes()
		o.Tasks = append(o.Tasks, models.Tarefa{
			ID:          uuid.NewString(),
			ObraID:      o.ID,
			Title:       gofakeit.Sentence(3),
			Description: gofakeit.Sentence(8),
			Due:         now.Add(time.Duration(rand.Intn(14)) * 24 * time.Hour).UTC(),
			Type:        types[rand.Intn(len(types))],
			Status:      models.TaskPending,
		})
	}

	if rand.Float64() < config.ProposalChance {
		partners := models.AllPartners()
		p := partners[rand.Intn(len(partners))]
		products := models.PartnerProducts[p]
		o.Proposals = append(o.Proposals, models.Proposta{
			ID:       uuid.NewString(),
			Partner:  p,
			Products: products[:1+rand.Intn(len(products))],
			Value:    decimal.NewFromInt(int64(1000 + rand.Intn(99000))),
			Date:     updated,
		})
	}

	return o
}

// GenerateObras creates multiple obras with the given config
func GenerateObras(config ObraGeneratorConfig) []models.Obra {
	obras := make([]models.Obra, config.Count)
	for i := 0; i < config.Count; i++ {
		obras[i] = GenerateObra(config)
	}
	return obras
}

// BulkInsertObras writes obras in batches of batchSize, each batch atomically.
func BulkInsertObras(ctx context.Context, ds store.DocumentStore, userID string, obras []models.Obra, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(obras)
	}
	repo := store.NewObras(ds)
	for i := 0; i < len(obras); i += batchSize {
		end := i + batchSize
		if end > len(obras) {
			end = len(obras)
		}

		ops := make([]store.WriteOp, 0, end-i)
		for _, o := range obras[i:end] {
			op, err := repo.SetOp(o.ID, o)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		if err := store.Commit(ctx, ds, userID, ops); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}
