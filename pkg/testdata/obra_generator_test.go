package testdata

import (
	"context"
	"testing"
	"time"

	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/jordanlanch/obramap/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateObra(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	cfg := DefaultConfig("user-1", 1)
	cfg.Now = now
	cfg.Stages = []models.Stage{models.StageLead}
	cfg.ContactChance = 1
	cfg.TaskChance = 1
	cfg.ProposalChance = 1

	o := GenerateObra(cfg)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, models.StageLead, o.Stage)
	assert.InDelta(t, -23.5505, o.Lat, 0.05)
	assert.InDelta(t, -46.6333, o.Lng, 0.05)
	require.NotNil(t, o.LastUpdated)
	assert.False(t, o.LastUpdated.After(now))
	assert.Len(t, o.Contacts, 1)
	require.Len(t, o.Tasks, 1)
	assert.Equal(t, o.ID, o.Tasks[0].ObraID)
	require.Len(t, o.Proposals, 1)
	for _, product := range o.Proposals[0].Products {
		assert.True(t, o.Proposals[0].Partner.Sells(product))
	}
}

func TestBulkInsertObras(t *testing.T) {
	ds := storetest.NewSQLite(t)
	ctx := context.Background()

	obras := GenerateObras(DefaultConfig("user-1", 7))
	require.NoError(t, BulkInsertObras(ctx, ds, "user-1", obras, 3))

	stored, err := store.NewObras(ds).List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, stored, 7)
}
