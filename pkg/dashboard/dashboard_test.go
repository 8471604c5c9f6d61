package dashboard

import (
	"testing"
	"time"

	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func proposal(p models.Partner, value int64) models.Proposta {
	return models.Proposta{Partner: p, Value: d(value)}
}

func doneTask(tt models.TaskType, due time.Time) models.Tarefa {
	return models.Tarefa{Type: tt, Status: models.TaskDone, Due: due}
}

func march(day int) time.Time { return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC) }
func april(day int) time.Time { return time.Date(2024, 4, day, 10, 0, 0, 0, time.UTC) }

func sampleObras() []models.Obra {
	return []models.Obra{
		{
			ID: "1", Stage: models.StageClosed, RegisteredOn: "2024-03-05",
			Proposals: []models.Proposta{proposal(models.PartnerRoca, 1000), proposal(models.PartnerDM2, 500)},
			Tasks: []models.Tarefa{
				doneTask(models.TaskVisit, march(6)),
				doneTask(models.TaskCall, april(2)),
				{Type: models.TaskVisit, Status: models.TaskPending, Due: march(7)},
			},
		},
		{
			ID: "2", Stage: models.StageClosed, RegisteredOn: "2024-04-10",
			Proposals: []models.Proposta{proposal(models.PartnerRoca, 2000)},
			Tasks:     []models.Tarefa{doneTask(models.TaskVisit, april(11)), doneTask(models.TaskCall, march(28))},
		},
		{
			ID: "3", Stage: models.StageNegotiation, RegisteredOn: "2024-03-15",
			Proposals: []models.Proposta{proposal(models.PartnerMGM, 700)},
			Tasks:     []models.Tarefa{doneTask(models.TaskEmail, march(16))},
		},
		{ID: "4", Stage: models.StageLead, RegisteredOn: "2024-01-02"},
	}
}

func TestAttain(t *testing.T) {
	a := Attain(d(150), d(100))
	assert.Equal(t, 1.5, a.Raw)
	assert.Equal(t, 1.0, a.Clamped)

	a = Attain(d(25), d(100))
	assert.Equal(t, 0.25, a.Raw)
	assert.Equal(t, 0.25, a.Clamped)

	a = Attain(d(25), decimal.Zero)
	assert.Equal(t, 0.0, a.Raw)
	assert.Equal(t, 0.0, a.Clamped)

	a = Attain(d(25), d(-10))
	assert.Equal(t, 0.0, a.Raw)
}

func TestCompute(t *testing.T) {
	metas := models.NewMetas("2024-03")
	metas.TotalSales = d(3000)
	metas.Visits = 2
	metas.Calls = 4
	metas.ByPartner[models.PartnerRoca] = d(500)

	f := Compute(sampleObras(), metas, "2024-03", time.UTC)

	assert.True(t, f.Sales.Total.Equal(d(1500)), "only CLOSED obras registered in March")
	assert.Equal(t, 0.5, f.Sales.Raw)
	assert.True(t, f.Visits.Total.Equal(d(1)), "pending visit ignored")
	assert.True(t, f.Calls.Total.Equal(d(1)), "call due in March on an April obra counts")

	assert.Equal(t, 2, f.StageCountOf(models.StageClosed))
	assert.Equal(t, 1, f.StageCountOf(models.StageNegotiation))
	assert.Equal(t, 0, f.StageCountOf(models.StageInactive))
	assert.Len(t, f.Stages, len(models.AllStages()))

	roca := f.ProposalsOf(models.PartnerRoca)
	assert.Equal(t, 2, roca.Count)
	assert.True(t, roca.Value.Equal(d(3000)))
	assert.True(t, f.ProposalsTotal.Equal(d(4200)))

	require.Len(t, f.ClosedByPartner, len(models.AllPartners()))
	for _, pc := range f.ClosedByPartner {
		if pc.Partner == models.PartnerRoca {
			assert.True(t, pc.Total.Equal(d(1000)))
			assert.Equal(t, 2.0, pc.Raw)
			assert.Equal(t, 1.0, pc.Clamped)
		}
	}
}

func TestCompute_UnknownStageIsCountedApart(t *testing.T) {
	obras := []models.Obra{{ID: "x", Stage: models.Stage("Arquivado")}}
	f := Compute(obras, models.NewMetas("2024-03"), "2024-03", time.UTC)
	assert.Equal(t, 1, f.UnknownStages)
	for _, sc := range f.Stages {
		assert.Equal(t, 0, sc.Count)
	}
}

func TestCompute_MonthIsolation(t *testing.T) {
	obras := sampleObras()
	mar := Compute(obras, models.NewMetas("2024-03"), "2024-03", time.UTC)
	apr := Compute(obras, models.NewMetas("2024-04"), "2024-04", time.UTC)

	assert.False(t, mar.Sales.Total.Equal(apr.Sales.Total))
	assert.True(t, apr.Sales.Total.Equal(d(2000)))
	assert.True(t, apr.Visits.Total.Equal(d(1)))
	assert.True(t, apr.Calls.Total.Equal(d(1)))

	assert.Equal(t, mar.Stages, apr.Stages)
	assert.Equal(t, mar.Proposals, apr.Proposals)
	assert.True(t, mar.ProposalsTotal.Equal(apr.ProposalsTotal))
}

func TestCompute_MonthFollowsBusinessTimezone(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	// 22:00 on March 31st in Brazil is already April 1st in UTC.
	due := time.Date(2024, 3, 31, 22, 0, 0, 0, brt).UTC()
	obras := []models.Obra{{
		ID: "1", Stage: models.StageVisitScheduled,
		Tasks: []models.Tarefa{doneTask(models.TaskVisit, due), doneTask(models.TaskCall, due)},
	}}

	t.Run("Local month", func(t *testing.T) {
		mar := Compute(obras, models.NewMetas("2024-03"), "2024-03", brt)
		apr := Compute(obras, models.NewMetas("2024-04"), "2024-04", brt)
		assert.True(t, mar.Visits.Total.Equal(d(1)))
		assert.True(t, mar.Calls.Total.Equal(d(1)))
		assert.True(t, apr.Visits.Total.IsZero())
		assert.True(t, apr.Calls.Total.IsZero())
	})

	t.Run("Nil location reads UTC", func(t *testing.T) {
		apr := Compute(obras, models.NewMetas("2024-04"), "2024-04", nil)
		assert.True(t, apr.Visits.Total.Equal(d(1)))
	})
}

func TestRender_GoalAttainmentClamp(t *testing.T) {
	obras := []models.Obra{{
		ID: "1", Stage: models.StageClosed, RegisteredOn: "2024-03-01",
		Proposals: []models.Proposta{proposal(models.PartnerDM2, 150)},
	}}
	metas := models.NewMetas("2024-03")
	metas.TotalSales = d(100)

	f := Compute(obras, metas, "2024-03", time.UTC)

	t.Run("Percent mode shows the raw value", func(t *testing.T) {
		v := Render(f, ModePercent)
		assert.Equal(t, "150%", v.Sales.Display)
		assert.Equal(t, 1.0, v.Sales.Bar)
		assert.Equal(t, 100, v.Sales.BarPct)
	})

	t.Run("Absolute mode shows money", func(t *testing.T) {
		v := Render(f, ModeAbsolute)
		assert.Contains(t, v.Sales.Display, "R$ 150")
		assert.Equal(t, 100, v.Sales.BarPct)
	})

	t.Run("Toggling never changes totals", func(t *testing.T) {
		a := Render(f, ModeAbsolute)
		p := Render(f, ModePercent)
		assert.Equal(t, a.Figures, p.Figures)
		assert.Equal(t, a.Stages, p.Stages)
	})
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModePercent, ParseMode("percent"))
	assert.Equal(t, ModeAbsolute, ParseMode("absolute"))
	assert.Equal(t, ModeAbsolute, ParseMode(""))
}
