// Package dashboard derives the month figures shown on the dashboard from
// the obras and the selected month's goals. Nothing here persists.
package dashboard

import (
	"strings"
	"time"

	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/shopspring/decimal"
)

// Attainment pairs a total with its goal.
type Attainment struct {
	Total   decimal.Decimal `json:"total"`
	Target  decimal.Decimal `json:"target"`
	Raw     float64         `json:"raw"`
	Clamped float64         `json:"clamped"`
}

// Attain computes total/target. A non-positive target yields 0. Raw is
// shown to the user; Clamped, in [0, 1], sizes the progress bar.
func Attain(total, target decimal.Decimal) Attainment {
	a := Attainment{Total: total, Target: target}
	if !target.IsPositive() {
		return a
	}
	a.Raw = total.Div(target).InexactFloat64()
	a.Clamped = clamp(a.Raw)
	return a
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// StageCount is the number of obras in one stage.
type StageCount struct {
	Stage models.Stage `json:"etapa"`
	Count int          `json:"count"`
}

// PartnerProposals summarizes every proposal made for a partner.
type PartnerProposals struct {
	Partner models.Partner  `json:"representada"`
	Count   int             `json:"count"`
	Value   decimal.Decimal `json:"value"`
}

// PartnerClosed is the month's closed value for a partner against its goal.
type PartnerClosed struct {
	Partner models.Partner `json:"representada"`
	Attainment
}

// Figures are the dashboard totals for one month.
type Figures struct {
	Month string `json:"month"`

	// Month-filtered
	Sales           Attainment      `json:"sales"`
	Visits          Attainment      `json:"visits"`
	Calls           Attainment      `json:"calls"`
	ClosedByPartner []PartnerClosed `json:"closedByPartner"`

	// Present snapshot over every obra
	Stages         []StageCount       `json:"stages"`
	UnknownStages  int                `json:"unknownStages,omitempty"`
	Proposals      []PartnerProposals `json:"proposals"`
	TotalObras     int                `json:"totalObras"`
	ProposalsTotal decimal.Decimal    `json:"proposalsTotal"`
}

func inMonth(date, month string) bool {
	return strings.HasPrefix(date, month+"-")
}

// Compute derives the figures for month from every obra and that month's goals.
// Closed value counts CLOSED obras registered in month. Visits and calls count
// DONE tasks due in month, whatever the obra's own month. Due dates are read
// on loc's calendar; nil means UTC.
func Compute(obras []models.Obra, metas models.Metas, month string, loc *time.Location) Figures {
	if loc == nil {
		loc = time.UTC
	}

	stageIndex := make(map[models.Stage]int)
	stages := make([]StageCount, 0, len(models.AllStages()))
	for i, s := range models.AllStages() {
		stageIndex[s] = i
		stages = append(stages, StageCount{Stage: s})
	}

	partners := models.AllPartners()
	proposals := make(map[models.Partner]*PartnerProposals, len(partners))
	closed := make(map[models.Partner]decimal.Decimal, len(partners))
	for _, p := range partners {
		proposals[p] = &PartnerProposals{Partner: p, Value: decimal.Zero}
		closed[p] = decimal.Zero
	}

	f := Figures{Month: month, TotalObras: len(obras), ProposalsTotal: decimal.Zero}
	closedTotal := decimal.Zero
	var visits, calls int

	for i := range obras {
		o := &obras[i]

		if idx, ok := stageIndex[o.Stage]; ok {
			stages[idx].Count++
		} else {
			f.UnknownStages++
		}

		for _, prop := range o.Proposals {
			if agg, ok := proposals[prop.Partner]; ok {
				agg.Count++
				agg.Value = agg.Value.Add(prop.Value)
			}
			f.ProposalsTotal = f.ProposalsTotal.Add(prop.Value)
		}

		if o.Stage == models.StageClosed && inMonth(o.RegisteredOn, month) {
			for _, prop := range o.Proposals {
				closedTotal = closedTotal.Add(prop.Value)
				if _, ok := closed[prop.Partner]; ok {
					closed[prop.Partner] = closed[prop.Partner].Add(prop.Value)
				}
			}
		}

		for _, task := range o.Tasks {
			if task.Status != models.TaskDone || task.Due.In(loc).Format(models.MonthLayout) != month {
				continue
			}
			switch task.Type {
			case models.TaskVisit:
				visits++
			case models.TaskCall:
				calls++
			case models.TaskEmail, models.TaskProposal, models.TaskFollowUp:
			}
		}
	}

	f.Stages = stages
	f.Sales = Attain(closedTotal, metas.TotalSales)
	f.Visits = Attain(decimal.NewFromInt(int64(visits)), decimal.NewFromInt(int64(metas.Visits)))
	f.Calls = Attain(decimal.NewFromInt(int64(calls)), decimal.NewFromInt(int64(metas.Calls)))

	f.Proposals = make([]PartnerProposals, 0, len(partners))
	f.ClosedByPartner = make([]PartnerClosed, 0, len(partners))
	for _, p := range partners {
		f.Proposals = append(f.Proposals, *proposals[p])
		f.ClosedByPartner = append(f.ClosedByPartner, PartnerClosed{
			Partner:    p,
			Attainment: Attain(closed[p], metas.PartnerTarget(p)),
		})
	}
	return f
}

// StageCountOf returns the count of s, 0 when absent.
func (f Figures) StageCountOf(s models.Stage) int {
	for _, sc := range f.Stages {
		if sc.Stage == s {
			return sc.Count
		}
	}
	return 0
}

// ProposalsOf returns the proposal summary of p.
func (f Figures) ProposalsOf(p models.Partner) PartnerProposals {
	for _, pp := range f.Proposals {
		if pp.Partner == p {
			return pp
		}
	}
	return PartnerProposals{Partner: p, Value: decimal.Zero}
}
