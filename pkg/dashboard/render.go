package dashboard

import (
	"math"

	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Mode selects how goal-paired figures are displayed.
type Mode string

const (
	ModeAbsolute Mode = "absolute"
	ModePercent  Mode = "percent"
)

// ParseMode reads a display mode; anything unknown is absolute.
func ParseMode(s string) Mode {
	if Mode(s) == ModePercent {
		return ModePercent
	}
	return ModeAbsolute
}

// GoalView is one goal-paired figure ready for display.
type GoalView struct {
	Label   string  `json:"label"`
	Display string  `json:"display"`
	Bar     float64 `json:"bar"`
	BarPct  int     `json:"barPct"`
}

// StageView is one row of the stage distribution.
type StageView struct {
	Stage models.Stage `json:"etapa"`
	Count int          `json:"count"`
	Color string       `json:"color"`
}

// ProposalView is one partner row of the proposal summary.
type ProposalView struct {
	Partner models.Partner `json:"representada"`
	Count   int            `json:"count"`
	Value   string         `json:"value"`
}

// View is the rendered dashboard.
type View struct {
	Month     string         `json:"month"`
	Mode      Mode           `json:"mode"`
	Sales     GoalView       `json:"sales"`
	Visits    GoalView       `json:"visits"`
	Calls     GoalView       `json:"calls"`
	ByPartner []GoalView     `json:"byPartner"`
	Stages    []StageView    `json:"stages"`
	Proposals []ProposalView `json:"proposals"`
	Figures   Figures        `json:"figures"`
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// FormatMoney renders v as Brazilian reais.
func FormatMoney(v decimal.Decimal) string {
	return "R$ " + printer.Sprintf("%.2f", v.InexactFloat64())
}

// FormatPercent renders a ratio as a whole percentage, unclamped.
func FormatPercent(ratio float64) string {
	return printer.Sprintf("%.0f%%", ratio*100)
}

func formatCount(v decimal.Decimal) string {
	return printer.Sprintf("%d", v.IntPart())
}

func goalView(label string, a Attainment, mode Mode, format func(decimal.Decimal) string) GoalView {
	v := GoalView{
		Label:  label,
		Bar:    a.Clamped,
		BarPct: int(math.Round(a.Clamped * 100)),
	}
	if mode == ModePercent {
		v.Display = FormatPercent(a.Raw)
	} else {
		v.Display = format(a.Total) + " / " + format(a.Target)
	}
	return v
}

// Render formats f. The mode changes only the strings, never the totals.
func Render(f Figures, mode Mode) View {
	v := View{
		Month:   f.Month,
		Mode:    mode,
		Sales:   goalView("Vendas", f.Sales, mode, FormatMoney),
		Visits:  goalView("Visitas", f.Visits, mode, formatCount),
		Calls:   goalView("Ligações", f.Calls, mode, formatCount),
		Figures: f,
	}

	v.ByPartner = make([]GoalView, 0, len(f.ClosedByPartner))
	for _, pc := range f.ClosedByPartner {
		v.ByPartner = append(v.ByPartner, goalView(string(pc.Partner), pc.Attainment, mode, FormatMoney))
	}

	v.Stages = make([]StageView, 0, len(f.Stages))
	for _, sc := range f.Stages {
		v.Stages = append(v.Stages, StageView{Stage: sc.Stage, Count: sc.Count, Color: sc.Stage.PinColor()})
	}

	v.Proposals = make([]ProposalView, 0, len(f.Proposals))
	for _, p := range f.Proposals {
		v.Proposals = append(v.Proposals, ProposalView{Partner: p.Partner, Count: p.Count, Value: FormatMoney(p.Value)})
	}
	return v
}
