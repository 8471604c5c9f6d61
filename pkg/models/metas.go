package models

import "github.com/shopspring/decimal"

// MonthLayout is the layout of a Metas identifier.
const MonthLayout = "2006-01"

// Metas holds the targets of one calendar month.
type Metas struct {
	ID         string                      `json:"id"`
	TotalSales decimal.Decimal             `json:"vendasTotais"`
	Visits     int                         `json:"visitas"`
	Calls      int                         `json:"ligacoes"`
	ByPartner  map[Partner]decimal.Decimal `json:"porRepresentada"`
}

// NewMetas returns a zero-target record for month.
func NewMetas(month string) Metas {
	return Metas{
		ID:         month,
		TotalSales: decimal.Zero,
		ByPartner:  map[Partner]decimal.Decimal{},
	}
}

// PartnerTarget returns the sales target of a partner, zero when unset.
func (m Metas) PartnerTarget(p Partner) decimal.Decimal {
	if v, ok := m.ByPartner[p]; ok {
		return v
	}
	return decimal.Zero
}
