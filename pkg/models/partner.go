package models

import "fmt"

// Partner is a represented brand ("representada") whose products are proposed.
type Partner string

const (
	PartnerDM2        Partner = "DM2"
	PartnerAlumbra    Partner = "Alumbra"
	PartnerMGM        Partner = "MGM"
	PartnerRoca       Partner = "Roca"
	PartnerConstrucom Partner = "Construcom"
)

// AllPartners returns every partner in display order.
func AllPartners() []Partner {
	return []Partner{PartnerDM2, PartnerAlumbra, PartnerMGM, PartnerRoca, PartnerConstrucom}
}

// PartnerProducts is the product catalogue of each partner.
var PartnerProducts = map[Partner][]string{
	PartnerDM2:        {"Porta Corta-Fogo"},
	PartnerAlumbra:    {"Disjuntores", "Acabamentos Elétricos"},
	PartnerMGM:        {"Esquadrias de Alumínio", "Esquadrias de Madeira"},
	PartnerRoca:       {"Louças e Metais", "Porcelanato"},
	PartnerConstrucom: {"Bloco de Concreto", "Piso Intertravado", "Argamassas"},
}

// ParsePartner converts a wire value into a Partner.
func ParsePartner(value string) (Partner, error) {
	for _, p := range AllPartners() {
		if string(p) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown partner %q", value)
}

// Sells reports whether product belongs to the partner's catalogue.
func (p Partner) Sells(product string) bool {
	for _, name := range PartnerProducts[p] {
		if name == product {
			return true
		}
	}
	return false
}
