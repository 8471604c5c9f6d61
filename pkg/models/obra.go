package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of Obra.RegisteredOn.
const DateLayout = "2006-01-02"

// Obra is a construction-site sales opportunity tracked on the map.
type Obra struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Name         string     `json:"nome"`
	Builder      string     `json:"construtora"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	Stage        Stage      `json:"etapa"`
	Phase        Phase      `json:"fase"`
	RegisteredOn string     `json:"dataCadastro"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	Contacts     []Contato  `json:"contatos"`
	Tasks        []Tarefa   `json:"tarefas"`
	Proposals    []Proposta `json:"propostas"`
	Photos       []Foto     `json:"fotos"`
}

// Position returns the obra coordinate.
func (o *Obra) Position() LatLng {
	return LatLng{Lat: o.Lat, Lng: o.Lng}
}

// Touch refreshes LastUpdated. Every mutation of the obra or of its
// sub-collections goes through here.
func (o *Obra) Touch(now time.Time) {
	t := now.UTC()
	o.LastUpdated = &t
}

// Clone returns a deep copy so callers can stage changes without
// mutating the original.
func (o *Obra) Clone() Obra {
	c := *o
	if o.LastUpdated != nil {
		t := *o.LastUpdated
		c.LastUpdated = &t
	}
	c.Contacts = append([]Contato(nil), o.Contacts...)
	c.Tasks = append([]Tarefa(nil), o.Tasks...)
	c.Proposals = make([]Proposta, len(o.Proposals))
	for i, p := range o.Proposals {
		c.Proposals[i] = p.clone()
	}
	c.Photos = append([]Foto(nil), o.Photos...)
	return c
}

// Contato is a person at the construction site.
type Contato struct {
	ID    string `json:"id"`
	Name  string `json:"nome"`
	Phone string `json:"telefone"`
	Email string `json:"email"`
	Role  string `json:"cargo"`
}

// Tarefa is a scheduled activity on an obra.
type Tarefa struct {
	ID          string     `json:"id"`
	ObraID      string     `json:"obraId"`
	Title       string     `json:"titulo"`
	Description string     `json:"descricao"`
	Due         time.Time  `json:"data"`
	Type        TaskType   `json:"tipo"`
	Status      TaskStatus `json:"status"`
}

// Proposta is a commercial proposal for one partner's products.
type Proposta struct {
	ID         string          `json:"id"`
	Partner    Partner         `json:"representada"`
	Products   []string        `json:"produtos"`
	Value      decimal.Decimal `json:"valor"`
	Date       time.Time       `json:"data"`
	Attachment *Foto           `json:"anexo,omitempty"`
}

func (p Proposta) clone() Proposta {
	c := p
	c.Products = append([]string(nil), p.Products...)
	if p.Attachment != nil {
		a := *p.Attachment
		c.Attachment = &a
	}
	return c
}

// Foto is a durable reference to a stored file.
type Foto struct {
	URL     string `json:"url"`
	RefPath string `json:"refPath"`
}
