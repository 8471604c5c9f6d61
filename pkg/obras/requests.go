package obras

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateObraRequest creates an obra, usually from a map tap.
type CreateObraRequest struct {
	Name         string  `json:"nome" validate:"required,max=200"`
	Builder      string  `json:"construtora" validate:"max=200"`
	Lat          float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng          float64 `json:"lng" validate:"gte=-180,lte=180"`
	Stage        string  `json:"etapa"`
	Phase        string  `json:"fase"`
	RegisteredOn string  `json:"dataCadastro"`
}

// UpdateObraRequest edits the obra fields. Nil fields are left alone.
type UpdateObraRequest struct {
	Name         *string  `json:"nome" validate:"omitempty,max=200"`
	Builder      *string  `json:"construtora" validate:"omitempty,max=200"`
	Lat          *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng          *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Stage        *string  `json:"etapa"`
	Phase        *string  `json:"fase"`
	RegisteredOn *string  `json:"dataCadastro"`
}

// ContactRequest adds a contact.
type ContactRequest struct {
	Name  string `json:"nome" validate:"required,max=120"`
	Phone string `json:"telefone" validate:"max=40"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"cargo" validate:"max=80"`
}

// TaskRequest schedules a task.
type TaskRequest struct {
	Title       string    `json:"titulo" validate:"required,max=200"`
	Description string    `json:"descricao" validate:"max=2000"`
	Due         time.Time `json:"data" validate:"required"`
	Type        string    `json:"tipo" validate:"required"`
}

// ProposalRequest records a commercial proposal.
type ProposalRequest struct {
	Partner  string          `json:"representada" validate:"required"`
	Products []string        `json:"produtos" validate:"required,min=1"`
	Value    decimal.Decimal `json:"valor"`
	Date     time.Time       `json:"data"`
}

// Upload is a file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Filter narrows List the way the map filters do. Empty fields match all.
type Filter struct {
	Stage string
	Phase string
	Query string
}
