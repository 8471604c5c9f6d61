package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_IsTerminalCoversEveryStage(t *testing.T) {
	terminal := map[Stage]bool{
		StageClosed:   true,
		StageLost:     true,
		StageInactive: true,
	}

	for _, s := range AllStages() {
		got, err := s.IsTerminal()
		require.NoError(t, err, "stage %q must be handled", s)
		assert.Equal(t, terminal[s], got, "stage %q", s)
	}
}

func TestStage_IsTerminalRejectsUnknown(t *testing.T) {
	_, err := Stage("Arquivado").IsTerminal()
	assert.Error(t, err)
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("Negociação")
	require.NoError(t, err)
	assert.Equal(t, StageNegotiation, s)

	_, err = ParseStage("negotiation")
	assert.Error(t, err)
}

func TestPartner_Sells(t *testing.T) {
	assert.True(t, PartnerRoca.Sells("Porcelanato"))
	assert.False(t, PartnerRoca.Sells("Disjuntores"))
	for _, p := range AllPartners() {
		assert.NotEmpty(t, PartnerProducts[p], "partner %q needs a catalogue", p)
	}
}

func TestObra_CloneIsDeep(t *testing.T) {
	o := Obra{
		ID:        "o1",
		Tasks:     []Tarefa{{ID: "t1"}},
		Proposals: []Proposta{{ID: "p1", Products: []string{"Porcelanato"}}},
	}

	c := o.Clone()
	c.Tasks = append(c.Tasks, Tarefa{ID: "t2"})
	c.Proposals[0].Products[0] = "Louças e Metais"

	assert.Len(t, o.Tasks, 1)
	assert.Equal(t, "Porcelanato", o.Proposals[0].Products[0])
}
