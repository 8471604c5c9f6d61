package models

import "fmt"

// Stage is the sales-funnel status of an obra. The set is closed: every
// consumer switches over all values and treats anything else as an error.
type Stage string

const (
	StageLead           Stage = "Lead"
	StageContacted      Stage = "Contato Inicial"
	StageVisitScheduled Stage = "Visita Agendada"
	StageNegotiation    Stage = "Negociação"
	StageClosed         Stage = "Fechado"
	StageLost           Stage = "Perdido"
	StageInactive       Stage = "Inativo"
)

// AllStages returns every stage in pipeline order.
func AllStages() []Stage {
	return []Stage{
		StageLead,
		StageContacted,
		StageVisitScheduled,
		StageNegotiation,
		StageClosed,
		StageLost,
		StageInactive,
	}
}

// ParseStage converts a wire value into a Stage.
func ParseStage(value string) (Stage, error) {
	for _, s := range AllStages() {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

// IsTerminal reports whether the stage is exempt from the inactivity rule.
func (s Stage) IsTerminal() (bool, error) {
	switch s {
	case StageClosed, StageLost, StageInactive:
		return true, nil
	case StageLead, StageContacted, StageVisitScheduled, StageNegotiation:
		return false, nil
	default:
		return false, fmt.Errorf("unknown stage %q", string(s))
	}
}

// PinColor is the marker color the map uses for the stage.
func (s Stage) PinColor() string {
	switch s {
	case StageLead:
		return "blue"
	case StageContacted, StageVisitScheduled:
		return "violet"
	case StageNegotiation:
		return "gold"
	case StageClosed:
		return "green"
	case StageLost:
		return "red"
	case StageInactive:
		return "grey"
	default:
		return "blue"
	}
}

// Phase is the construction phase of the site, independent from the stage.
type Phase string

const (
	PhaseProspection  Phase = "Prospecção"
	PhaseFoundation   Phase = "Fundação"
	PhaseStructure    Phase = "Estrutura"
	PhaseMasonry      Phase = "Alvenaria"
	PhaseInstallation Phase = "Instalações"
	PhaseFinishing    Phase = "Acabamento"
	PhaseCompleted    Phase = "Finalizada"
)

// AllPhases returns every construction phase in build order.
func AllPhases() []Phase {
	return []Phase{
		PhaseProspection,
		PhaseFoundation,
		PhaseStructure,
		PhaseMasonry,
		PhaseInstallation,
		PhaseFinishing,
		PhaseCompleted,
	}
}

// ParsePhase converts a wire value into a Phase.
func ParsePhase(value string) (Phase, error) {
	for _, p := range AllPhases() {
		if string(p) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", value)
}

// TaskType classifies a tarefa.
type TaskType string

const (
	TaskCall     TaskType = "Ligação"
	TaskVisit    TaskType = "Visita"
	TaskEmail    TaskType = "E-mail"
	TaskProposal TaskType = "Proposta"
	TaskFollowUp TaskType = "Outro"
)

// AllTaskTypes returns every task type.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskCall, TaskVisit, TaskEmail, TaskProposal, TaskFollowUp}
}

// ParseTaskType converts a wire value into a TaskType.
func ParseTaskType(value string) (TaskType, error) {
	for _, t := range AllTaskTypes() {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task type %q", value)
}

// TaskStatus is either pending or done.
type TaskStatus string

const (
	TaskPending TaskStatus = "Pendente"
	TaskDone    TaskStatus = "Concluída"
)
