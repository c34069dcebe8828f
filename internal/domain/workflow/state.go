package workflow

import "github.com/mhenders/fieldflow/internal/domain/entity"

// State represents a workflow state in the work-order lifecycle
type State string

const (
	StateDraft     State = "DRAFT"
	StateSubmitted State = "SUBMITTED"
	StateRejected  State = "REJECTED"
	StateForwarded State = "FORWARDED"
	StateApproved  State = "APPROVED"
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateSubmitted: true,
	StateRejected:  true,
	StateForwarded: true,
	StateApproved:  true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// StateOf derives the workflow state from a form's status and review flags.
// The flags are mutually exclusive by convention; if more than one is set,
// the precedence here (rejected, forwarded, approved) decides.
func StateOf(form *entity.FormSubmission) State {
	switch {
	case form.IsRejected:
		return StateRejected
	case form.IsForwarded:
		return StateForwarded
	case form.IsApproved:
		return StateApproved
	case form.Status == entity.StatusSubmitted:
		return StateSubmitted
	default:
		return StateDraft
	}
}
