package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerReject  Trigger = "REJECT"
	TriggerForward Trigger = "FORWARD"
	TriggerApprove Trigger = "APPROVE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
