package workflow

// BuildWorkOrderStateMachine creates a state machine configured for the
// work-order lifecycle. The configuration is deliberately permissive: once a
// form has been submitted, any review action remains legal from any reviewed
// state, and a review action simply replaces the previous one. Resubmission
// returns the form to SUBMITTED.
func BuildWorkOrderStateMachine(initialState State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	builder.Configure(StateSubmitted).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerForward, StateForwarded).
		Permit(TriggerApprove, StateApproved)

	builder.Configure(StateRejected).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerForward, StateForwarded).
		Permit(TriggerApprove, StateApproved)

	builder.Configure(StateForwarded).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerForward, StateForwarded).
		Permit(TriggerApprove, StateApproved)

	builder.Configure(StateApproved).
		Permit(TriggerSubmit, StateSubmitted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerForward, StateForwarded).
		Permit(TriggerApprove, StateApproved)

	return builder.Build(initialState)
}
