package service

import "time"

// Escalation labels attached to resubmission notifications.
const (
	EscalationNone     = "none"
	EscalationElevated = "elevated"
	EscalationCritical = "critical"
)

// EscalationFunc derives the urgency label carried on a resubmission
// notification from the form's prior submission and rejection times. The
// label annotates the outbound payload only; it is never stored and never
// affects transition eligibility.
type EscalationFunc func(originalSubmittedAt, rejectedAt, now time.Time) string

// DefaultEscalation buckets by the age of the original submission at
// resubmission time: under 24h none, under 72h elevated, critical beyond
// that. Placeholder thresholds until the real business rule is confirmed;
// swap in a different EscalationFunc once it is.
func DefaultEscalation(originalSubmittedAt, rejectedAt, now time.Time) string {
	ref := originalSubmittedAt
	if ref.IsZero() {
		ref = rejectedAt
	}
	if ref.IsZero() {
		return EscalationNone
	}

	age := now.Sub(ref)
	switch {
	case age < 24*time.Hour:
		return EscalationNone
	case age < 72*time.Hour:
		return EscalationElevated
	default:
		return EscalationCritical
	}
}
