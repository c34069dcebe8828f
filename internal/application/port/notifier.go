package port

import (
	"context"

	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// NotifyResult is the outcome of one webhook delivery attempt. Delivery is
// best-effort: callers log the result and carry on either way. Sent is true
// only on a 2xx response.
type NotifyResult struct {
	Sent   bool
	Status int
	Err    error
}

// Notifier delivers workflow transition notifications to the external
// automation service. Implementations must bound the call with a timeout and
// must never panic past their boundary.
type Notifier interface {
	// NotifySubmitted announces a new work order.
	NotifySubmitted(ctx context.Context, form *entity.FormSubmission) NotifyResult

	// NotifyResubmitted announces a resubmission, carrying the escalation
	// label computed from the prior rejection.
	NotifyResubmitted(ctx context.Context, form *entity.FormSubmission, escalation string) NotifyResult

	// NotifyStatus announces a reject or approve decision.
	NotifyStatus(ctx context.Context, form *entity.FormSubmission, status, note string) NotifyResult

	// NotifyForwarded announces a forward to another technician.
	NotifyForwarded(ctx context.Context, form *entity.FormSubmission, toEmail string) NotifyResult
}
