// Package notify delivers workflow transition notifications to the external
// automation service. Delivery is fire-and-forget: every exported call
// returns a NotifyResult instead of an error so callers can log the outcome
// without it ever steering control flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// Config holds webhook dispatcher configuration. The automation service
// exposes distinct endpoints per transition kind; approve decisions post to
// the same status endpoint as reject.
type Config struct {
	SubmitURL    string
	RejectURL    string
	ForwardURL   string
	FormLinkBase string
	Timeout      time.Duration
}

// WebhookDispatcher implements port.Notifier over plain HTTP POST.
type WebhookDispatcher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewWebhookDispatcher creates a dispatcher with a bounded request timeout
// so a hung automation endpoint cannot stall the HTTP response.
func NewWebhookDispatcher(cfg Config, logger *zap.Logger) *WebhookDispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDispatcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// submissionPayload announces a new work order.
type submissionPayload struct {
	Date       string `json:"date"`
	JobNumber  string `json:"jobNumber"`
	Technician string `json:"technician"`
	EditLink   string `json:"editLink"`
}

// statusPayload announces a review decision or a resubmission.
type statusPayload struct {
	To         string `json:"to,omitempty"`
	Status     string `json:"status,omitempty"`
	Note       string `json:"note,omitempty"`
	FormLink   string `json:"formLink"`
	JobPO      string `json:"jobPO"`
	Escalation string `json:"escalation,omitempty"`
}

// NotifySubmitted implements port.Notifier
func (d *WebhookDispatcher) NotifySubmitted(ctx context.Context, form *entity.FormSubmission) port.NotifyResult {
	payload := submissionPayload{
		Date:       time.Now().Format("2006-01-02"),
		JobNumber:  form.JobPONumber,
		Technician: form.SubmittedByEmail,
		EditLink:   d.formLink(form.ID),
	}
	return d.post(ctx, d.cfg.SubmitURL, payload)
}

// NotifyResubmitted implements port.Notifier
func (d *WebhookDispatcher) NotifyResubmitted(ctx context.Context, form *entity.FormSubmission, escalation string) port.NotifyResult {
	payload := statusPayload{
		To:         form.SubmittedByEmail,
		Status:     "resubmitted",
		FormLink:   d.formLink(form.ID),
		JobPO:      form.JobPONumber,
		Escalation: escalation,
	}
	return d.post(ctx, d.cfg.SubmitURL, payload)
}

// NotifyStatus implements port.Notifier
func (d *WebhookDispatcher) NotifyStatus(ctx context.Context, form *entity.FormSubmission, status, note string) port.NotifyResult {
	payload := statusPayload{
		To:       form.SubmittedByEmail,
		Status:   status,
		Note:     note,
		FormLink: d.formLink(form.ID),
		JobPO:    form.JobPONumber,
	}
	return d.post(ctx, d.cfg.RejectURL, payload)
}

// NotifyForwarded implements port.Notifier
func (d *WebhookDispatcher) NotifyForwarded(ctx context.Context, form *entity.FormSubmission, toEmail string) port.NotifyResult {
	payload := statusPayload{
		To:       toEmail,
		Status:   "forwarded",
		FormLink: d.formLink(form.ID),
		JobPO:    form.JobPONumber,
	}
	return d.post(ctx, d.cfg.ForwardURL, payload)
}

func (d *WebhookDispatcher) formLink(formID string) string {
	if d.cfg.FormLinkBase == "" {
		return formID
	}
	return fmt.Sprintf("%s/forms/%s", d.cfg.FormLinkBase, formID)
}

// post performs the delivery. Network failures and non-2xx responses are
// captured in the result, never returned as errors.
func (d *WebhookDispatcher) post(ctx context.Context, url string, payload interface{}) port.NotifyResult {
	if url == "" {
		return port.NotifyResult{Err: fmt.Errorf("no webhook URL configured")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return port.NotifyResult{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return port.NotifyResult{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("Webhook delivery failed", zap.String("url", url), zap.Error(err))
		return port.NotifyResult{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("Webhook returned non-2xx",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return port.NotifyResult{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("webhook returned status %d", resp.StatusCode),
		}
	}

	return port.NotifyResult{Sent: true, Status: resp.StatusCode}
}

// Verify interface compliance
var _ port.Notifier = (*WebhookDispatcher)(nil)
