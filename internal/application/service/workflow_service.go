package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
	"github.com/mhenders/fieldflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// WorkflowService enforces legal state transitions on a form submission and
// keeps the audit trail consistent with the stored state. Each transition's
// row mutation and history insert run in one transaction; the outbound
// notification runs after commit and never fails the transition.
type WorkflowService interface {
	Submit(ctx context.Context, formID string) (*entity.FormSubmission, error)
	Reject(ctx context.Context, formID, note, actorEmail string) error
	Forward(ctx context.Context, formID, toEmail, actorEmail string) error
	Approve(ctx context.Context, formID, actorEmail string) error
	Log(ctx context.Context, formID, action, actorEmail string) error
	History(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error)
}

type workflowServiceImpl struct {
	formRepo    port.FormRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	notifier    port.Notifier
	escalate    EscalationFunc
	logger      Logger
}

// NewWorkflowService creates a new WorkflowService. A nil escalate falls
// back to DefaultEscalation.
func NewWorkflowService(
	formRepo port.FormRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	notifier port.Notifier,
	escalate EscalationFunc,
	logger Logger,
) WorkflowService {
	if escalate == nil {
		escalate = DefaultEscalation
	}
	return &workflowServiceImpl{
		formRepo:    formRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		notifier:    notifier,
		escalate:    escalate,
		logger:      logger,
	}
}

// Submit submits or resubmits a form. A form whose prior state was rejected
// records a "resubmitted" history action and carries an escalation label on
// its notification.
func (s *workflowServiceImpl) Submit(ctx context.Context, formID string) (*entity.FormSubmission, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, fmt.Errorf("%w: form id is required", ErrValidation)
	}

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	machine := workflow.BuildWorkOrderStateMachine(workflow.StateOf(form))
	if err := machine.Fire(workflow.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	isResubmission := form.IsRejected

	// Snapshot prior timestamps before clearing; the escalation label is
	// computed from them.
	var originalSubmittedAt, rejectedAt time.Time
	if form.SubmittedAt != nil {
		originalSubmittedAt = *form.SubmittedAt
	}
	if form.WorkflowTimestamp != nil {
		rejectedAt = *form.WorkflowTimestamp
	}

	now := time.Now()
	form.Status = entity.StatusSubmitted
	form.IsDraft = false
	form.SubmittedAt = &now
	form.IsRejected = false
	form.RejectionNote = ""
	form.IsForwarded = false
	form.ForwardedToEmail = ""
	form.IsApproved = false

	action := entity.ActionSubmitted
	if isResubmission {
		action = entity.ActionResubmitted
	}

	// The submit endpoint does not authenticate the submitter; the actor is
	// whatever owner email was saved on the form.
	actor := form.SubmittedByEmail
	if actor == "" {
		actor = entity.ActorUnknown
	}

	if err := s.applyTransition(ctx, form, &entity.WorkflowHistoryEntry{
		FormID:     form.ID,
		Action:     action,
		ActorEmail: actor,
	}); err != nil {
		return nil, err
	}

	var result port.NotifyResult
	if isResubmission {
		escalation := s.escalate(originalSubmittedAt, rejectedAt, now)
		result = s.notifier.NotifyResubmitted(ctx, form, escalation)
	} else {
		result = s.notifier.NotifySubmitted(ctx, form)
	}
	s.recordNotifyResult(ctx, form, action, result)

	return form, nil
}

// Reject marks a submission rejected with a mandatory note. The actor is
// the authenticated caller, not the form owner.
func (s *workflowServiceImpl) Reject(ctx context.Context, formID, note, actorEmail string) error {
	if strings.TrimSpace(formID) == "" {
		return fmt.Errorf("%w: form id is required", ErrValidation)
	}
	if strings.TrimSpace(note) == "" {
		return fmt.Errorf("%w: rejection note is required", ErrValidation)
	}

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return err
	}

	machine := workflow.BuildWorkOrderStateMachine(workflow.StateOf(form))
	if err := machine.Fire(workflow.TriggerReject); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	form.IsRejected = true
	form.RejectionNote = note
	form.WorkflowTimestamp = &now
	form.IsApproved = false
	form.IsForwarded = false
	form.ForwardedToEmail = ""

	if err := s.applyTransition(ctx, form, &entity.WorkflowHistoryEntry{
		FormID:     form.ID,
		Action:     entity.ActionRejected,
		ActorEmail: fallbackActor(actorEmail),
		Note:       note,
	}); err != nil {
		return err
	}

	result := s.notifier.NotifyStatus(ctx, form, entity.ActionRejected, note)
	s.recordNotifyResult(ctx, form, entity.ActionRejected, result)

	return nil
}

// Forward routes a submission to another technician by email.
func (s *workflowServiceImpl) Forward(ctx context.Context, formID, toEmail, actorEmail string) error {
	if strings.TrimSpace(formID) == "" {
		return fmt.Errorf("%w: form id is required", ErrValidation)
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("%w: forward target email is required", ErrValidation)
	}

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return err
	}

	machine := workflow.BuildWorkOrderStateMachine(workflow.StateOf(form))
	if err := machine.Fire(workflow.TriggerForward); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	form.IsForwarded = true
	form.ForwardedToEmail = toEmail
	form.WorkflowTimestamp = &now
	form.IsApproved = false
	form.IsRejected = false
	form.RejectionNote = ""

	if err := s.applyTransition(ctx, form, &entity.WorkflowHistoryEntry{
		FormID:           form.ID,
		Action:           entity.ActionForwarded,
		ActorEmail:       fallbackActor(actorEmail),
		ForwardedToEmail: toEmail,
	}); err != nil {
		return err
	}

	result := s.notifier.NotifyForwarded(ctx, form, toEmail)
	s.recordNotifyResult(ctx, form, entity.ActionForwarded, result)

	return nil
}

// Approve marks a submission approved.
func (s *workflowServiceImpl) Approve(ctx context.Context, formID, actorEmail string) error {
	if strings.TrimSpace(formID) == "" {
		return fmt.Errorf("%w: form id is required", ErrValidation)
	}

	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return err
	}

	machine := workflow.BuildWorkOrderStateMachine(workflow.StateOf(form))
	if err := machine.Fire(workflow.TriggerApprove); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now()
	form.IsApproved = true
	form.WorkflowTimestamp = &now
	form.IsRejected = false
	form.RejectionNote = ""
	form.IsForwarded = false
	form.ForwardedToEmail = ""

	if err := s.applyTransition(ctx, form, &entity.WorkflowHistoryEntry{
		FormID:     form.ID,
		Action:     entity.ActionApproved,
		ActorEmail: fallbackActor(actorEmail),
	}); err != nil {
		return err
	}

	result := s.notifier.NotifyStatus(ctx, form, entity.ActionApproved, "")
	s.recordNotifyResult(ctx, form, entity.ActionApproved, result)

	return nil
}

// Log appends an ancillary audit entry (draft save, edit enable) without
// touching workflow flags. All three parameters are required; there are no
// further guards.
func (s *workflowServiceImpl) Log(ctx context.Context, formID, action, actorEmail string) error {
	if strings.TrimSpace(formID) == "" || strings.TrimSpace(action) == "" || strings.TrimSpace(actorEmail) == "" {
		return fmt.Errorf("%w: formId, action and actorEmail are required", ErrValidation)
	}

	entry := &entity.WorkflowHistoryEntry{
		FormID:     formID,
		Action:     action,
		ActorEmail: actorEmail,
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, port.ErrFormMissing) {
			return fmt.Errorf("%w: form %s", ErrNotFound, formID)
		}
		s.logger.Error("Failed to append log entry", "error", err, "form_id", formID, "action", action)
		return fmt.Errorf("append log entry: %w", err)
	}

	return nil
}

// History returns the audit trail for a form ordered by creation time.
func (s *workflowServiceImpl) History(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, fmt.Errorf("%w: form id is required", ErrValidation)
	}

	entries, err := s.historyRepo.GetByFormID(ctx, formID)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "form_id", formID)
		return nil, fmt.Errorf("get history: %w", err)
	}
	return entries, nil
}

// loadForm fetches the form or fails with ErrNotFound before any write.
func (s *workflowServiceImpl) loadForm(ctx context.Context, formID string) (*entity.FormSubmission, error) {
	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		s.logger.Error("Failed to get form", "error", err, "form_id", formID)
		return nil, fmt.Errorf("get form: %w", err)
	}
	if form == nil {
		return nil, fmt.Errorf("%w: form %s", ErrNotFound, formID)
	}
	return form, nil
}

// applyTransition persists the mutated form and its history entry in a
// single transaction so the audit trail can never diverge from the stored
// state.
func (s *workflowServiceImpl) applyTransition(ctx context.Context, form *entity.FormSubmission, entry *entity.WorkflowHistoryEntry) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.formRepo.Update(txCtx, form); err != nil {
			return fmt.Errorf("update form: %w", err)
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to apply transition", "error", err, "form_id", form.ID, "action", entry.Action)
		return err
	}

	s.logger.Info("Transition applied", "form_id", form.ID, "action", entry.Action, "actor", entry.ActorEmail)
	return nil
}

// recordNotifyResult logs the webhook outcome and marks http_post_sent on
// success. Failures are swallowed here: notification outcome is independent
// of the transition by contract.
func (s *workflowServiceImpl) recordNotifyResult(ctx context.Context, form *entity.FormSubmission, action string, result port.NotifyResult) {
	if !result.Sent {
		s.logger.Error("Notification dispatch failed",
			"form_id", form.ID,
			"action", action,
			"status", result.Status,
			"error", result.Err,
		)
		return
	}

	if err := s.formRepo.MarkNotified(ctx, form.ID); err != nil {
		s.logger.Error("Failed to mark form notified", "error", err, "form_id", form.ID)
		return
	}
	form.HTTPPostSent = true

	s.logger.Info("Notification dispatched", "form_id", form.ID, "action", action, "status", result.Status)
}

func fallbackActor(email string) string {
	if strings.TrimSpace(email) == "" {
		return entity.ActorUnknown
	}
	return email
}
