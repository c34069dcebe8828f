package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

type mockFormRepo struct {
	createFunc           func(ctx context.Context, form *entity.FormSubmission) error
	getByIDFunc          func(ctx context.Context, id string) (*entity.FormSubmission, error)
	getByJobPONumberFunc func(ctx context.Context, jobPO string) (*entity.FormSubmission, error)
	listFunc             func(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error)
	updateFunc           func(ctx context.Context, form *entity.FormSubmission) error
	markNotifiedFunc     func(ctx context.Context, id string) error
	deleteFunc           func(ctx context.Context, id string) error
}

func (m *mockFormRepo) Create(ctx context.Context, form *entity.FormSubmission) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, form)
	}
	return nil
}

func (m *mockFormRepo) GetByID(ctx context.Context, id string) (*entity.FormSubmission, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockFormRepo) GetByJobPONumber(ctx context.Context, jobPO string) (*entity.FormSubmission, error) {
	if m.getByJobPONumberFunc != nil {
		return m.getByJobPONumberFunc(ctx, jobPO)
	}
	return nil, nil
}

func (m *mockFormRepo) List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockFormRepo) Update(ctx context.Context, form *entity.FormSubmission) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, form)
	}
	return nil
}

func (m *mockFormRepo) MarkNotified(ctx context.Context, id string) error {
	if m.markNotifiedFunc != nil {
		return m.markNotifiedFunc(ctx, id)
	}
	return nil
}

func (m *mockFormRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockHistoryRepo struct {
	createFunc      func(ctx context.Context, entry *entity.WorkflowHistoryEntry) error
	getByFormIDFunc func(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, entry *entity.WorkflowHistoryEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	return nil
}

func (m *mockHistoryRepo) GetByFormID(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error) {
	if m.getByFormIDFunc != nil {
		return m.getByFormIDFunc(ctx, formID)
	}
	return nil, nil
}

// mockTxManager runs the callback directly; the services under test only
// care that writes inside the callback share an outcome.
type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockNotifier struct {
	submittedFunc   func(ctx context.Context, form *entity.FormSubmission) port.NotifyResult
	resubmittedFunc func(ctx context.Context, form *entity.FormSubmission, escalation string) port.NotifyResult
	statusFunc      func(ctx context.Context, form *entity.FormSubmission, status, note string) port.NotifyResult
	forwardedFunc   func(ctx context.Context, form *entity.FormSubmission, toEmail string) port.NotifyResult
}

func (m *mockNotifier) NotifySubmitted(ctx context.Context, form *entity.FormSubmission) port.NotifyResult {
	if m.submittedFunc != nil {
		return m.submittedFunc(ctx, form)
	}
	return port.NotifyResult{Sent: true, Status: 200}
}

func (m *mockNotifier) NotifyResubmitted(ctx context.Context, form *entity.FormSubmission, escalation string) port.NotifyResult {
	if m.resubmittedFunc != nil {
		return m.resubmittedFunc(ctx, form, escalation)
	}
	return port.NotifyResult{Sent: true, Status: 200}
}

func (m *mockNotifier) NotifyStatus(ctx context.Context, form *entity.FormSubmission, status, note string) port.NotifyResult {
	if m.statusFunc != nil {
		return m.statusFunc(ctx, form, status, note)
	}
	return port.NotifyResult{Sent: true, Status: 200}
}

func (m *mockNotifier) NotifyForwarded(ctx context.Context, form *entity.FormSubmission, toEmail string) port.NotifyResult {
	if m.forwardedFunc != nil {
		return m.forwardedFunc(ctx, form, toEmail)
	}
	return port.NotifyResult{Sent: true, Status: 200}
}

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestWorkflowService(formRepo *mockFormRepo, historyRepo *mockHistoryRepo, notifier *mockNotifier) WorkflowService {
	return NewWorkflowService(formRepo, historyRepo, &mockTxManager{}, notifier, nil, mockLogger{})
}

func submittedForm(id string) *entity.FormSubmission {
	at := time.Now().Add(-time.Hour)
	return &entity.FormSubmission{
		ID:               id,
		JobPONumber:      "24-23-0001",
		Status:           entity.StatusSubmitted,
		SubmittedAt:      &at,
		SubmittedByEmail: "tech@example.com",
		Version:          1,
	}
}

func TestWorkflowService_Submit_ClearsReviewFlags(t *testing.T) {
	form := submittedForm("f1")
	form.IsRejected = true
	form.RejectionNote = "missing readings"
	rejectedAt := time.Now().Add(-30 * time.Minute)
	form.WorkflowTimestamp = &rejectedAt

	var updated *entity.FormSubmission
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
		updateFunc: func(ctx context.Context, f *entity.FormSubmission) error {
			updated = f
			return nil
		},
	}
	historyRepo := &mockHistoryRepo{}

	svc := newTestWorkflowService(formRepo, historyRepo, &mockNotifier{})
	result, err := svc.Submit(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if updated == nil {
		t.Fatal("expected form update")
	}
	if result.IsRejected || result.IsForwarded || result.IsApproved {
		t.Errorf("review flags not cleared: rejected=%v forwarded=%v approved=%v",
			result.IsRejected, result.IsForwarded, result.IsApproved)
	}
	if result.RejectionNote != "" {
		t.Errorf("rejection note not cleared: %q", result.RejectionNote)
	}
	if result.Status != entity.StatusSubmitted || result.IsDraft {
		t.Errorf("form not in submitted status: status=%q draft=%v", result.Status, result.IsDraft)
	}
	if result.SubmittedAt == nil {
		t.Error("submitted_at not set")
	}
}

func TestWorkflowService_Submit_RecordsResubmittedAction(t *testing.T) {
	tests := []struct {
		name           string
		priorRejected  bool
		wantAction     string
		wantResubmit   bool
	}{
		{name: "first submission", priorRejected: false, wantAction: entity.ActionSubmitted},
		{name: "after rejection", priorRejected: true, wantAction: entity.ActionResubmitted, wantResubmit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := submittedForm("f1")
			form.IsRejected = tt.priorRejected

			var gotAction string
			historyRepo := &mockHistoryRepo{
				createFunc: func(ctx context.Context, entry *entity.WorkflowHistoryEntry) error {
					gotAction = entry.Action
					return nil
				},
			}
			var resubmitCalled, submitCalled bool
			notifier := &mockNotifier{
				submittedFunc: func(ctx context.Context, f *entity.FormSubmission) port.NotifyResult {
					submitCalled = true
					return port.NotifyResult{Sent: true, Status: 200}
				},
				resubmittedFunc: func(ctx context.Context, f *entity.FormSubmission, escalation string) port.NotifyResult {
					resubmitCalled = true
					return port.NotifyResult{Sent: true, Status: 200}
				},
			}
			formRepo := &mockFormRepo{
				getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
					return form, nil
				},
			}

			svc := newTestWorkflowService(formRepo, historyRepo, notifier)
			if _, err := svc.Submit(context.Background(), "f1"); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}

			if gotAction != tt.wantAction {
				t.Errorf("history action = %q, want %q", gotAction, tt.wantAction)
			}
			if resubmitCalled != tt.wantResubmit {
				t.Errorf("resubmit notification = %v, want %v", resubmitCalled, tt.wantResubmit)
			}
			if submitCalled == tt.wantResubmit {
				t.Errorf("submit notification = %v, want %v", submitCalled, !tt.wantResubmit)
			}
		})
	}
}

func TestWorkflowService_Submit_NotFound(t *testing.T) {
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return nil, nil
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, &mockNotifier{})
	_, err := svc.Submit(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Submit() error = %v, want ErrNotFound", err)
	}
}

func TestWorkflowService_Reject_RequiresNote(t *testing.T) {
	var loaded bool
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			loaded = true
			return submittedForm(id), nil
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, &mockNotifier{})
	err := svc.Reject(context.Background(), "f1", "   ", "pm@example.com")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Reject() error = %v, want ErrValidation", err)
	}
	if loaded {
		t.Error("form loaded despite missing note")
	}
}

func TestWorkflowService_Reject_SetsStateAndHistory(t *testing.T) {
	form := submittedForm("f1")
	form.IsForwarded = true
	form.ForwardedToEmail = "other@example.com"

	var entry *entity.WorkflowHistoryEntry
	historyRepo := &mockHistoryRepo{
		createFunc: func(ctx context.Context, e *entity.WorkflowHistoryEntry) error {
			entry = e
			return nil
		},
	}
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
	}

	svc := newTestWorkflowService(formRepo, historyRepo, &mockNotifier{})
	if err := svc.Reject(context.Background(), "f1", "incomplete parts list", "pm@example.com"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	if !form.IsRejected {
		t.Error("is_rejected not set")
	}
	if form.IsForwarded || form.ForwardedToEmail != "" || form.IsApproved {
		t.Errorf("competing flags not cleared: forwarded=%v to=%q approved=%v",
			form.IsForwarded, form.ForwardedToEmail, form.IsApproved)
	}
	if form.RejectionNote != "incomplete parts list" {
		t.Errorf("rejection note = %q", form.RejectionNote)
	}
	if form.WorkflowTimestamp == nil {
		t.Error("workflow timestamp not set")
	}
	if entry == nil {
		t.Fatal("no history entry written")
	}
	if entry.Action != entity.ActionRejected || entry.ActorEmail != "pm@example.com" || entry.Note != "incomplete parts list" {
		t.Errorf("history entry = %+v", entry)
	}
}

func TestWorkflowService_Forward_ThenApprove_MutuallyExclusive(t *testing.T) {
	form := submittedForm("f1")
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, &mockNotifier{})

	if err := svc.Forward(context.Background(), "f1", "senior@example.com", "pm@example.com"); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if !form.IsForwarded || form.ForwardedToEmail != "senior@example.com" {
		t.Fatalf("forward state = forwarded=%v to=%q", form.IsForwarded, form.ForwardedToEmail)
	}

	if err := svc.Approve(context.Background(), "f1", "pm@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !form.IsApproved {
		t.Error("is_approved not set")
	}
	if form.IsForwarded || form.ForwardedToEmail != "" || form.IsRejected {
		t.Errorf("competing flags survived approval: forwarded=%v to=%q rejected=%v",
			form.IsForwarded, form.ForwardedToEmail, form.IsRejected)
	}
}

func TestWorkflowService_ActorFallsBackToUnknown(t *testing.T) {
	form := submittedForm("f1")
	var entry *entity.WorkflowHistoryEntry
	historyRepo := &mockHistoryRepo{
		createFunc: func(ctx context.Context, e *entity.WorkflowHistoryEntry) error {
			entry = e
			return nil
		},
	}
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
	}

	svc := newTestWorkflowService(formRepo, historyRepo, &mockNotifier{})
	if err := svc.Approve(context.Background(), "f1", ""); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if entry == nil || entry.ActorEmail != entity.ActorUnknown {
		t.Errorf("actor = %+v, want %q", entry, entity.ActorUnknown)
	}
}

func TestWorkflowService_NotificationFailureDoesNotFailTransition(t *testing.T) {
	form := submittedForm("f1")
	var markNotified bool
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
		markNotifiedFunc: func(ctx context.Context, id string) error {
			markNotified = true
			return nil
		},
	}
	notifier := &mockNotifier{
		statusFunc: func(ctx context.Context, f *entity.FormSubmission, status, note string) port.NotifyResult {
			return port.NotifyResult{Sent: false, Status: 502, Err: errors.New("bad gateway")}
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, notifier)
	if err := svc.Approve(context.Background(), "f1", "pm@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if markNotified {
		t.Error("http_post_sent marked despite failed delivery")
	}
	if form.HTTPPostSent {
		t.Error("HTTPPostSent set despite failed delivery")
	}
}

func TestWorkflowService_NotificationSuccessMarksForm(t *testing.T) {
	form := submittedForm("f1")
	var markNotified bool
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
		markNotifiedFunc: func(ctx context.Context, id string) error {
			markNotified = true
			return nil
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, &mockNotifier{})
	if err := svc.Approve(context.Background(), "f1", "pm@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !markNotified {
		t.Error("MarkNotified not called after 2xx delivery")
	}
	if !form.HTTPPostSent {
		t.Error("HTTPPostSent not set after 2xx delivery")
	}
}

func TestWorkflowService_MarkNotifiedFailureLeavesFlagClear(t *testing.T) {
	form := submittedForm("f1")
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
		markNotifiedFunc: func(ctx context.Context, id string) error {
			return errors.New("disk full")
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, &mockNotifier{})
	if err := svc.Approve(context.Background(), "f1", "pm@example.com"); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if form.HTTPPostSent {
		t.Error("HTTPPostSent set although the delivery mark was never stored")
	}
}

func TestWorkflowService_Log_UnknownFormIsNotFound(t *testing.T) {
	historyRepo := &mockHistoryRepo{
		createFunc: func(ctx context.Context, e *entity.WorkflowHistoryEntry) error {
			return fmt.Errorf("%w: form %s", port.ErrFormMissing, e.FormID)
		},
	}

	svc := newTestWorkflowService(&mockFormRepo{}, historyRepo, &mockNotifier{})
	err := svc.Log(context.Background(), "ghost", entity.ActionEditEnabled, "tech@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Log() error = %v, want ErrNotFound", err)
	}
}

func TestWorkflowService_TransactionFailureSkipsNotification(t *testing.T) {
	form := submittedForm("f1")
	var notified bool
	formRepo := &mockFormRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.FormSubmission, error) {
			return form, nil
		},
		updateFunc: func(ctx context.Context, f *entity.FormSubmission) error {
			return errors.New("disk full")
		},
	}
	notifier := &mockNotifier{
		statusFunc: func(ctx context.Context, f *entity.FormSubmission, status, note string) port.NotifyResult {
			notified = true
			return port.NotifyResult{Sent: true, Status: 200}
		},
	}

	svc := newTestWorkflowService(formRepo, &mockHistoryRepo{}, notifier)
	err := svc.Reject(context.Background(), "f1", "note", "pm@example.com")
	if err == nil {
		t.Fatal("expected error from failed update")
	}
	if notified {
		t.Error("notification sent for a transition that did not commit")
	}
}

func TestWorkflowService_Log(t *testing.T) {
	tests := []struct {
		name    string
		formID  string
		action  string
		actor   string
		wantErr bool
	}{
		{name: "valid entry", formID: "f1", action: entity.ActionDraftSaved, actor: "tech@example.com"},
		{name: "missing form id", formID: "", action: entity.ActionDraftSaved, actor: "tech@example.com", wantErr: true},
		{name: "missing action", formID: "f1", action: "", actor: "tech@example.com", wantErr: true},
		{name: "missing actor", formID: "f1", action: entity.ActionDraftSaved, actor: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *entity.WorkflowHistoryEntry
			historyRepo := &mockHistoryRepo{
				createFunc: func(ctx context.Context, e *entity.WorkflowHistoryEntry) error {
					created = e
					return nil
				},
			}

			svc := newTestWorkflowService(&mockFormRepo{}, historyRepo, &mockNotifier{})
			err := svc.Log(context.Background(), tt.formID, tt.action, tt.actor)

			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Log() error = %v, want ErrValidation", err)
				}
				if created != nil {
					t.Error("history written despite validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("Log() error = %v", err)
			}
			if created == nil || created.Action != tt.action || created.ActorEmail != tt.actor {
				t.Errorf("history entry = %+v", created)
			}
		})
	}
}
