package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
	"github.com/mhenders/fieldflow/pkg/utils"
)

// FormService manages work-order form CRUD outside the workflow transitions.
type FormService interface {
	// Create starts a new draft. The returned warning is the soft
	// job/PO-prefix advisory, empty when the number looks normal.
	Create(ctx context.Context, jobPONumber, submittedByEmail string, data entity.FormData) (*entity.FormSubmission, string, error)
	Get(ctx context.Context, id string) (*entity.FormSubmission, error)
	List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error)

	// SaveDraft overwrites the form payload while drafting and appends a
	// draft_saved audit entry. Workflow flags are never touched here.
	SaveDraft(ctx context.Context, id string, data entity.FormData, actorEmail string) (*entity.FormSubmission, error)

	Delete(ctx context.Context, id string) error
}

type formServiceImpl struct {
	formRepo    port.FormRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewFormService creates a new FormService
func NewFormService(
	formRepo port.FormRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
) FormService {
	return &formServiceImpl{
		formRepo:    formRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *formServiceImpl) Create(ctx context.Context, jobPONumber, submittedByEmail string, data entity.FormData) (*entity.FormSubmission, string, error) {
	jobPONumber = strings.TrimSpace(jobPONumber)
	if jobPONumber == "" {
		return nil, "", fmt.Errorf("%w: job/PO number is required", ErrValidation)
	}

	warning, err := utils.ValidateJobPONumber(jobPONumber)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}

	existing, err := s.formRepo.GetByJobPONumber(ctx, jobPONumber)
	if err != nil {
		s.logger.Error("Failed to check job/PO number", "error", err, "job_po_number", jobPONumber)
		return nil, "", fmt.Errorf("check job/PO number: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("%w: job/PO number %s already in use", ErrValidation, jobPONumber)
	}

	form := &entity.FormSubmission{
		ID:               uuid.NewString(),
		JobPONumber:      jobPONumber,
		Status:           entity.StatusDraft,
		IsDraft:          true,
		SubmittedByEmail: strings.ToLower(strings.TrimSpace(submittedByEmail)),
		Data:             data,
	}

	if err := s.formRepo.Create(ctx, form); err != nil {
		s.logger.Error("Failed to create form", "error", err, "job_po_number", jobPONumber)
		return nil, "", fmt.Errorf("create form: %w", err)
	}

	s.logger.Info("Form created", "form_id", form.ID, "job_po_number", jobPONumber)
	return form, warning, nil
}

func (s *formServiceImpl) Get(ctx context.Context, id string) (*entity.FormSubmission, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: form id is required", ErrValidation)
	}

	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get form", "error", err, "form_id", id)
		return nil, fmt.Errorf("get form: %w", err)
	}
	if form == nil {
		return nil, fmt.Errorf("%w: form %s", ErrNotFound, id)
	}
	return form, nil
}

func (s *formServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error) {
	forms, err := s.formRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list forms", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

func (s *formServiceImpl) SaveDraft(ctx context.Context, id string, data entity.FormData, actorEmail string) (*entity.FormSubmission, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	form.Data = data

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.formRepo.Update(txCtx, form); err != nil {
			return fmt.Errorf("update form: %w", err)
		}
		entry := &entity.WorkflowHistoryEntry{
			FormID:     form.ID,
			Action:     entity.ActionDraftSaved,
			ActorEmail: fallbackActor(actorEmail),
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save draft", "error", err, "form_id", id)
		return nil, err
	}

	s.logger.Info("Draft saved", "form_id", id)
	return form, nil
}

func (s *formServiceImpl) Delete(ctx context.Context, id string) error {
	form, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.formRepo.Delete(ctx, form.ID); err != nil {
		s.logger.Error("Failed to delete form", "error", err, "form_id", id)
		return fmt.Errorf("delete form: %w", err)
	}

	s.logger.Info("Form deleted", "form_id", id)
	return nil
}
