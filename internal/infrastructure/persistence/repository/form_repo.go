package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// FormRepository implements port.FormRepository
type FormRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *sql.DB, logger *zap.Logger) port.FormRepository {
	return &FormRepository{
		db:     db,
		logger: logger,
	}
}

const formColumns = `
	id, job_po_number, status, is_draft, is_rejected, is_forwarded,
	is_approved, submitted_at, workflow_timestamp, rejection_note,
	forwarded_to_email, submitted_by_email, http_post_sent, data, version,
	created_at, updated_at
`

// Create inserts a new draft row.
func (r *FormRepository) Create(ctx context.Context, form *entity.FormSubmission) error {
	data, err := json.Marshal(form.Data)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}

	query := `
		INSERT INTO form_submissions (
			id, job_po_number, status, is_draft, submitted_by_email, data
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		form.ID,
		form.JobPONumber,
		form.Status,
		form.IsDraft,
		form.SubmittedByEmail,
		string(data),
	)
	if err != nil {
		r.logger.Error("Failed to create form", zap.String("form_id", form.ID), zap.Error(err))
		return fmt.Errorf("failed to create form: %w", err)
	}

	form.Version = 1
	return nil
}

// GetByID retrieves a form by ID. Returns (nil, nil) when no row exists.
func (r *FormRepository) GetByID(ctx context.Context, id string) (*entity.FormSubmission, error) {
	query := `SELECT ` + formColumns + ` FROM form_submissions WHERE id = ?`
	form, err := scanForm(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to get form by ID", zap.String("form_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return form, nil
}

// GetByJobPONumber retrieves a form by its business key. Returns (nil, nil)
// when no row exists.
func (r *FormRepository) GetByJobPONumber(ctx context.Context, jobPO string) (*entity.FormSubmission, error) {
	query := `SELECT ` + formColumns + ` FROM form_submissions WHERE job_po_number = ?`
	form, err := scanForm(getExecutor(ctx, r.db).QueryRowContext(ctx, query, jobPO))
	if err != nil {
		r.logger.Error("Failed to get form by job/PO number", zap.String("job_po_number", jobPO), zap.Error(err))
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return form, nil
}

// List retrieves forms newest-first with pagination.
func (r *FormRepository) List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error) {
	query := `SELECT ` + formColumns + `
		FROM form_submissions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list forms", zap.Error(err))
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	var forms []*entity.FormSubmission
	for rows.Next() {
		form, err := scanFormRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, form)
	}

	return forms, rows.Err()
}

// Update persists all mutable columns, guarded by the optimistic version.
// Zero rows affected means another transition won the race.
func (r *FormRepository) Update(ctx context.Context, form *entity.FormSubmission) error {
	data, err := json.Marshal(form.Data)
	if err != nil {
		return fmt.Errorf("marshal form data: %w", err)
	}

	query := `
		UPDATE form_submissions SET
			status = ?, is_draft = ?, is_rejected = ?, is_forwarded = ?,
			is_approved = ?, submitted_at = ?, workflow_timestamp = ?,
			rejection_note = ?, forwarded_to_email = ?, submitted_by_email = ?,
			data = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		form.Status,
		form.IsDraft,
		form.IsRejected,
		form.IsForwarded,
		form.IsApproved,
		nullableTime(form.SubmittedAt),
		nullableTime(form.WorkflowTimestamp),
		form.RejectionNote,
		form.ForwardedToEmail,
		form.SubmittedByEmail,
		string(data),
		form.ID,
		form.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update form", zap.String("form_id", form.ID), zap.Error(err))
		return fmt.Errorf("failed to update form: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: form %s at version %d", port.ErrVersionConflict, form.ID, form.Version)
	}

	form.Version++
	return nil
}

// MarkNotified records a successful webhook delivery. Deliberately not
// version-guarded; see port.FormRepository.
func (r *FormRepository) MarkNotified(ctx context.Context, id string) error {
	query := `UPDATE form_submissions SET http_post_sent = 1 WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to mark form notified", zap.String("form_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark form notified: %w", err)
	}
	return nil
}

// Delete removes a form; history rows cascade.
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM form_submissions WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to delete form", zap.String("form_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete form: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInto(s rowScanner) (*entity.FormSubmission, error) {
	var form entity.FormSubmission
	var submittedAt, workflowTimestamp sql.NullTime
	var data string

	err := s.Scan(
		&form.ID,
		&form.JobPONumber,
		&form.Status,
		&form.IsDraft,
		&form.IsRejected,
		&form.IsForwarded,
		&form.IsApproved,
		&submittedAt,
		&workflowTimestamp,
		&form.RejectionNote,
		&form.ForwardedToEmail,
		&form.SubmittedByEmail,
		&form.HTTPPostSent,
		&data,
		&form.Version,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedAt.Valid {
		form.SubmittedAt = &submittedAt.Time
	}
	if workflowTimestamp.Valid {
		form.WorkflowTimestamp = &workflowTimestamp.Time
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &form.Data); err != nil {
			return nil, fmt.Errorf("unmarshal form data: %w", err)
		}
	}

	return &form, nil
}

func scanForm(row *sql.Row) (*entity.FormSubmission, error) {
	form, err := scanInto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return form, err
}

func scanFormRow(rows *sql.Rows) (*entity.FormSubmission, error) {
	return scanInto(rows)
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// Verify interface compliance
var _ port.FormRepository = (*FormRepository)(nil)
