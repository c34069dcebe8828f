package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new history entry.
func (r *HistoryRepository) Create(ctx context.Context, entry *entity.WorkflowHistoryEntry) error {
	query := `
		INSERT INTO workflow_history (
			form_id, action, actor_email, note, forwarded_to_email
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.FormID,
		entry.Action,
		entry.ActorEmail,
		entry.Note,
		entry.ForwardedToEmail,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("%w: form %s", port.ErrFormMissing, entry.FormID)
		}
		r.logger.Error("Failed to create history entry", zap.String("form_id", entry.FormID), zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByFormID retrieves all history entries for a form oldest-first. ID
// breaks ties for entries created within the same timestamp granularity.
func (r *HistoryRepository) GetByFormID(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error) {
	query := `
		SELECT id, form_id, action, actor_email, note, forwarded_to_email, created_at
		FROM workflow_history
		WHERE form_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, formID)
	if err != nil {
		r.logger.Error("Failed to get history by form ID", zap.String("form_id", formID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.WorkflowHistoryEntry
	for rows.Next() {
		var entry entity.WorkflowHistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.FormID,
			&entry.Action,
			&entry.ActorEmail,
			&entry.Note,
			&entry.ForwardedToEmail,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
