package port

import (
	"context"

	"github.com/mhenders/fieldflow/internal/domain/entity"
)

// FormRepository defines persistence operations for FormSubmission
type FormRepository interface {
	Create(ctx context.Context, form *entity.FormSubmission) error
	GetByID(ctx context.Context, id string) (*entity.FormSubmission, error)
	GetByJobPONumber(ctx context.Context, jobPO string) (*entity.FormSubmission, error)
	List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error)

	// Update persists all mutable columns. It succeeds only when the stored
	// version matches form.Version and bumps the version on success;
	// otherwise it returns ErrVersionConflict.
	Update(ctx context.Context, form *entity.FormSubmission) error

	// MarkNotified sets http_post_sent after a successful webhook delivery.
	// It does not bump the version; notification outcome never contends with
	// workflow writes.
	MarkNotified(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error
}

// HistoryRepository defines persistence operations for WorkflowHistoryEntry.
// Entries are append-only; there is no update or delete.
type HistoryRepository interface {
	Create(ctx context.Context, entry *entity.WorkflowHistoryEntry) error
	GetByFormID(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
