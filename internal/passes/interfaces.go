package passes

import (
	"context"
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the passes table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pass *models.Pass) (*models.Pass, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pass, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Pass, error)
	// UpdateVersioned applies updates only when the stored version still
	// matches and bumps the version by one. Returns false on a lost race.
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params listPassesParams) ([]models.Pass, *pagination.Cursor, error)
	ListByStatuses(ctx context.Context, statuses []enums.PassStatus, params listPassesParams) ([]models.Pass, *pagination.Cursor, error)
	ListPendingForParent(ctx context.Context, parentID uuid.UUID, params listPassesParams) ([]models.Pass, *pagination.Cursor, error)
	ListHistory(ctx context.Context, params listPassesParams) ([]models.Pass, *pagination.Cursor, error)
	FindOverdue(ctx context.Context, asOf time.Time, grace time.Duration) ([]models.Pass, error)
	MarkOverdueAlerted(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type listPassesParams struct {
	Limit  int
	Cursor *pagination.Cursor
	Status *enums.PassStatus
}
