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

type repository struct {
	db *gorm.DB
}

// NewRepository builds a passes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pass *models.Pass) (*models.Pass, error) {
	if err := r.db.WithContext(ctx).Create(pass).Error; err != nil {
		return nil, err
	}
	return pass, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pass, error) {
	var pass models.Pass
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("id = ?", id).
		First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (r *repository) FindByBarcode(ctx context.Context, barcode string) (*models.Pass, error) {
	var pass models.Pass
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("barcode = ?", barcode).
		First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (r *repository) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error) {
	merged := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = version + 1
	merged["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.Pass{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Pass{}).Where("user_id = ?", userID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	return r.page(query, params)
}

func (r *repository) ListByStatuses(ctx context.Context, statuses []enums.PassStatus, params listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Pass{}).
		Preload("Student").
		Where("status IN ?", statuses)
	return r.page(query, params)
}

func (r *repository) ListPendingForParent(ctx context.Context, parentID uuid.UUID, params listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Pass{}).
		Preload("Student").
		Joins("JOIN users ON users.id = passes.user_id").
		Where("users.parent_id = ?", parentID).
		Where("passes.type = ?", enums.PassTypeOuting).
		Where("passes.status = ?", enums.PassStatusPending)
	return r.page(query, params)
}

func (r *repository) ListHistory(ctx context.Context, params listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Pass{}).
		Preload("Student").
		Where("status <> ?", enums.PassStatusPending)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	if params.Cursor != nil {
		query = query.Where("(passes.created_at, passes.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Pass
	if err := query.Order("passes.created_at DESC, passes.id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		// the cursor marks the last delivered row; the strict < filter
		// resumes at the row after it
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// FindOverdue returns exited passes whose window closed more than grace ago
// and that have not been alerted yet.
func (r *repository) FindOverdue(ctx context.Context, asOf time.Time, grace time.Duration) ([]models.Pass, error) {
	cutoff := asOf.Add(-grace)
	var rows []models.Pass
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("status = ?", enums.PassStatusExited).
		Where("valid_to < ?", cutoff).
		Where("overdue_alerted_at IS NULL").
		Order("valid_to ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkOverdueAlerted(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Pass{}).
		Where("id IN ?", ids).
		UpdateColumn("overdue_alerted_at", at).Error
}
