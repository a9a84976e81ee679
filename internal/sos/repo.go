package sos

import (
	"context"
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists SOS alerts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, alert *models.SOSAlert) (*models.SOSAlert, error) {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SOSAlert, error) {
	var alert models.SOSAlert
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListActive returns open alerts, oldest first so the longest-waiting
// student surfaces at the top of the warden's queue.
func (r *Repository) ListActive(ctx context.Context) ([]models.SOSAlert, error) {
	var alerts []models.SOSAlert
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.SOSStatusActive).
		Order("created_at ASC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// Resolve closes an active alert. The status guard in the WHERE clause makes
// concurrent resolves settle on a single winner; false means the alert was
// missing or already resolved.
func (r *Repository) Resolve(ctx context.Context, id, resolvedBy uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SOSAlert{}).
		Where("id = ? AND status = ?", id, enums.SOSStatusActive).
		Updates(map[string]any{
			"status":      enums.SOSStatusResolved,
			"resolved_at": at,
			"resolved_by": resolvedBy,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
