package locations

import (
	"context"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists location pings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, loc *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(loc).Error; err != nil {
		return nil, err
	}
	return loc, nil
}

// Latest returns the most recent ping for the student.
func (r *Repository) Latest(ctx context.Context, studentID uuid.UUID) (*models.Location, error) {
	var loc models.Location
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("recorded_at DESC, id DESC").
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// History returns the student's pings newest first, capped at limit.
func (r *Repository) History(ctx context.Context, studentID uuid.UUID, limit int) ([]models.Location, error) {
	var locs []models.Location
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("recorded_at DESC, id DESC").
		Limit(limit).
		Find(&locs).Error
	if err != nil {
		return nil, err
	}
	return locs, nil
}
