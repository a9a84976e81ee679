package models

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// User represents a campus account: student, parent, warden, guard or admin.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string     `gorm:"type:text;not null" json:"name"`
	Email        string     `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.Role `gorm:"type:text;not null;default:'student'" json:"role"`
	// ParentID links a student to at most one parent account; set once by
	// the parent link operation (first writer wins).
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid" json:"parent_id,omitempty"`
	DeviceToken *string    `gorm:"column:device_token" json:"-"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName keeps the plural snake_case convention explicit.
func (User) TableName() string {
	return "users"
}
