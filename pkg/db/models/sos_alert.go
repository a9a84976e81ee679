package models

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// SOSAlert records a manual SOS or a geofence-violation alert for a student.
type SOSAlert struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StudentID  uuid.UUID          `gorm:"column:student_id;type:uuid;not null;index" json:"student_id"`
	Latitude   *float64           `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude  *float64           `gorm:"column:longitude" json:"longitude,omitempty"`
	AlertType  enums.SOSAlertType `gorm:"column:alert_type;type:text;not null" json:"alert_type"`
	Status     enums.SOSStatus    `gorm:"type:text;not null;default:'active';index" json:"status"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID         `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName keeps the plural snake_case convention explicit.
func (SOSAlert) TableName() string {
	return "sos_alerts"
}
