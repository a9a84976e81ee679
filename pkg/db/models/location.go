package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a single student location ping.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"column:student_id;type:uuid;not null;index" json:"student_id"`
	Latitude  float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64   `gorm:"column:longitude;not null" json:"longitude"`
	Accuracy  *float64  `gorm:"column:accuracy" json:"accuracy,omitempty"`
	// GeofenceViolation is reported by the client; the server never computes it.
	GeofenceViolation bool      `gorm:"column:geofence_violation;not null;default:false" json:"geofence_violation"`
	RecordedAt        time.Time `gorm:"column:recorded_at;autoCreateTime;index" json:"recorded_at"`
}

// TableName keeps the plural snake_case convention explicit.
func (Location) TableName() string {
	return "locations"
}
