package locations

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// Actor identifies who is reading a student's location trail.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// RecordLocationRequest is a single ping from the student's device. The
// geofence flag is computed on the client; the server only reacts to it.
type RecordLocationRequest struct {
	Latitude          float64  `json:"latitude" validate:"required,latitude"`
	Longitude         float64  `json:"longitude" validate:"required,longitude"`
	Accuracy          *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	GeofenceViolation bool     `json:"geofence_violation"`
}

// LocationDTO is the transport shape of a location ping.
type LocationDTO struct {
	ID                uuid.UUID `json:"id"`
	StudentID         uuid.UUID `json:"student_id"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Accuracy          *float64  `json:"accuracy,omitempty"`
	GeofenceViolation bool      `json:"geofence_violation"`
	RecordedAt        time.Time `json:"recorded_at"`
}

func fromModel(loc *models.Location) *LocationDTO {
	if loc == nil {
		return nil
	}
	return &LocationDTO{
		ID:                loc.ID,
		StudentID:         loc.StudentID,
		Latitude:          loc.Latitude,
		Longitude:         loc.Longitude,
		Accuracy:          loc.Accuracy,
		GeofenceViolation: loc.GeofenceViolation,
		RecordedAt:        loc.RecordedAt,
	}
}

func fromModels(rows []models.Location) []LocationDTO {
	dtos := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *fromModel(&rows[i]))
	}
	return dtos
}
