package sos

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// TriggerRequest is the payload for raising a manual SOS alert.
type TriggerRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// AlertDTO is the transport shape of an SOS alert.
type AlertDTO struct {
	ID         uuid.UUID          `json:"id"`
	StudentID  uuid.UUID          `json:"student_id"`
	Latitude   *float64           `json:"latitude,omitempty"`
	Longitude  *float64           `json:"longitude,omitempty"`
	AlertType  enums.SOSAlertType `json:"alert_type"`
	Status     enums.SOSStatus    `json:"status"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID         `json:"resolved_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func fromModel(alert *models.SOSAlert) *AlertDTO {
	if alert == nil {
		return nil
	}
	return &AlertDTO{
		ID:         alert.ID,
		StudentID:  alert.StudentID,
		Latitude:   alert.Latitude,
		Longitude:  alert.Longitude,
		AlertType:  alert.AlertType,
		Status:     alert.Status,
		ResolvedAt: alert.ResolvedAt,
		ResolvedBy: alert.ResolvedBy,
		CreatedAt:  alert.CreatedAt,
	}
}

func fromModels(rows []models.SOSAlert) []AlertDTO {
	dtos := make([]AlertDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *fromModel(&rows[i]))
	}
	return dtos
}
