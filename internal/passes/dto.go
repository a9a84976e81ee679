package passes

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role enums.Role
}

// CreatePassRequest is the payload for requesting a new pass.
type CreatePassRequest struct {
	Type      string    `json:"type" validate:"required,oneof=outing home medical other"`
	Purpose   *string   `json:"purpose,omitempty"`
	ValidFrom time.Time `json:"valid_from" validate:"required"`
	ValidTo   time.Time `json:"valid_to" validate:"required"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PassDTO is the transport shape of a pass.
type PassDTO struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	StudentName     string           `json:"student_name,omitempty"`
	Type            enums.PassType   `json:"type"`
	Purpose         *string          `json:"purpose,omitempty"`
	ValidFrom       time.Time        `json:"valid_from"`
	ValidTo         time.Time        `json:"valid_to"`
	Barcode         string           `json:"barcode"`
	Status          enums.PassStatus `json:"status"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	ExitTime        *time.Time       `json:"exit_time,omitempty"`
	EntryTime       *time.Time       `json:"entry_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ListResult wraps returned passes and the cursor for the next page.
type ListResult struct {
	Items  []PassDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

// ListParams configures pagination and filtering for pass listings.
type ListParams struct {
	Limit  int
	Cursor string
	Status string
}

func FromModel(p *models.Pass) *PassDTO {
	if p == nil {
		return nil
	}

	dto := &PassDTO{
		ID:              p.ID,
		UserID:          p.UserID,
		Type:            p.Type,
		Purpose:         p.Purpose,
		ValidFrom:       p.ValidFrom,
		ValidTo:         p.ValidTo,
		Barcode:         p.Barcode,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		ExitTime:        p.ExitTime,
		EntryTime:       p.EntryTime,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Student != nil {
		dto.StudentName = p.Student.Name
	}
	return dto
}

func fromModels(rows []models.Pass) []PassDTO {
	dtos := make([]PassDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos
}
