package models

import (
	"time"

	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// Pass is a time-boxed authorization for one exit/entry cycle through a gate.
type Pass struct {
	ID      uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID  uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type    enums.PassType `gorm:"type:text;not null" json:"type"`
	Purpose *string        `gorm:"column:purpose" json:"purpose,omitempty"`

	ValidFrom time.Time `gorm:"column:valid_from;not null" json:"valid_from"`
	ValidTo   time.Time `gorm:"column:valid_to;not null" json:"valid_to"`

	// Barcode is globally unique and immutable once created.
	Barcode string           `gorm:"type:text;not null;uniqueIndex" json:"barcode"`
	Status  enums.PassStatus `gorm:"type:text;not null;index" json:"status"`

	RejectionReason *string `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`

	// ExitTime/EntryTime are set by gate scans; EntryTime is only ever set
	// after ExitTime.
	ExitTime  *time.Time `gorm:"column:exit_time" json:"exit_time,omitempty"`
	EntryTime *time.Time `gorm:"column:entry_time" json:"entry_time,omitempty"`

	// OverdueAlertedAt marks that the overdue-return sweep already alerted
	// for this pass.
	OverdueAlertedAt *time.Time `gorm:"column:overdue_alerted_at" json:"-"`

	// Version backs the optimistic conditional update; every mutation
	// increments it.
	Version int `gorm:"column:version;not null;default:0" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Student *User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName keeps the plural snake_case convention explicit.
func (Pass) TableName() string {
	return "passes"
}
