package db_models

import "github.com/google/uuid"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

type DisputeOutcome string

const (
	OutcomeResume DisputeOutcome = "resume"
	OutcomeClose  DisputeOutcome = "close"
)

type Dispute struct {
	BaseModel
	ProjectID  uuid.UUID      `gorm:"type:uuid;index;not null"`
	OpenedBy   uuid.UUID      `gorm:"type:uuid;not null"`
	Reason     string         `gorm:"type:text;not null"`
	Status     DisputeStatus  `gorm:"type:varchar(16);index;not null"`
	Outcome    DisputeOutcome `gorm:"type:varchar(16)"`
	Resolution string         `gorm:"type:text"`
	ResolvedBy *uuid.UUID     `gorm:"type:uuid"`
	ResolvedAt *int64
}
