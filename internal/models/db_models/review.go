package db_models

import "github.com/google/uuid"

type Review struct {
	BaseModel
	ProjectID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID       uuid.UUID `gorm:"type:uuid;not null"`
	ProfessionalID uuid.UUID `gorm:"type:uuid;index;not null"`
	Rating         int       `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment        string    `gorm:"type:text"`
}
