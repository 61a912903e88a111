package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Professional carries the rate card of a professional account.
type Professional struct {
	BaseModel
	AccountID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	DisplayName string    `gorm:"not null"`
	City        string

	HourlyRate       float64 `gorm:"type:numeric(10,2);not null;default:0"`
	Verified         bool    `gorm:"not null;default:false;index"`
	SquareMeterRates datatypes.JSONType[map[string]float64]
	Specialties      datatypes.JSONSlice[string]

	VerificationStatus    VerificationStatus `gorm:"type:varchar(16);not null;default:'none'"`
	VerificationDocuments datatypes.JSONSlice[string]
	VerificationNote      string
}

func (p Professional) HasSpecialty(workType string) bool {
	for _, s := range p.Specialties {
		if s == workType {
			return true
		}
	}
	return false
}
