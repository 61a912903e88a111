package db_models

import "github.com/google/uuid"

type QuoteSource string

const (
	QuoteAuto   QuoteSource = "auto"
	QuoteManual QuoteSource = "manual"
)

type QuoteStatus string

const (
	QuotePending   QuoteStatus = "pending"
	QuoteCountered QuoteStatus = "countered"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
)

// Open reports whether the quote can still be accepted, countered or rejected.
func (s QuoteStatus) Open() bool {
	return s == QuotePending || s == QuoteCountered
}

type Quote struct {
	BaseModel
	ProjectID      uuid.UUID   `gorm:"type:uuid;index;not null"`
	ProfessionalID uuid.UUID   `gorm:"type:uuid;index;not null"`
	Source         QuoteSource `gorm:"type:varchar(8);not null"`
	Status         QuoteStatus `gorm:"type:varchar(16);index;not null"`

	Price                 float64 `gorm:"type:numeric(12,2);not null"`
	EstimatedHours        int
	EstimatedDurationDays int
	Message               string `gorm:"type:text"`

	CounterPrice   *float64 `gorm:"type:numeric(12,2)"`
	CounterMessage string   `gorm:"type:text"`
}

// FinalPrice is the price that binds once the quote is accepted.
func (q Quote) FinalPrice() float64 {
	if q.Status == QuoteCountered || (q.Status == QuoteAccepted && q.CounterPrice != nil) {
		return *q.CounterPrice
	}
	return q.Price
}
