package db_models

import (
	"time"

	"github.com/google/uuid"

	"khaja/internal/entitlement"
)

// Subscription is a client's plan. Usage columns come from entitlement.UsageState; Version
// is bumped on every conditional write.
type Subscription struct {
	BaseModel
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`
	entitlement.UsageState

	StartDate       time.Time  `gorm:"not null"`
	EndDate         time.Time  `gorm:"not null"`
	LastPaymentDate time.Time  `gorm:"not null"`
	NextPaymentDate time.Time  `gorm:"not null"`
	AutoRenew       bool       `gorm:"not null;default:true"`
	ProjectID       *uuid.UUID `gorm:"type:uuid"`
	Version         int64      `gorm:"not null;default:0"`

	Transactions []SubscriptionTransaction `gorm:"foreignKey:SubscriptionID"`
}
