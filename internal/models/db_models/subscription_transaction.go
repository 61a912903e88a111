package db_models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxnPayment      TransactionType = "payment"
	TxnAdjustment   TransactionType = "adjustment"
	TxnCancellation TransactionType = "cancellation"
)

var ErrLedgerImmutable = errors.New("ledger entries are append-only")

// SubscriptionTransaction is one ledger line. Rows are inserted, never updated or deleted.
type SubscriptionTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID       `gorm:"type:uuid;index;not null" json:"subscription_id"`
	Date           time.Time       `gorm:"not null;index" json:"date"`
	Amount         float64         `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type           TransactionType `gorm:"type:varchar(16);not null" json:"type"`
	Description    string          `json:"description"`
	CreatedAt      int64           `gorm:"autoCreateTime" json:"created_at"`
}

func (t *SubscriptionTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *SubscriptionTransaction) BeforeUpdate(tx *gorm.DB) error { return ErrLedgerImmutable }

func (t *SubscriptionTransaction) BeforeDelete(tx *gorm.DB) error { return ErrLedgerImmutable }
