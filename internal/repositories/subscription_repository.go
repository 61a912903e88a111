package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/pkg/utils"
)

type SubscriptionFilter struct {
	ClientID *uuid.UUID
	Status   entitlement.Status
	PlanID   entitlement.PlanID
	Page     int
	PageSize int
}

// LedgerRow is a ledger line joined with its subscription and client, used by exports.
type LedgerRow struct {
	ID             uuid.UUID `gorm:"column:id"`
	SubscriptionID uuid.UUID `gorm:"column:subscription_id"`
	Date           time.Time `gorm:"column:date"`
	Amount         float64   `gorm:"column:amount"`
	Type           string    `gorm:"column:type"`
	Description    string    `gorm:"column:description"`
	PlanID         string    `gorm:"column:plan_id"`
	ClientEmail    string    `gorm:"column:email"`
}

type SubscriptionRepository interface {
	WithTx(tx *gorm.DB) SubscriptionRepository
	Create(ctx context.Context, sub *db_models.Subscription, entry *db_models.SubscriptionTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error)
	FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*db_models.Subscription, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]db_models.Subscription, int64, error)

	// SaveUsage writes the usage columns of sub if its version is still current.
	// It returns utils.ErrConcurrentUpdate when another writer got there first.
	SaveUsage(ctx context.Context, sub *db_models.Subscription) error
	// UpdateFields is SaveUsage for arbitrary columns, optionally appending a ledger entry
	// in the same transaction.
	UpdateFields(ctx context.Context, sub *db_models.Subscription, fields map[string]interface{}, entry *db_models.SubscriptionTransaction) error

	LedgerBetween(ctx context.Context, from, to time.Time) ([]LedgerRow, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *db_models.Subscription, entry *db_models.SubscriptionTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(sub).Error; err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		entry.SubscriptionID = sub.ID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		sub.Transactions = append(sub.Transactions, *entry)
		return nil
	})
}

func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Subscription, error) {
	q := r.db.WithContext(ctx).Preload("Transactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, created_at ASC")
	})
	return first[db_models.Subscription](q, "id = ?", id)
}

func (r *subscriptionRepository) FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*db_models.Subscription, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	return first[db_models.Subscription](q, "client_id = ? AND status = ?", clientID, entitlement.StatusActive)
}

func (r *subscriptionRepository) List(ctx context.Context, filter SubscriptionFilter) ([]db_models.Subscription, int64, error) {
	q := r.db.WithContext(ctx).Model(&db_models.Subscription{})
	if filter.ClientID != nil {
		q = q.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PlanID != "" {
		q = q.Where("plan_id = ?", filter.PlanID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []db_models.Subscription
	err := q.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, total, err
}

func (r *subscriptionRepository) SaveUsage(ctx context.Context, sub *db_models.Subscription) error {
	return r.UpdateFields(ctx, sub, map[string]interface{}{
		"tasks_used_this_month": sub.TasksUsedThisMonth,
		"services_used":         sub.ServicesUsed,
		"last_reset_date":       sub.LastResetDate,
	}, nil)
}

func (r *subscriptionRepository) UpdateFields(ctx context.Context, sub *db_models.Subscription, fields map[string]interface{}, entry *db_models.SubscriptionTransaction) error {
	updates := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now().Unix()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db_models.Subscription{}).
			Where("id = ? AND version = ?", sub.ID, sub.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrConcurrentUpdate
		}
		if entry != nil {
			entry.SubscriptionID = sub.ID
			return tx.Create(entry).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	sub.Version++
	if entry != nil {
		sub.Transactions = append(sub.Transactions, *entry)
	}
	return nil
}

func (r *subscriptionRepository) LedgerBetween(ctx context.Context, from, to time.Time) ([]LedgerRow, error) {
	var rows []LedgerRow
	err := r.db.WithContext(ctx).
		Table("subscription_transactions t").
		Select("t.id, t.subscription_id, t.date, t.amount, t.type, t.description, s.plan_id, a.email").
		Joins("JOIN subscriptions s ON s.id = t.subscription_id").
		Joins("LEFT JOIN accounts a ON a.id = s.client_id").
		Where("t.date >= ? AND t.date < ?", from, to).
		Order("t.date ASC").
		Find(&rows).Error
	return rows, err
}
