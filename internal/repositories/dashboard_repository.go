package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"khaja/internal/entitlement"
	dbm "khaja/internal/models/db_models"
)

type DashboardRepository interface {
	// KPIs / counts
	CountAccountsByRole(ctx context.Context) ([]GroupCount, error)
	CountNewAccounts(ctx context.Context, start, end time.Time) (int64, error)
	CountSubscriptionsByStatus(ctx context.Context) ([]GroupCount, error)
	CountProjectsByStatus(ctx context.Context) ([]GroupCount, error)
	CountOpenDisputes(ctx context.Context) (int64, error)
	CountPendingVerifications(ctx context.Context) (int64, error)

	// Plan mix (active subs)
	PlanMix(ctx context.Context) ([]GroupCount, error)

	// Ledger
	LedgerTotal(ctx context.Context, start, end time.Time) (float64, error)
	RecentTransactions(ctx context.Context, limit int) ([]RecentTransactionRow, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// ---------- Row helpers ----------
type GroupCount struct {
	Key   string `gorm:"column:grp"`
	Count int64  `gorm:"column:count"`
}

type RecentTransactionRow struct {
	ID           string    `gorm:"column:id"`
	Date         time.Time `gorm:"column:date"`
	Amount       float64   `gorm:"column:amount"`
	Type         string    `gorm:"column:type"`
	PlanID       string    `gorm:"column:plan_id"`
	AccountEmail string    `gorm:"column:email"`
}

func (r *dashboardRepository) groupCount(ctx context.Context, model interface{}, column string, scope func(*gorm.DB) *gorm.DB) ([]GroupCount, error) {
	var rows []GroupCount
	q := r.db.WithContext(ctx).Model(model)
	if scope != nil {
		q = scope(q)
	}
	err := q.Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// ---------- Counts ----------
func (r *dashboardRepository) CountAccountsByRole(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &dbm.Account{}, "role", nil)
}

func (r *dashboardRepository) CountNewAccounts(ctx context.Context, start, end time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Account{}).
		Where("created_at BETWEEN ? AND ?", start.Unix(), end.Unix()).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountSubscriptionsByStatus(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &dbm.Subscription{}, "status", nil)
}

func (r *dashboardRepository) CountProjectsByStatus(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &dbm.Project{}, "status", nil)
}

func (r *dashboardRepository) CountOpenDisputes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Dispute{}).
		Where("status = ?", dbm.DisputeOpen).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountPendingVerifications(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Professional{}).
		Where("verification_status = ?", dbm.VerificationPending).
		Count(&n).Error
	return n, err
}

// ---------- Plan mix ----------
func (r *dashboardRepository) PlanMix(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &dbm.Subscription{}, "plan_id", func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ?", entitlement.StatusActive)
	})
}

// ---------- Ledger ----------
func (r *dashboardRepository) LedgerTotal(ctx context.Context, start, end time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&dbm.SubscriptionTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("date >= ? AND date < ?", start, end).
		Scan(&total).Error
	return total, err
}

func (r *dashboardRepository) RecentTransactions(ctx context.Context, limit int) ([]RecentTransactionRow, error) {
	var rows []RecentTransactionRow
	err := r.db.WithContext(ctx).
		Table("subscription_transactions t").
		Select("t.id, t.date, t.amount, t.type, s.plan_id, a.email").
		Joins("JOIN subscriptions s ON s.id = t.subscription_id").
		Joins("LEFT JOIN accounts a ON a.id = s.client_id").
		Order("t.date DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
