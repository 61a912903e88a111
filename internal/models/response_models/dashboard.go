package response_models

import (
	"time"

	"github.com/google/uuid"
)

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type KPIBlock struct {
	TotalAccounts          int64 `json:"total_accounts"`
	NewAccounts            int64 `json:"new_accounts"`
	ActiveSubscriptions    int64 `json:"active_subscriptions"`
	CancelledSubscriptions int64 `json:"cancelled_subscriptions"`
	OpenDisputes           int64 `json:"open_disputes"`
	PendingVerifications   int64 `json:"pending_verifications"`

	// Financial KPIs, in euros
	MRR         float64 `json:"mrr"`  // sum of active plans' monthly price
	ARR         float64 `json:"arr"`  // 12 * MRR
	ARPU        float64 `json:"arpu"` // MRR per active subscription
	LedgerTotal float64 `json:"ledger_total"`
}

type PlanMixItem struct {
	PlanID       string  `json:"plan_id"`
	PlanName     string  `json:"plan_name"`
	Count        int64   `json:"count"`
	Percent      float64 `json:"percent"`
	MonthlyPrice float64 `json:"monthly_price"`
}

type RecentTransaction struct {
	ID           uuid.UUID `json:"id"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
	Type         string    `json:"type"`
	PlanID       string    `json:"plan_id"`
	AccountEmail string    `json:"account_email"`
}

type DashboardReport struct {
	Range                 TimeRange           `json:"range"`
	KPIs                  KPIBlock            `json:"kpis"`
	AccountsByRole        map[string]int64    `json:"accounts_by_role"`
	SubscriptionsByStatus map[string]int64    `json:"subscriptions_by_status"`
	ProjectsByStatus      map[string]int64    `json:"projects_by_status"`
	PlanMix               []PlanMixItem       `json:"plan_mix"`
	RecentTransactions    []RecentTransaction `json:"recent_transactions"`
}
