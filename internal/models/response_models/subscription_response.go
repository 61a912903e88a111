package response_models

import (
	"time"

	"github.com/google/uuid"

	"khaja/internal/entitlement"
)

type TransactionResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        time.Time `json:"date"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
}

type SubscriptionResponse struct {
	ID                 uuid.UUID                `json:"id"`
	ClientID           uuid.UUID                `json:"client_id"`
	PlanID             string                   `json:"plan_id"`
	Status             string                   `json:"status"`
	StartDate          time.Time                `json:"start_date"`
	EndDate            time.Time                `json:"end_date"`
	LastPaymentDate    time.Time                `json:"last_payment_date"`
	NextPaymentDate    time.Time                `json:"next_payment_date"`
	AutoRenew          bool                     `json:"auto_renew"`
	TasksUsedThisMonth int                      `json:"tasks_used_this_month"`
	MaxTasks           int                      `json:"max_tasks"`
	ServicesUsed       []entitlement.UsageEntry `json:"services_used"`
	LastResetDate      time.Time                `json:"last_reset_date"`
	ProjectID          *uuid.UUID               `json:"project_id,omitempty"`
	Transactions       []TransactionResponse    `json:"transactions,omitempty"`
}

type SubscriptionPage struct {
	Items    []SubscriptionResponse `json:"items"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

type UsageResponse struct {
	Stats        entitlement.Stats                 `json:"stats"`
	Services     []entitlement.ServiceAvailability `json:"services"`
	ServicesUsed []entitlement.UsageEntry          `json:"services_used"`
}

type ConsumeUsageResponse struct {
	Success        bool `json:"success"`
	RemainingTasks int  `json:"remaining_tasks"`
}

// UsageDenial is the body returned when an entitlement check refuses a consumption.
type UsageDenial struct {
	Error   string `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
