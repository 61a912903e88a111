package request_models

type CreateSubscriptionRequest struct {
	PlanID    string  `json:"plan_id" binding:"required"`
	AutoRenew *bool   `json:"auto_renew"`
	ProjectID *string `json:"project_id" binding:"omitempty,uuid"`
	// admin only: subscribe on behalf of a client
	ClientID *string `json:"client_id" binding:"omitempty,uuid"`
}

type UpdateSubscriptionRequest struct {
	AutoRenew *bool `json:"auto_renew"`
	// admin only
	PlanID *string `json:"plan_id"`
}

type ConsumeUsageRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required,uuid"`
	ServiceID      string `json:"service_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
}

type ListSubscriptionsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=active cancelled"`
	PlanID   string `form:"plan_id"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}
