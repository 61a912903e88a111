package response_models

type PlanServiceLimit struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	// 0 means the service is bounded by the monthly quota only
	MonthlyLimit int `json:"monthly_limit"`
}

type PlanResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	MaxTasks         int                `json:"max_tasks"`
	MonthlyPrice     float64            `json:"monthly_price"`
	PublishOffers    bool               `json:"publish_offers"`
	AutoAcceptQuotes bool               `json:"auto_accept_quotes"`
	Services         []PlanServiceLimit `json:"services"`
}
