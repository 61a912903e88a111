package response_models

import (
	"github.com/google/uuid"

	"khaja/internal/models/request_models"
	"khaja/internal/quoting"
)

type AutomaticQuoteResponse struct {
	Quotes []quoting.Quote                      `json:"quotes"`
	Input  request_models.AutomaticQuoteRequest `json:"input"`
}

type QuoteResponse struct {
	ID                    uuid.UUID `json:"id"`
	ProjectID             uuid.UUID `json:"project_id"`
	ProfessionalID        uuid.UUID `json:"professional_id"`
	Source                string    `json:"source"`
	Status                string    `json:"status"`
	Price                 float64   `json:"price"`
	EstimatedHours        int       `json:"estimated_hours"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	Message               string    `json:"message,omitempty"`
	CounterPrice          *float64  `json:"counter_price,omitempty"`
	CounterMessage        string    `json:"counter_message,omitempty"`
	CreatedAt             int64     `json:"created_at"`
}
