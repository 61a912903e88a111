package response_models

import "github.com/google/uuid"

type ProfessionalResponse struct {
	ID                 uuid.UUID          `json:"id"`
	AccountID          uuid.UUID          `json:"account_id"`
	DisplayName        string             `json:"display_name"`
	City               string             `json:"city,omitempty"`
	HourlyRate         float64            `json:"hourly_rate"`
	SquareMeterRates   map[string]float64 `json:"square_meter_rates"`
	Specialties        []string           `json:"specialties"`
	Verified           bool               `json:"verified"`
	VerificationStatus string             `json:"verification_status"`
	AverageRating      *float64           `json:"average_rating,omitempty"`
}

type ReviewResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt int64     `json:"created_at"`
}
