package response_models

import "github.com/google/uuid"

type ProjectResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ClientID            uuid.UUID       `json:"client_id"`
	ProfessionalID      *uuid.UUID      `json:"professional_id,omitempty"`
	SubscriptionID      *uuid.UUID      `json:"subscription_id,omitempty"`
	WorkType            string          `json:"work_type"`
	SurfaceArea         float64         `json:"surface_area"`
	Description         string          `json:"description,omitempty"`
	Location            string          `json:"location,omitempty"`
	PropertyType        string          `json:"property_type,omitempty"`
	SpecialRequirements string          `json:"special_requirements,omitempty"`
	Status              string          `json:"status"`
	Published           bool            `json:"published"`
	AcceptedQuoteID     *uuid.UUID      `json:"accepted_quote_id,omitempty"`
	AgreedPrice         *float64        `json:"agreed_price,omitempty"`
	CreatedAt           int64           `json:"created_at"`
	Quotes              []QuoteResponse `json:"quotes,omitempty"`
}

type DisputeResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	OpenedBy   uuid.UUID  `json:"opened_by"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Outcome    string     `json:"outcome,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
	CreatedAt  int64      `json:"created_at"`
}
