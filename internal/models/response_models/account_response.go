package response_models

import "github.com/google/uuid"

type AccountLoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	Role      string `json:"role"`
}

type AccountResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	ActiveSubscription *uuid.UUID `json:"active_subscription_id,omitempty"`
	ProfessionalID     *uuid.UUID `json:"professional_id,omitempty"`
}

type AccountPage struct {
	Items    []AccountResponse `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
