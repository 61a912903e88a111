package request_models

type AutomaticQuoteRequest struct {
	SurfaceArea         float64 `json:"surface_area"`
	WorkType            string  `json:"work_type"`
	Location            string  `json:"location,omitempty"`
	PropertyType        string  `json:"property_type,omitempty"`
	SpecialRequirements string  `json:"special_requirements,omitempty"`
}

type GenerateProjectQuotesRequest struct {
	AutoAccept bool `json:"auto_accept"`
}

type SubmitQuoteRequest struct {
	Price                 float64 `json:"price" binding:"required,gt=0"`
	EstimatedDurationDays int     `json:"estimated_duration_days" binding:"required,min=1"`
	EstimatedHours        int     `json:"estimated_hours" binding:"omitempty,min=0"`
	Message               string  `json:"message" binding:"max=2000"`
}

type CounterQuoteRequest struct {
	Price   float64 `json:"price" binding:"required,gt=0"`
	Message string  `json:"message" binding:"max=2000"`
}
