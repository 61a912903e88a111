package request_models

type UpdateRatesRequest struct {
	HourlyRate       float64            `json:"hourly_rate" binding:"gte=0"`
	SquareMeterRates map[string]float64 `json:"square_meter_rates"`
	Specialties      []string           `json:"specialties"`
}

type SubmitVerificationRequest struct {
	Documents []string `json:"documents" binding:"required,min=1,dive,url"`
}

type VerifyProfessionalRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"max=1000"`
}

type ListReviewsQuery struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

type ListProfessionalsQuery struct {
	WorkType string `form:"work_type"`
	Verified *bool  `form:"verified"`
}
