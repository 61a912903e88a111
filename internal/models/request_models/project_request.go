package request_models

type CreateProjectRequest struct {
	WorkType            string  `json:"work_type" binding:"required"`
	SurfaceArea         float64 `json:"surface_area" binding:"required,gt=0,lte=1000000"`
	Description         string  `json:"description" binding:"max=5000"`
	Location            string  `json:"location"`
	PropertyType        string  `json:"property_type"`
	SpecialRequirements string  `json:"special_requirements"`
	SubscriptionID      *string `json:"subscription_id" binding:"omitempty,uuid"`
}

type ReviewProjectRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type OpenDisputeRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=2000"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required,max=2000"`
	Outcome    string `json:"outcome" binding:"required,oneof=resume close"`
}
