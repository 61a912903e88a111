package services

import (
	"khaja/internal/entitlement"
	"khaja/internal/models/response_models"
)

type PlanServiceInterface interface {
	GetPlans() []response_models.PlanResponse
}

func NewPlanService(catalog *entitlement.Catalog) PlanServiceInterface {
	return &PlanService{
		catalog: catalog,
	}
}

type PlanService struct {
	catalog *entitlement.Catalog
}

// GetPlans lists the tiers from poorest to richest, services in catalog order.
func (p *PlanService) GetPlans() []response_models.PlanResponse {
	categories := p.catalog.Categories()
	plans := p.catalog.Plans()

	result := make([]response_models.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		item := response_models.PlanResponse{
			ID:               string(plan.ID),
			Name:             plan.Name,
			MaxTasks:         plan.MaxTasks,
			MonthlyPrice:     plan.MonthlyPrice,
			PublishOffers:    plan.PublishOffers,
			AutoAcceptQuotes: plan.AutoAcceptQuotes,
			Services:         make([]response_models.PlanServiceLimit, 0, len(plan.Services)),
		}
		for _, cat := range categories {
			if !plan.Includes(cat.ID) {
				continue
			}
			item.Services = append(item.Services, response_models.PlanServiceLimit{
				ServiceID:    cat.ID,
				Name:         cat.Name,
				MonthlyLimit: plan.CategoryLimit(cat.ID),
			})
		}
		result = append(result, item)
	}
	return result
}
