package controllers

import (
	"github.com/gin-gonic/gin"

	"khaja/internal/services"
	"khaja/pkg/utils"
)

type PlanController struct {
	planService services.PlanServiceInterface
}

func NewPlanController(planService services.PlanServiceInterface) *PlanController {
	return &PlanController{planService: planService}
}

// ListPlans godoc
// @Summary List subscription plans
// @Description Catalog tiers with included categories, sub-limits and capabilities
// @Tags Plans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /plans [get]
func (p *PlanController) ListPlans(c *gin.Context) {
	utils.RespondSuccess(c, p.planService.GetPlans(), "Plans fetched successfully")
}
