package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"khaja/internal/models/request_models"
	"khaja/internal/services"
	"khaja/pkg/utils"
)

type DisputeController struct {
	disputeService services.DisputeServiceInterface
}

func NewDisputeController(disputeService services.DisputeServiceInterface) *DisputeController {
	return &DisputeController{disputeService: disputeService}
}

// List godoc
// @Summary List disputes
// @Tags Admin
// @Produce json
// @Param status query string false "open | resolved"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/disputes [get]
func (d *DisputeController) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		utils.HandleServiceError(c, utils.ErrInvalidPage)
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil {
		utils.HandleServiceError(c, utils.ErrInvalidPageSize)
		return
	}

	disputes, err := d.disputeService.List(c.Request.Context(), actor, c.Query("status"), page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, disputes, "Disputes fetched successfully")
}

// Resolve godoc
// @Summary Resolve a dispute
// @Description resume sends the project back to work, close marks it completed
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Dispute ID"
// @Param request body request_models.ResolveDisputeRequest true "Resolution"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/disputes/{id}/resolve [post]
func (d *DisputeController) Resolve(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	dispute, err := d.disputeService.Resolve(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, dispute, "Dispute resolved")
}
