package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"khaja/internal/models/request_models"
	"khaja/internal/services"
	"khaja/pkg/utils"
)

type ProfessionalController struct {
	professionalService services.ProfessionalServiceInterface
}

func NewProfessionalController(professionalService services.ProfessionalServiceInterface) *ProfessionalController {
	return &ProfessionalController{professionalService: professionalService}
}

// List godoc
// @Summary List professionals
// @Tags Professionals
// @Produce json
// @Param work_type query string false "Only professionals offering this work type"
// @Param verified query bool false "Verification filter"
// @Success 200 {object} utils.APIResponse
// @Router /professionals [get]
func (p *ProfessionalController) List(c *gin.Context) {
	var query request_models.ListProfessionalsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	pros, err := p.professionalService.List(c.Request.Context(), query)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pros, "Professionals fetched successfully")
}

// Get godoc
// @Summary Get a professional
// @Tags Professionals
// @Produce json
// @Param id path string true "Professional ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /professionals/{id} [get]
func (p *ProfessionalController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pro, err := p.professionalService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pro, "Professional fetched successfully")
}

// Reviews godoc
// @Summary List a professional's reviews
// @Tags Professionals
// @Produce json
// @Param id path string true "Professional ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /professionals/{id}/reviews [get]
func (p *ProfessionalController) Reviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var query request_models.ListReviewsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	reviews, err := p.professionalService.ListReviews(c.Request.Context(), id, query.Page, query.PageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, reviews, "Reviews fetched successfully")
}

// UpdateMyRates godoc
// @Summary Edit the caller's rate card
// @Tags Professionals
// @Accept json
// @Produce json
// @Param request body request_models.UpdateRatesRequest true "Rates"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /professionals/me/rates [put]
func (p *ProfessionalController) UpdateMyRates(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req request_models.UpdateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	pro, err := p.professionalService.UpdateMyRates(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pro, "Rates updated successfully")
}

// SubmitVerification godoc
// @Summary Submit verification documents
// @Tags Professionals
// @Accept json
// @Produce json
// @Param request body request_models.SubmitVerificationRequest true "Document URLs"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /professionals/me/verification [post]
func (p *ProfessionalController) SubmitVerification(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req request_models.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	pro, err := p.professionalService.SubmitVerification(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pro, "Verification submitted")
}

// AdminUpdateRates godoc
// @Summary Edit a professional's rate card
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Professional ID"
// @Param request body request_models.UpdateRatesRequest true "Rates"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/professionals/{id}/rates [put]
func (p *ProfessionalController) AdminUpdateRates(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.UpdateRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	pro, err := p.professionalService.AdminUpdateRates(c.Request.Context(), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pro, "Rates updated successfully")
}

// Verify godoc
// @Summary Approve or reject a verification
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Professional ID"
// @Param request body request_models.VerifyProfessionalRequest true "Decision"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/professionals/{id}/verify [post]
func (p *ProfessionalController) Verify(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.VerifyProfessionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	pro, err := p.professionalService.Verify(c.Request.Context(), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, pro, "Verification updated")
}
