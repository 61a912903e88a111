package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"khaja/internal/models/request_models"
	"khaja/internal/services"
	"khaja/pkg/utils"
)

type QuoteController struct {
	quoteService services.QuoteServiceInterface
}

func NewQuoteController(quoteService services.QuoteServiceInterface) *QuoteController {
	return &QuoteController{quoteService: quoteService}
}

// Automatic godoc
// @Summary Compute automatic quotes
// @Description Prices the work from every verified professional offering the work type, cheapest first
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body request_models.AutomaticQuoteRequest true "Work description"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /quotes/automatic [post]
func (q *QuoteController) Automatic(c *gin.Context) {
	var req request_models.AutomaticQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := q.quoteService.Automatic(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Quotes computed successfully")
}

// GenerateForProject godoc
// @Summary Store automatic quotes on a project
// @Description With auto_accept and a plan allowing it, the cheapest quote is accepted at once
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body request_models.GenerateProjectQuotesRequest false "Options"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/auto-quotes [post]
func (q *QuoteController) GenerateForProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.GenerateProjectQuotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	project, err := q.quoteService.GenerateForProject(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, project, "Quotes generated successfully")
}

// Submit godoc
// @Summary Submit a manual quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body request_models.SubmitQuoteRequest true "Quote"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/quotes [post]
func (q *QuoteController) Submit(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	quote, err := q.quoteService.SubmitManual(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, quote, "Quote submitted successfully")
}

// ListForProject godoc
// @Summary Quotes of a project
// @Description Clients see every quote, professionals only their own
// @Tags Quotes
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/quotes [get]
func (q *QuoteController) ListForProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quotes, err := q.quoteService.ListForProject(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, quotes, "Quotes fetched successfully")
}

// Counter godoc
// @Summary Counter a pending quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body request_models.CounterQuoteRequest true "Counter offer"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/counter [post]
func (q *QuoteController) Counter(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.CounterQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	quote, err := q.quoteService.Counter(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, quote, "Counter offer sent")
}

// Accept godoc
// @Summary Accept a quote
// @Description The client accepts a pending quote, the professional accepts a countered one
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/accept [post]
func (q *QuoteController) Accept(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quote, err := q.quoteService.Accept(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, quote, "Quote accepted")
}

// Reject godoc
// @Summary Reject a quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /quotes/{id}/reject [post]
func (q *QuoteController) Reject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	quote, err := q.quoteService.Reject(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, quote, "Quote rejected")
}
