package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/services"
	"khaja/pkg/utils"
)

type ProjectController struct {
	projectService services.ProjectServiceInterface
	disputeService services.DisputeServiceInterface
}

func NewProjectController(projectService services.ProjectServiceInterface, disputeService services.DisputeServiceInterface) *ProjectController {
	return &ProjectController{
		projectService: projectService,
		disputeService: disputeService,
	}
}

type projectAction func(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)

// Create godoc
// @Summary Request a project
// @Description With subscription_id the request consumes one task of the work type's category; a denial answers 403 and nothing is created.
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body request_models.CreateProjectRequest true "Project"
// @Success 201 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects [post]
func (p *ProjectController) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req request_models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	project, err := p.projectService.Create(c.Request.Context(), actor, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, project, "Project created successfully")
}

// List godoc
// @Summary List projects
// @Description Clients get their projects, professionals their assignments plus open offers
// @Tags Projects
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects [get]
func (p *ProjectController) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	projects, err := p.projectService.List(c.Request.Context(), actor)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, projects, "Projects fetched successfully")
}

// Get godoc
// @Summary Get a project with its quotes
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id} [get]
func (p *ProjectController) Get(c *gin.Context) {
	p.run(c, p.projectService.Get, "Project fetched successfully")
}

// Publish godoc
// @Summary Publish a project as an open offer
// @Description Requires a plan with the publish_offers capability
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/publish [post]
func (p *ProjectController) Publish(c *gin.Context) {
	p.run(c, p.projectService.Publish, "Project published")
}

// Start godoc
// @Summary Start the work
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/start [post]
func (p *ProjectController) Start(c *gin.Context) {
	p.run(c, p.projectService.Start, "Project started")
}

// Complete godoc
// @Summary Mark the work completed
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/complete [post]
func (p *ProjectController) Complete(c *gin.Context) {
	p.run(c, p.projectService.Complete, "Project completed")
}

// Validate godoc
// @Summary Validate completed work
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/validate [post]
func (p *ProjectController) Validate(c *gin.Context) {
	p.run(c, p.projectService.Validate, "Project validated")
}

// Cancel godoc
// @Summary Cancel a project request
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/cancel [post]
func (p *ProjectController) Cancel(c *gin.Context) {
	p.run(c, p.projectService.Cancel, "Project cancelled")
}

// Review godoc
// @Summary Review a validated project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body request_models.ReviewProjectRequest true "Rating and comment"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/review [post]
func (p *ProjectController) Review(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.ReviewProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	project, err := p.projectService.Review(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, project, "Review recorded")
}

// OpenDispute godoc
// @Summary Open a dispute on a project
// @Description The client or the assigned professional freezes a project under work
// @Tags Disputes
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body request_models.OpenDisputeRequest true "Reason"
// @Success 201 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/disputes [post]
func (p *ProjectController) OpenDispute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request_models.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	dispute, err := p.disputeService.Open(c.Request.Context(), actor, id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, dispute, "Dispute opened")
}

func (p *ProjectController) run(c *gin.Context, action projectAction, message string) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := action(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, project, message)
}
