package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/quoting"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

type ProjectServiceInterface interface {
	Create(ctx context.Context, actor request_models.Actor, req request_models.CreateProjectRequest) (*response_models.ProjectResponse, error)
	Get(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	List(ctx context.Context, actor request_models.Actor) ([]response_models.ProjectResponse, error)
	Publish(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	Start(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	Complete(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	Validate(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	Cancel(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error)
	Review(ctx context.Context, actor request_models.Actor, id uuid.UUID, req request_models.ReviewProjectRequest) (*response_models.ProjectResponse, error)
}

type ProjectService struct {
	db          *gorm.DB
	projectRepo repositories.ProjectRepository
	quoteRepo   repositories.QuoteRepository
	proRepo     repositories.ProfessionalRepository
	reviewRepo  repositories.ReviewRepositoryInterface
	usage       UsageServiceInterface
	caps        planCapabilities
	catalog     *entitlement.Catalog
	log         *zap.Logger
}

func NewProjectService(
	db *gorm.DB,
	projectRepo repositories.ProjectRepository,
	quoteRepo repositories.QuoteRepository,
	proRepo repositories.ProfessionalRepository,
	reviewRepo repositories.ReviewRepositoryInterface,
	subRepo repositories.SubscriptionRepository,
	usage UsageServiceInterface,
	catalog *entitlement.Catalog,
	log *zap.Logger,
) ProjectServiceInterface {
	return &ProjectService{
		db:          db,
		projectRepo: projectRepo,
		quoteRepo:   quoteRepo,
		proRepo:     proRepo,
		reviewRepo:  reviewRepo,
		usage:       usage,
		caps:        planCapabilities{subRepo: subRepo, catalog: catalog},
		catalog:     catalog,
		log:         log.Named("project"),
	}
}

// Create opens a project request. With a subscription_id the request draws one task of the
// work type's category, and the project only exists if that consumption succeeds.
func (s *ProjectService) Create(ctx context.Context, actor request_models.Actor, req request_models.CreateProjectRequest) (*response_models.ProjectResponse, error) {
	if !actor.IsClient() {
		return nil, utils.ErrForbidden
	}
	workType := strings.TrimSpace(req.WorkType)
	if !s.catalog.HasCategory(workType) {
		return nil, invalid("unknown work type %q", req.WorkType)
	}
	if err := quoting.ValidateInput(workType, req.SurfaceArea); err != nil {
		return nil, fmt.Errorf("%w: %w", utils.ErrInvalidInput, err)
	}
	subID, err := parseOptionalUUID(req.SubscriptionID, "subscription_id")
	if err != nil {
		return nil, err
	}

	project := &db_models.Project{
		ClientID:            actor.ID,
		SubscriptionID:      subID,
		WorkType:            workType,
		SurfaceArea:         req.SurfaceArea,
		Description:         req.Description,
		Location:            req.Location,
		PropertyType:        req.PropertyType,
		SpecialRequirements: req.SpecialRequirements,
		Status:              db_models.ProjectRequested,
	}

	if subID == nil {
		if err := s.projectRepo.Create(ctx, project); err != nil {
			return nil, dbErr(err)
		}
	} else {
		_, err := s.usage.ConsumeWith(ctx, actor, *subID, workType, 1, func(tx *gorm.DB, _ *db_models.Subscription) error {
			if err := s.projectRepo.WithTx(tx).Create(ctx, project); err != nil {
				return dbErr(err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("work_type", workType),
		zap.Bool("subscription", subID != nil),
	)
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *ProjectService) Get(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var onlyPro *uuid.UUID
	if !actor.Owns(project.ClientID) {
		pro, err := lookupProfessional(ctx, s.proRepo, actor)
		if err != nil {
			return nil, err
		}
		assigned := project.ProfessionalID != nil && *project.ProfessionalID == pro.ID
		if !assigned && !(project.Published && project.Status.OpenForQuotes()) {
			return nil, utils.ErrForbidden
		}
		onlyPro = &pro.ID
	}

	quotes, err := s.quoteRepo.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, dbErr(err)
	}

	resp := toProjectResponse(project)
	for i := range quotes {
		if onlyPro != nil && quotes[i].ProfessionalID != *onlyPro {
			continue
		}
		resp.Quotes = append(resp.Quotes, toQuoteResponse(&quotes[i]))
	}
	return &resp, nil
}

// List returns a client's own projects, or a professional's assigned projects plus open
// offers. Admins see everything.
func (s *ProjectService) List(ctx context.Context, actor request_models.Actor) ([]response_models.ProjectResponse, error) {
	var (
		projects []db_models.Project
		err      error
	)
	switch {
	case actor.IsAdmin():
		projects, err = s.projectRepo.ListAll(ctx, "")
	case actor.IsProfessional():
		pro, lookupErr := lookupProfessional(ctx, s.proRepo, actor)
		if lookupErr != nil {
			return nil, lookupErr
		}
		projects, err = s.projectRepo.ListForProfessional(ctx, pro.ID)
	default:
		projects, err = s.projectRepo.ListByClient(ctx, actor.ID)
	}
	if err != nil {
		return nil, dbErr(err)
	}

	result := make([]response_models.ProjectResponse, 0, len(projects))
	for i := range projects {
		result = append(result, toProjectResponse(&projects[i]))
	}
	return result, nil
}

func (s *ProjectService) Publish(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !project.Status.OpenForQuotes() {
		return nil, utils.ErrInvalidTransition
	}
	if project.Published {
		resp := toProjectResponse(project)
		return &resp, nil
	}
	if err := s.caps.requirePublish(ctx, project); err != nil {
		return nil, err
	}

	if err := s.projectRepo.SetPublished(ctx, project.ID); err != nil {
		return nil, dbErr(err)
	}
	project.Published = true

	s.log.Info("project published", zap.String("project_id", project.ID.String()))
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *ProjectService) Start(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.assigned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, project, db_models.ProjectInProgress)
}

func (s *ProjectService) Complete(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.assigned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, project, db_models.ProjectCompleted)
}

func (s *ProjectService) Validate(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, project, db_models.ProjectValidated)
}

// Cancel withdraws a request that has no accepted quote yet. Open quotes are rejected. The
// task drawn at creation is not refunded.
func (s *ProjectService) Cancel(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.ProjectResponse, error) {
	project, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !db_models.CanTransition(project.Status, db_models.ProjectCancelled) {
		return nil, utils.ErrInvalidTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.WithTx(tx).Transition(ctx, project.ID, []db_models.ProjectStatus{project.Status}, db_models.ProjectCancelled, nil); err != nil {
			return transitionErr(err)
		}
		if err := s.quoteRepo.WithTx(tx).RejectOthers(ctx, project.ID, uuid.Nil); err != nil {
			return dbErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.Status = db_models.ProjectCancelled
	resp := toProjectResponse(project)
	return &resp, nil
}

// Review closes a validated project with the client's rating of the assigned professional.
func (s *ProjectService) Review(ctx context.Context, actor request_models.Actor, id uuid.UUID, req request_models.ReviewProjectRequest) (*response_models.ProjectResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	project, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !db_models.CanTransition(project.Status, db_models.ProjectReviewed) || project.ProfessionalID == nil {
		return nil, utils.ErrInvalidTransition
	}

	review := &db_models.Review{
		ProjectID:      project.ID,
		ClientID:       project.ClientID,
		ProfessionalID: *project.ProfessionalID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.WithTx(tx).Transition(ctx, project.ID, []db_models.ProjectStatus{db_models.ProjectValidated}, db_models.ProjectReviewed, nil); err != nil {
			return transitionErr(err)
		}
		if err := s.reviewRepo.WithTx(tx).CreateReview(ctx, review); err != nil {
			if isDuplicate(err) {
				return utils.ErrInvalidTransition
			}
			return dbErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	project.Status = db_models.ProjectReviewed
	s.log.Info("project reviewed", zap.String("project_id", project.ID.String()), zap.Int("rating", req.Rating))
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *ProjectService) move(ctx context.Context, project *db_models.Project, next db_models.ProjectStatus) (*response_models.ProjectResponse, error) {
	if !db_models.CanTransition(project.Status, next) {
		return nil, utils.ErrInvalidTransition
	}
	if err := s.projectRepo.Transition(ctx, project.ID, []db_models.ProjectStatus{project.Status}, next, nil); err != nil {
		return nil, transitionErr(err)
	}

	s.log.Info("project status changed",
		zap.String("project_id", project.ID.String()),
		zap.String("from", string(project.Status)),
		zap.String("to", string(next)),
	)
	project.Status = next
	resp := toProjectResponse(project)
	return &resp, nil
}

func (s *ProjectService) find(ctx context.Context, id uuid.UUID) (*db_models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if project == nil {
		return nil, utils.ErrProjectNotFound
	}
	return project, nil
}

// owned loads a project the actor is the client of.
func (s *ProjectService) owned(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*db_models.Project, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsClient() || project.ClientID != actor.ID {
		return nil, utils.ErrForbidden
	}
	return project, nil
}

// assigned loads a project the acting professional was assigned to.
func (s *ProjectService) assigned(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*db_models.Project, error) {
	pro, err := lookupProfessional(ctx, s.proRepo, actor)
	if err != nil {
		return nil, err
	}
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.ProfessionalID == nil || *project.ProfessionalID != pro.ID {
		return nil, utils.ErrForbidden
	}
	return project, nil
}

func toProjectResponse(p *db_models.Project) response_models.ProjectResponse {
	return response_models.ProjectResponse{
		ID:                  p.ID,
		ClientID:            p.ClientID,
		ProfessionalID:      p.ProfessionalID,
		SubscriptionID:      p.SubscriptionID,
		WorkType:            p.WorkType,
		SurfaceArea:         p.SurfaceArea,
		Description:         p.Description,
		Location:            p.Location,
		PropertyType:        p.PropertyType,
		SpecialRequirements: p.SpecialRequirements,
		Status:              string(p.Status),
		Published:           p.Published,
		AcceptedQuoteID:     p.AcceptedQuoteID,
		AgreedPrice:         p.AgreedPrice,
		CreatedAt:           p.CreatedAt,
	}
}
