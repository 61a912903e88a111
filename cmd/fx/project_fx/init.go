package project_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/entitlement"
	"khaja/internal/repositories"
	"khaja/internal/services"
)

var Module = fx.Provide(
	provideProjectRepo, provideProjectService, provideProjectController,
)

func provideProjectRepo(db *gorm.DB) repositories.ProjectRepository {
	return repositories.NewProjectRepository(db)
}

func provideProjectService(
	db *gorm.DB,
	projectRepo repositories.ProjectRepository,
	quoteRepo repositories.QuoteRepository,
	proRepo repositories.ProfessionalRepository,
	reviewRepo repositories.ReviewRepositoryInterface,
	subRepo repositories.SubscriptionRepository,
	usage services.UsageServiceInterface,
	catalog *entitlement.Catalog,
	log *zap.Logger,
) services.ProjectServiceInterface {
	return services.NewProjectService(db, projectRepo, quoteRepo, proRepo, reviewRepo, subRepo, usage, catalog, log)
}

func provideProjectController(projectService services.ProjectServiceInterface, disputeService services.DisputeServiceInterface) *controllers.ProjectController {
	return controllers.NewProjectController(projectService, disputeService)
}
