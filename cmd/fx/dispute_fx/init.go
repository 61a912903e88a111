package dispute_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/repositories"
	"khaja/internal/services"
)

var Module = fx.Provide(
	provideDisputeRepo, provideDisputeService, provideDisputeController,
)

func provideDisputeRepo(db *gorm.DB) repositories.DisputeRepository {
	return repositories.NewDisputeRepository(db)
}

func provideDisputeService(
	db *gorm.DB,
	disputeRepo repositories.DisputeRepository,
	projectRepo repositories.ProjectRepository,
	proRepo repositories.ProfessionalRepository,
	accountRepo repositories.AccountRepository,
	mail services.IMailService,
	log *zap.Logger,
) services.DisputeServiceInterface {
	return services.NewDisputeService(db, disputeRepo, projectRepo, proRepo, accountRepo, mail, log)
}

func provideDisputeController(disputeService services.DisputeServiceInterface) *controllers.DisputeController {
	return controllers.NewDisputeController(disputeService)
}
