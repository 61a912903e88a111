package professional_fx

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
	provideProfessionalRepo, provideReviewRepo, provideProfessionalService, provideProfessionalController,
)

func provideProfessionalRepo(db *gorm.DB) repositories.ProfessionalRepository {
	return repositories.NewProfessionalRepository(db)
}

func provideReviewRepo(db *gorm.DB) repositories.ReviewRepositoryInterface {
	return repositories.NewReviewRepository(db)
}

func provideProfessionalService(
	proRepo repositories.ProfessionalRepository,
	reviewRepo repositories.ReviewRepositoryInterface,
	catalog *entitlement.Catalog,
	log *zap.Logger,
) services.ProfessionalServiceInterface {
	return services.NewProfessionalService(proRepo, reviewRepo, catalog, log)
}

func provideProfessionalController(professionalService services.ProfessionalServiceInterface) *controllers.ProfessionalController {
	return controllers.NewProfessionalController(professionalService)
}
