package quote_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/repositories"
	"khaja/internal/services"
)

var Module = fx.Provide(
	provideQuoteRepo, provideQuoteService, provideQuoteController,
)

func provideQuoteRepo(db *gorm.DB) repositories.QuoteRepository {
	return repositories.NewQuoteRepository(db)
}

func provideQuoteService(
	db *gorm.DB,
	quoteRepo repositories.QuoteRepository,
	projectRepo repositories.ProjectRepository,
	proRepo repositories.ProfessionalRepository,
	subRepo repositories.SubscriptionRepository,
	accountRepo repositories.AccountRepository,
	proService services.ProfessionalServiceInterface,
	mail services.IMailService,
	catalog *entitlement.Catalog,
	m *metrics.Metrics,
	log *zap.Logger,
) services.QuoteServiceInterface {
	return services.NewQuoteService(db, quoteRepo, projectRepo, proRepo, subRepo, accountRepo, proService, mail, catalog, m, log)
}

func provideQuoteController(quoteService services.QuoteServiceInterface) *controllers.QuoteController {
	return controllers.NewQuoteController(quoteService)
}
