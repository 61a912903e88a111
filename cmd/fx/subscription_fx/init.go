package subscription_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/clock"
	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/repositories"
	"khaja/internal/services"
	mem "khaja/pkg/memcache"
)

var Module = fx.Provide(
	provideSubscriptionRepo,
	provideEngine,
	provideUsageService,
	provideSubscriptionService,
	providePlanService,
	provideSubscriptionController,
	providePlanController,
)

func provideSubscriptionRepo(db *gorm.DB) repositories.SubscriptionRepository {
	return repositories.NewSubscriptionRepository(db)
}

func provideEngine(catalog *entitlement.Catalog, clk clock.Clock) *entitlement.Engine {
	return entitlement.NewEngine(catalog, clk)
}

func provideUsageService(
	db *gorm.DB,
	subRepo repositories.SubscriptionRepository,
	engine *entitlement.Engine,
	locks mem.LockStore,
	m *metrics.Metrics,
	log *zap.Logger,
	settings services.UsageSettings,
) services.UsageServiceInterface {
	return services.NewUsageService(db, subRepo, engine, locks, m, log, settings)
}

func provideSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	catalog *entitlement.Catalog,
	locks mem.LockStore,
	clk clock.Clock,
	log *zap.Logger,
	settings services.UsageSettings,
) services.SubscriptionServiceInterface {
	return services.NewSubscriptionService(subRepo, catalog, locks, clk, log, settings)
}

func providePlanService(catalog *entitlement.Catalog) services.PlanServiceInterface {
	return services.NewPlanService(catalog)
}

func provideSubscriptionController(subscriptionService services.SubscriptionServiceInterface, usageService services.UsageServiceInterface) *controllers.SubscriptionController {
	return controllers.NewSubscriptionController(subscriptionService, usageService)
}

func providePlanController(planService services.PlanServiceInterface) *controllers.PlanController {
	return controllers.NewPlanController(planService)
}
