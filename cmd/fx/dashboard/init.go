package dashboard

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
	provideDashboardRepo, provideDashboardService, provideExportService, provideDashboardController,
)

func provideDashboardRepo(db *gorm.DB) repositories.DashboardRepository {
	return repositories.NewDashboardRepository(db)
}

func provideDashboardService(dashboardRepo repositories.DashboardRepository, catalog *entitlement.Catalog) services.DashboardService {
	return services.NewDashboardService(dashboardRepo, catalog)
}

func provideExportService(subRepo repositories.SubscriptionRepository, log *zap.Logger) services.ExportServiceInterface {
	return services.NewExportService(subRepo, log)
}

func provideDashboardController(dashboardService services.DashboardService, exportService services.ExportServiceInterface) *controllers.DashboardController {
	return controllers.NewDashboardController(dashboardService, exportService)
}
