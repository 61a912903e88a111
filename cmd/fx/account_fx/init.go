package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/api/controllers"
	"khaja/internal/config"
	"khaja/internal/repositories"
	"khaja/internal/services"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo, provideJWTManager, provideAccountController)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideJWTManager(cfg config.Config) (*utils.JWTManager, error) {
	return utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
}

func provideAccountService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	proRepo repositories.ProfessionalRepository,
	subRepo repositories.SubscriptionRepository,
	resetTokens mem.ResetTokenStore,
	mail services.IMailService,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) services.AccountServiceInterface {
	return services.NewAccountService(db, accountRepo, proRepo, subRepo, resetTokens, mail, jwtManager, log)
}

func provideAccountController(accountService services.AccountServiceInterface) *controllers.AccountController {
	return controllers.NewAccountController(accountService)
}
