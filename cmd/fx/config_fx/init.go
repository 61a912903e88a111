package config_fx

import (
	"go.uber.org/fx"

	"khaja/internal/clock"
	"khaja/internal/config"
	"khaja/internal/entitlement"
	"khaja/internal/services"
)

// Module derives the runtime settings from a config.Config supplied by the caller.
var Module = fx.Provide(
	provideCatalog, provideClock, provideUsageSettings,
)

func provideCatalog(cfg config.Config) (*entitlement.Catalog, error) {
	return config.LoadPlanCatalog(cfg.Plans.File)
}

func provideClock() clock.Clock {
	return clock.Real{}
}

func provideUsageSettings(cfg config.Config) services.UsageSettings {
	return services.UsageSettings{
		MaxRetries: cfg.Usage.MaxRetries,
		LockTTL:    cfg.Usage.LockTTL,
	}
}
