package config

import (
	"fmt"

	"github.com/spf13/viper"

	"khaja/internal/entitlement"
)

type planFile struct {
	Categories []entitlement.ServiceCategory `mapstructure:"categories"`
	Plans      []entitlement.PlanDefinition  `mapstructure:"plans"`
}

// LoadPlanCatalog builds the entitlement catalog. An empty path yields the built-in tiers;
// a file may override categories, plans or both.
func LoadPlanCatalog(path string) (*entitlement.Catalog, error) {
	if path == "" {
		return entitlement.DefaultCatalog(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read plans file %s: %w", path, err)
	}

	var pf planFile
	if err := v.Unmarshal(&pf); err != nil {
		return nil, fmt.Errorf("decode plans file %s: %w", path, err)
	}

	cats, plans := entitlement.DefaultDefinitions()
	if len(pf.Categories) > 0 {
		cats = pf.Categories
	}
	if len(pf.Plans) > 0 {
		plans = pf.Plans
	}

	catalog, err := entitlement.NewCatalog(cats, plans)
	if err != nil {
		return nil, fmt.Errorf("plans file %s: %w", path, err)
	}
	return catalog, nil
}
