// Package entitlement decides which services a subscription may consume and keeps the
// monthly usage counters of a subscription consistent.
package entitlement

import (
	"fmt"
	"sort"
)

type PlanID string

const (
	Forfait1 PlanID = "forfait1"
	Forfait2 PlanID = "forfait2"
	Forfait3 PlanID = "forfait3"
	Forfait4 PlanID = "forfait4"
)

// ServiceCategory is a consumable service. Its ID doubles as the work type used by quoting.
type ServiceCategory struct {
	ID   string `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
}

// PlanDefinition describes one subscription tier.
// Services maps an included category to its per-cycle sub-limit; 0 means the category is only
// bounded by MaxTasks.
type PlanDefinition struct {
	ID               PlanID         `mapstructure:"id" json:"id"`
	Name             string         `mapstructure:"name" json:"name"`
	MaxTasks         int            `mapstructure:"max_tasks" json:"max_tasks"`
	MonthlyPrice     float64        `mapstructure:"monthly_price" json:"monthly_price"`
	Services         map[string]int `mapstructure:"services" json:"services"`
	PublishOffers    bool           `mapstructure:"publish_offers" json:"publish_offers"`
	AutoAcceptQuotes bool           `mapstructure:"auto_accept_quotes" json:"auto_accept_quotes"`
}

// Includes reports whether the category is part of the plan.
func (p PlanDefinition) Includes(serviceID string) bool {
	_, ok := p.Services[serviceID]
	return ok
}

// CategoryLimit returns the per-cycle sub-limit for a category, 0 when none applies.
func (p PlanDefinition) CategoryLimit(serviceID string) int {
	return p.Services[serviceID]
}

func (p PlanDefinition) clone() PlanDefinition {
	out := p
	out.Services = make(map[string]int, len(p.Services))
	for k, v := range p.Services {
		out.Services[k] = v
	}
	return out
}

// Catalog is the immutable plan table. Build it once and share it by pointer.
type Catalog struct {
	categories []ServiceCategory
	plans      map[PlanID]PlanDefinition
	order      []PlanID
}

var defaultCategories = []ServiceCategory{
	{ID: "cleaning", Name: "Ménage"},
	{ID: "ironing", Name: "Repassage"},
	{ID: "handyman", Name: "Petits travaux"},
	{ID: "gardening", Name: "Jardinage"},
	{ID: "plumbing", Name: "Plomberie"},
	{ID: "electrical", Name: "Électricité"},
	{ID: "painting", Name: "Peinture"},
	{ID: "tiling", Name: "Carrelage"},
	{ID: "pool_maintenance", Name: "Entretien piscine"},
}

var defaultPlans = []PlanDefinition{
	{
		ID: Forfait1, Name: "Essentiel", MaxTasks: 4, MonthlyPrice: 29.90,
		Services: map[string]int{"cleaning": 0, "ironing": 0, "handyman": 1},
	},
	{
		ID: Forfait2, Name: "Confort", MaxTasks: 8, MonthlyPrice: 49.90,
		Services: map[string]int{"cleaning": 0, "ironing": 0, "handyman": 2, "gardening": 1, "plumbing": 1},
	},
	{
		ID: Forfait3, Name: "Sérénité", MaxTasks: 12, MonthlyPrice: 79.90,
		Services: map[string]int{
			"cleaning": 0, "ironing": 0, "handyman": 4, "gardening": 4, "plumbing": 2,
			"electrical": 2, "painting": 1,
		},
		PublishOffers: true, AutoAcceptQuotes: true,
	},
	{
		ID: Forfait4, Name: "Premium", MaxTasks: 20, MonthlyPrice: 129.90,
		Services: map[string]int{
			"cleaning": 0, "ironing": 0, "handyman": 0, "gardening": 0, "plumbing": 0,
			"electrical": 0, "painting": 4, "tiling": 2, "pool_maintenance": 4,
		},
		PublishOffers: true, AutoAcceptQuotes: true,
	},
}

// DefaultCatalog returns the built-in four-tier catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultCategories, defaultPlans)
	if err != nil {
		panic(fmt.Sprintf("entitlement: invalid default catalog: %v", err))
	}
	return c
}

// DefaultDefinitions exposes copies of the built-in tables, used as config defaults.
func DefaultDefinitions() ([]ServiceCategory, []PlanDefinition) {
	cats := append([]ServiceCategory(nil), defaultCategories...)
	plans := make([]PlanDefinition, 0, len(defaultPlans))
	for _, p := range defaultPlans {
		plans = append(plans, p.clone())
	}
	return cats, plans
}

// NewCatalog validates and freezes a plan table. Plans are ordered by MaxTasks; each tier's
// categories must contain the previous tier's, and a sub-limit may only loosen.
func NewCatalog(categories []ServiceCategory, plans []PlanDefinition) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("catalog has no plans")
	}

	known := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if cat.ID == "" {
			return nil, fmt.Errorf("category with empty id")
		}
		if known[cat.ID] {
			return nil, fmt.Errorf("duplicate category %q", cat.ID)
		}
		known[cat.ID] = true
	}

	c := &Catalog{
		categories: append([]ServiceCategory(nil), categories...),
		plans:      make(map[PlanID]PlanDefinition, len(plans)),
	}

	sorted := make([]PlanDefinition, 0, len(plans))
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan with empty id")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		if p.MaxTasks <= 0 {
			return nil, fmt.Errorf("plan %q: max_tasks must be positive", p.ID)
		}
		for svc, limit := range p.Services {
			if !known[svc] {
				return nil, fmt.Errorf("plan %q: unknown category %q", p.ID, svc)
			}
			if limit < 0 {
				return nil, fmt.Errorf("plan %q: negative limit for %q", p.ID, svc)
			}
		}
		cp := p.clone()
		c.plans[p.ID] = cp
		sorted = append(sorted, cp)
	}

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxTasks < sorted[j].MaxTasks })
	for i := 1; i < len(sorted); i++ {
		if err := checkContainment(sorted[i-1], sorted[i]); err != nil {
			return nil, err
		}
	}
	for _, p := range sorted {
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

func checkContainment(poorer, richer PlanDefinition) error {
	for svc, limit := range poorer.Services {
		richerLimit, ok := richer.Services[svc]
		if !ok {
			return fmt.Errorf("plan %q must include %q from %q", richer.ID, svc, poorer.ID)
		}
		if richerLimit != 0 && (limit == 0 || richerLimit < limit) {
			return fmt.Errorf("plan %q tightens the %q limit of %q", richer.ID, svc, poorer.ID)
		}
	}
	return nil
}

// Plan looks up a plan by id.
func (c *Catalog) Plan(id PlanID) (PlanDefinition, bool) {
	p, ok := c.plans[id]
	if !ok {
		return PlanDefinition{}, false
	}
	return p.clone(), true
}

// Valid reports whether id names a plan of the catalog.
func (c *Catalog) Valid(id PlanID) bool {
	_, ok := c.plans[id]
	return ok
}

// Plans returns the tiers from poorest to richest.
func (c *Catalog) Plans() []PlanDefinition {
	out := make([]PlanDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id].clone())
	}
	return out
}

func (c *Catalog) Categories() []ServiceCategory {
	return append([]ServiceCategory(nil), c.categories...)
}

// HasCategory reports whether serviceID is a known category.
func (c *Catalog) HasCategory(serviceID string) bool {
	for _, cat := range c.categories {
		if cat.ID == serviceID {
			return true
		}
	}
	return false
}
