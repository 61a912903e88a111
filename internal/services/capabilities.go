package services

import (
	"context"
	"fmt"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/repositories"
	"khaja/pkg/utils"
)

// planCapabilities resolves the plan that governs a client's project.
type planCapabilities struct {
	subRepo repositories.SubscriptionRepository
	catalog *entitlement.Catalog
}

// planFor prefers the subscription the project was created under, falling back to the
// client's active subscription.
func (c planCapabilities) planFor(ctx context.Context, project *db_models.Project) (entitlement.PlanDefinition, error) {
	var (
		sub *db_models.Subscription
		err error
	)
	if project.SubscriptionID != nil {
		sub, err = c.subRepo.FindByID(ctx, *project.SubscriptionID)
	} else {
		sub, err = c.subRepo.FindActiveByClient(ctx, project.ClientID)
	}
	if err != nil {
		return entitlement.PlanDefinition{}, dbErr(err)
	}
	if sub == nil || sub.Status != entitlement.StatusActive {
		return entitlement.PlanDefinition{}, fmt.Errorf("%w: no active subscription", utils.ErrPlanCapability)
	}

	plan, ok := c.catalog.Plan(sub.PlanID)
	if !ok {
		return entitlement.PlanDefinition{}, fmt.Errorf("%w: %q", utils.ErrInvalidPlan, sub.PlanID)
	}
	return plan, nil
}

func (c planCapabilities) requirePublish(ctx context.Context, project *db_models.Project) error {
	plan, err := c.planFor(ctx, project)
	if err != nil {
		return err
	}
	if !plan.PublishOffers {
		return fmt.Errorf("%w: plan %s cannot publish offers", utils.ErrPlanCapability, plan.ID)
	}
	return nil
}

func (c planCapabilities) requireAutoAccept(ctx context.Context, project *db_models.Project) error {
	plan, err := c.planFor(ctx, project)
	if err != nil {
		return err
	}
	if !plan.AutoAcceptQuotes {
		return fmt.Errorf("%w: plan %s cannot auto-accept quotes", utils.ErrPlanCapability, plan.ID)
	}
	return nil
}
