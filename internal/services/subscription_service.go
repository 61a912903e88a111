package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"khaja/internal/clock"
	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/quoting"
	"khaja/internal/repositories"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

type SubscriptionServiceInterface interface {
	Create(ctx context.Context, actor request_models.Actor, req request_models.CreateSubscriptionRequest) (*response_models.SubscriptionResponse, error)
	Get(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.SubscriptionResponse, error)
	GetMine(ctx context.Context, actor request_models.Actor) (*response_models.SubscriptionResponse, error)
	Update(ctx context.Context, actor request_models.Actor, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*response_models.SubscriptionResponse, error)
	Cancel(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.SubscriptionResponse, error)
	List(ctx context.Context, query request_models.ListSubscriptionsQuery) (*response_models.SubscriptionPage, error)
}

type SubscriptionService struct {
	subRepo  repositories.SubscriptionRepository
	catalog  *entitlement.Catalog
	engine   *entitlement.Engine
	locks    mem.LockStore
	clock    clock.Clock
	log      *zap.Logger
	settings UsageSettings
}

func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	catalog *entitlement.Catalog,
	locks mem.LockStore,
	clk clock.Clock,
	log *zap.Logger,
	settings UsageSettings,
) SubscriptionServiceInterface {
	return &SubscriptionService{
		subRepo:  subRepo,
		catalog:  catalog,
		engine:   entitlement.NewEngine(catalog, clk),
		locks:    locks,
		clock:    clk,
		log:      log.Named("subscription"),
		settings: settings.normalized(),
	}
}

func (s *SubscriptionService) Create(ctx context.Context, actor request_models.Actor, req request_models.CreateSubscriptionRequest) (*response_models.SubscriptionResponse, error) {
	clientID := actor.ID
	if req.ClientID != nil && *req.ClientID != "" {
		if !actor.IsAdmin() {
			return nil, utils.ErrForbidden
		}
		id, err := parseOptionalUUID(req.ClientID, "client_id")
		if err != nil {
			return nil, err
		}
		clientID = *id
	} else if !actor.IsClient() {
		return nil, utils.ErrForbidden
	}

	plan, ok := s.catalog.Plan(entitlement.PlanID(req.PlanID))
	if !ok {
		return nil, fmt.Errorf("%w: %q", utils.ErrInvalidPlan, req.PlanID)
	}
	projectID, err := parseOptionalUUID(req.ProjectID, "project_id")
	if err != nil {
		return nil, err
	}

	existing, err := s.subRepo.FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, dbErr(err)
	}
	if existing != nil {
		return nil, utils.ErrActiveSubscriptionExists
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	now := s.clock.Now()
	sub := &db_models.Subscription{
		ClientID: clientID,
		UsageState: entitlement.UsageState{
			Status:        entitlement.StatusActive,
			PlanID:        plan.ID,
			MaxTasks:      plan.MaxTasks,
			LastResetDate: now,
		},
		StartDate:       now,
		EndDate:         now.AddDate(1, 0, 0),
		LastPaymentDate: now,
		NextPaymentDate: now.AddDate(0, 1, 0),
		AutoRenew:       autoRenew,
		ProjectID:       projectID,
	}
	entry := &db_models.SubscriptionTransaction{
		Date:        now,
		Amount:      plan.MonthlyPrice,
		Type:        db_models.TxnPayment,
		Description: fmt.Sprintf("subscription %s (%s), first month", plan.ID, plan.Name),
	}

	if err := s.subRepo.Create(ctx, sub, entry); err != nil {
		if isDuplicate(err) {
			return nil, utils.ErrActiveSubscriptionExists
		}
		return nil, dbErr(err)
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("plan_id", string(plan.ID)),
	)
	resp := s.toResponse(sub)
	return &resp, nil
}

func (s *SubscriptionService) Get(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.SubscriptionResponse, error) {
	sub, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(sub)
	return &resp, nil
}

func (s *SubscriptionService) GetMine(ctx context.Context, actor request_models.Actor) (*response_models.SubscriptionResponse, error) {
	active, err := s.subRepo.FindActiveByClient(ctx, actor.ID)
	if err != nil {
		return nil, dbErr(err)
	}
	if active == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	return s.Get(ctx, actor, active.ID)
}

func (s *SubscriptionService) Update(ctx context.Context, actor request_models.Actor, id uuid.UUID, req request_models.UpdateSubscriptionRequest) (*response_models.SubscriptionResponse, error) {
	if req.PlanID != nil && !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	if req.PlanID == nil && req.AutoRenew == nil {
		return nil, invalid("nothing to update")
	}

	var newPlan *entitlement.PlanDefinition
	if req.PlanID != nil {
		plan, ok := s.catalog.Plan(entitlement.PlanID(*req.PlanID))
		if !ok {
			return nil, fmt.Errorf("%w: %q", utils.ErrInvalidPlan, *req.PlanID)
		}
		newPlan = &plan
	}

	return s.mutate(ctx, actor, id, func(sub *db_models.Subscription) (map[string]interface{}, *db_models.SubscriptionTransaction, error) {
		if sub.Status != entitlement.StatusActive {
			return nil, nil, utils.ErrSubscriptionNotActive
		}

		fields := make(map[string]interface{})
		if req.AutoRenew != nil {
			fields["auto_renew"] = *req.AutoRenew
			sub.AutoRenew = *req.AutoRenew
		}

		var entry *db_models.SubscriptionTransaction
		if newPlan != nil && newPlan.ID != sub.PlanID {
			oldPlan, _ := s.catalog.Plan(sub.PlanID)
			entry = &db_models.SubscriptionTransaction{
				Date:        s.clock.Now(),
				Amount:      quoting.RoundCents(newPlan.MonthlyPrice - oldPlan.MonthlyPrice),
				Type:        db_models.TxnAdjustment,
				Description: fmt.Sprintf("plan change %s -> %s", sub.PlanID, newPlan.ID),
			}
			fields["plan_id"] = newPlan.ID
			fields["max_tasks"] = newPlan.MaxTasks
			sub.PlanID = newPlan.ID
			sub.MaxTasks = newPlan.MaxTasks
		}
		return fields, entry, nil
	})
}

// Cancel is a soft, terminal transition; the ledger records it with a zero amount.
func (s *SubscriptionService) Cancel(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*response_models.SubscriptionResponse, error) {
	return s.mutate(ctx, actor, id, func(sub *db_models.Subscription) (map[string]interface{}, *db_models.SubscriptionTransaction, error) {
		if sub.Status == entitlement.StatusCancelled {
			return nil, nil, utils.ErrSubscriptionNotActive
		}
		sub.Status = entitlement.StatusCancelled
		sub.AutoRenew = false

		fields := map[string]interface{}{
			"status":     entitlement.StatusCancelled,
			"auto_renew": false,
		}
		entry := &db_models.SubscriptionTransaction{
			Date:        s.clock.Now(),
			Amount:      0,
			Type:        db_models.TxnCancellation,
			Description: "subscription cancelled",
		}
		return fields, entry, nil
	})
}

func (s *SubscriptionService) List(ctx context.Context, query request_models.ListSubscriptionsQuery) (*response_models.SubscriptionPage, error) {
	if query.Page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if query.PageSize < 1 || query.PageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}

	subs, total, err := s.subRepo.List(ctx, repositories.SubscriptionFilter{
		Status:   entitlement.Status(query.Status),
		PlanID:   entitlement.PlanID(query.PlanID),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, dbErr(err)
	}

	page := &response_models.SubscriptionPage{
		Items:    make([]response_models.SubscriptionResponse, 0, len(subs)),
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for i := range subs {
		page.Items = append(page.Items, s.toResponse(&subs[i]))
	}
	return page, nil
}

func (s *SubscriptionService) load(ctx context.Context, actor request_models.Actor, id uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	if !actor.Owns(sub.ClientID) {
		return nil, utils.ErrForbidden
	}
	return sub, nil
}

type subscriptionChange func(sub *db_models.Subscription) (map[string]interface{}, *db_models.SubscriptionTransaction, error)

// mutate applies change under the subscription lock with compare-and-swap retries.
func (s *SubscriptionService) mutate(ctx context.Context, actor request_models.Actor, id uuid.UUID, change subscriptionChange) (*response_models.SubscriptionResponse, error) {
	release, err := s.locks.Acquire(ctx, id.String(), s.settings.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire subscription lock: %w", err)
	}
	defer release()

	var out *db_models.Subscription
	err = retryOnConflict(s.settings.MaxRetries, nil, func() error {
		sub, err := s.load(ctx, actor, id)
		if err != nil {
			return err
		}
		fields, entry, err := change(sub)
		if err != nil {
			return err
		}
		if err := s.subRepo.UpdateFields(ctx, sub, fields, entry); err != nil {
			return casErr(err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription updated",
		zap.String("subscription_id", id.String()),
		zap.String("status", string(out.Status)),
		zap.String("plan_id", string(out.PlanID)),
	)
	resp := s.toResponse(out)
	return &resp, nil
}

// toResponse reports usage as of now, so a cycle that has lapsed since the last write reads
// as reset, the same way GetUsage shows it.
func (s *SubscriptionService) toResponse(sub *db_models.Subscription) response_models.SubscriptionResponse {
	usage := s.engine.Snapshot(sub.UsageState)
	used := []entitlement.UsageEntry(usage.ServicesUsed)
	if used == nil {
		used = []entitlement.UsageEntry{}
	}

	resp := response_models.SubscriptionResponse{
		ID:                 sub.ID,
		ClientID:           sub.ClientID,
		PlanID:             string(sub.PlanID),
		Status:             string(sub.Status),
		StartDate:          sub.StartDate,
		EndDate:            sub.EndDate,
		LastPaymentDate:    sub.LastPaymentDate,
		NextPaymentDate:    sub.NextPaymentDate,
		AutoRenew:          sub.AutoRenew,
		TasksUsedThisMonth: usage.TasksUsedThisMonth,
		MaxTasks:           sub.MaxTasks,
		ServicesUsed:       used,
		LastResetDate:      usage.LastResetDate,
		ProjectID:          sub.ProjectID,
	}
	for _, t := range sub.Transactions {
		resp.Transactions = append(resp.Transactions, response_models.TransactionResponse{
			ID:          t.ID,
			Date:        t.Date,
			Amount:      t.Amount,
			Type:        string(t.Type),
			Description: t.Description,
		})
	}
	return resp
}
