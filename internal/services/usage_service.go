package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khaja/internal/entitlement"
	"khaja/internal/metrics"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/models/response_models"
	"khaja/internal/repositories"
	mem "khaja/pkg/memcache"
	"khaja/pkg/utils"
)

// UsageHook runs inside the transaction that records a consumption. Returning an error
// rolls the consumption back.
type UsageHook func(tx *gorm.DB, sub *db_models.Subscription) error

type UsageServiceInterface interface {
	GetUsage(ctx context.Context, actor request_models.Actor, subscriptionID uuid.UUID) (*response_models.UsageResponse, error)
	Consume(ctx context.Context, actor request_models.Actor, req request_models.ConsumeUsageRequest) (*response_models.ConsumeUsageResponse, error)
	ConsumeWith(ctx context.Context, actor request_models.Actor, subscriptionID uuid.UUID, serviceID string, quantity int, hook UsageHook) (*db_models.Subscription, error)
}

type UsageService struct {
	db       *gorm.DB
	subRepo  repositories.SubscriptionRepository
	engine   *entitlement.Engine
	locks    mem.LockStore
	metrics  *metrics.Metrics
	log      *zap.Logger
	settings UsageSettings
}

func NewUsageService(
	db *gorm.DB,
	subRepo repositories.SubscriptionRepository,
	engine *entitlement.Engine,
	locks mem.LockStore,
	m *metrics.Metrics,
	log *zap.Logger,
	settings UsageSettings,
) UsageServiceInterface {
	return &UsageService{
		db:       db,
		subRepo:  subRepo,
		engine:   engine,
		locks:    locks,
		metrics:  m,
		log:      log.Named("usage"),
		settings: settings.normalized(),
	}
}

// GetUsage is read-only: a stale cycle shows as reset but is not persisted.
func (s *UsageService) GetUsage(ctx context.Context, actor request_models.Actor, subscriptionID uuid.UUID) (*response_models.UsageResponse, error) {
	sub, err := s.subRepo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, dbErr(err)
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	if !actor.Owns(sub.ClientID) {
		return nil, utils.ErrForbidden
	}

	view := s.engine.Snapshot(sub.UsageState)
	used := []entitlement.UsageEntry(view.ServicesUsed)
	if used == nil {
		used = []entitlement.UsageEntry{}
	}

	return &response_models.UsageResponse{
		Stats:        s.engine.GetStats(view),
		Services:     s.engine.GetAvailableServices(view.PlanID, view.LastResetDate, used),
		ServicesUsed: used,
	}, nil
}

func (s *UsageService) Consume(ctx context.Context, actor request_models.Actor, req request_models.ConsumeUsageRequest) (*response_models.ConsumeUsageResponse, error) {
	subID, err := uuid.Parse(req.SubscriptionID)
	if err != nil {
		return nil, invalid("subscription_id is not a valid id")
	}

	sub, err := s.ConsumeWith(ctx, actor, subID, req.ServiceID, req.Quantity, nil)
	if err != nil {
		return nil, err
	}

	return &response_models.ConsumeUsageResponse{
		Success:        true,
		RemainingTasks: s.engine.GetStats(sub.UsageState).RemainingTasks,
	}, nil
}

// ConsumeWith serializes on the subscription lock, then runs the check-and-consume cycle
// under compare-and-swap, retrying from a fresh read when another writer wins.
func (s *UsageService) ConsumeWith(ctx context.Context, actor request_models.Actor, subscriptionID uuid.UUID, serviceID string, quantity int, hook UsageHook) (*db_models.Subscription, error) {
	if quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	if serviceID == "" {
		return nil, invalid("service_id is required")
	}

	release, err := s.locks.Acquire(ctx, subscriptionID.String(), s.settings.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire usage lock: %w", err)
	}
	defer release()

	var out *db_models.Subscription
	err = retryOnConflict(s.settings.MaxRetries, s.onConflict(subscriptionID), func() error {
		sub, err := s.consumeOnce(ctx, actor, subscriptionID, serviceID, quantity, hook)
		out = sub
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordConsumed(string(out.PlanID), serviceID, quantity)
	s.log.Info("usage consumed",
		zap.String("subscription_id", subscriptionID.String()),
		zap.String("service_id", serviceID),
		zap.Int("quantity", quantity),
		zap.Int("tasks_used", out.TasksUsedThisMonth),
	)
	return out, nil
}

func (s *UsageService) consumeOnce(ctx context.Context, actor request_models.Actor, subscriptionID uuid.UUID, serviceID string, quantity int, hook UsageHook) (*db_models.Subscription, error) {
	var out *db_models.Subscription

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subs := s.subRepo.WithTx(tx)

		sub, err := subs.FindByID(ctx, subscriptionID)
		if err != nil {
			return dbErr(err)
		}
		if sub == nil {
			return utils.ErrSubscriptionNotFound
		}
		if !actor.Owns(sub.ClientID) {
			return utils.ErrForbidden
		}

		decision := s.engine.CanUseService(&sub.UsageState, serviceID, quantity)
		s.metrics.RecordDecision(string(decision.Reason))
		if !decision.CanUse {
			return &entitlement.DenialError{Decision: decision}
		}
		if err := s.engine.UseService(&sub.UsageState, serviceID, quantity); err != nil {
			return err
		}

		if err := subs.SaveUsage(ctx, sub); err != nil {
			return casErr(err)
		}
		if hook != nil {
			if err := hook(tx, sub); err != nil {
				return err
			}
		}
		out = sub
		return nil
	})
	return out, err
}

func (s *UsageService) onConflict(subscriptionID uuid.UUID) func(bool) {
	return func(exhausted bool) {
		if exhausted {
			s.metrics.RecordConflict("exhausted")
			s.log.Warn("usage write conflict, retries exhausted", zap.String("subscription_id", subscriptionID.String()))
			return
		}
		s.metrics.RecordConflict("retried")
		s.log.Debug("usage write conflict, retrying", zap.String("subscription_id", subscriptionID.String()))
	}
}
