package entitlement

import (
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"

	"khaja/internal/clock"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

type Reason string

const (
	ReasonNotActive             Reason = "not_active"
	ReasonNotCovered            Reason = "not_covered"
	ReasonQuotaExceeded         Reason = "quota_exceeded"
	ReasonCategoryLimitExceeded Reason = "category_limit_exceeded"
)

// UsageEntry is one consumption event of the current cycle.
type UsageEntry struct {
	ServiceID string    `json:"service_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageState is the part of a subscription record the engine reads and writes.
type UsageState struct {
	Status             Status `gorm:"type:varchar(16);index;not null"`
	PlanID             PlanID `gorm:"type:varchar(32);not null"`
	MaxTasks           int    `gorm:"not null"`
	TasksUsedThisMonth int    `gorm:"not null;default:0"`
	ServicesUsed       datatypes.JSONSlice[UsageEntry]
	LastResetDate      time.Time `gorm:"not null"`
}

// Decision is the outcome of an entitlement check. A denial is a normal result.
type Decision struct {
	CanUse  bool   `json:"can_use"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// DenialError carries a negative decision through error returns.
type DenialError struct {
	Decision Decision
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("entitlement denied: %s", e.Decision.Reason)
}

type Stats struct {
	PlanID             PlanID         `json:"plan_id"`
	MaxTasks           int            `json:"max_tasks"`
	TasksUsedThisMonth int            `json:"tasks_used_this_month"`
	RemainingTasks     int            `json:"remaining_tasks"`
	DaysUntilReset     int            `json:"days_until_reset"`
	NextResetDate      time.Time      `json:"next_reset_date"`
	UsageByService     map[string]int `json:"usage_by_service"`
}

type ServiceAvailability struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Included  bool   `json:"included"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining *int   `json:"remaining,omitempty"`
}

// NextReset is the boundary after which the counters of s are stale.
func NextReset(s UsageState) time.Time {
	return s.LastResetDate.AddDate(0, 1, 0)
}

// EnsureCurrentCycle resets the monthly counters when now has crossed the reset boundary.
// It reports whether a reset happened so the caller knows the record needs persisting.
func EnsureCurrentCycle(s *UsageState, now time.Time) bool {
	if now.Before(NextReset(*s)) {
		return false
	}
	s.TasksUsedThisMonth = 0
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{}
	s.LastResetDate = now
	return true
}

// Engine evaluates entitlement rules against a catalog.
type Engine struct {
	catalog *Catalog
	clock   clock.Clock
}

func NewEngine(catalog *Catalog, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{catalog: catalog, clock: clk}
}

func (e *Engine) now() time.Time { return e.clock.Now() }

// Snapshot returns a copy of s as it reads at the current time, with a stale cycle already
// reset. s itself is left alone.
func (e *Engine) Snapshot(s UsageState) UsageState {
	view := s.copy()
	EnsureCurrentCycle(&view, e.now())
	return view
}

// GetStats never mutates s; the cycle check runs on a copy.
func (e *Engine) GetStats(s UsageState) Stats {
	now := e.now()
	view := s.copy()
	EnsureCurrentCycle(&view, now)

	next := NextReset(view)
	days := int(math.Ceil(next.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}

	remaining := view.MaxTasks - view.TasksUsedThisMonth
	if remaining < 0 {
		remaining = 0
	}

	return Stats{
		PlanID:             view.PlanID,
		MaxTasks:           view.MaxTasks,
		TasksUsedThisMonth: view.TasksUsedThisMonth,
		RemainingTasks:     remaining,
		DaysUntilReset:     days,
		NextResetDate:      next,
		UsageByService:     usageByService(view.ServicesUsed, time.Time{}),
	}
}

// GetAvailableServices lists every category with its inclusion and remaining sub-limit for
// entries recorded at or after cycleStart.
func (e *Engine) GetAvailableServices(planID PlanID, cycleStart time.Time, used []UsageEntry) []ServiceAvailability {
	plan, ok := e.catalog.Plan(planID)
	usage := usageByService(used, cycleStart)

	out := make([]ServiceAvailability, 0, len(e.catalog.categories))
	for _, cat := range e.catalog.categories {
		item := ServiceAvailability{
			ServiceID: cat.ID,
			Name:      cat.Name,
			Used:      usage[cat.ID],
		}
		if ok && plan.Includes(cat.ID) {
			item.Included = true
			item.Limit = plan.CategoryLimit(cat.ID)
			if item.Limit > 0 {
				left := item.Limit - item.Used
				if left < 0 {
					left = 0
				}
				item.Remaining = &left
			}
		}
		out = append(out, item)
	}
	return out
}

// CanUseService runs the entitlement checks in order; the first failing one wins.
// The cycle check may reset s, which the caller persists with the rest of the record.
func (e *Engine) CanUseService(s *UsageState, serviceID string, quantity int) Decision {
	mustBePositive(quantity)
	EnsureCurrentCycle(s, e.now())

	if s.Status != StatusActive {
		return deny(ReasonNotActive, "subscription not active")
	}

	plan, ok := e.catalog.Plan(s.PlanID)
	if !ok || !plan.Includes(serviceID) {
		return deny(ReasonNotCovered, fmt.Sprintf("service %q not covered by plan", serviceID))
	}

	if s.TasksUsedThisMonth+quantity > s.MaxTasks {
		return deny(ReasonQuotaExceeded, fmt.Sprintf("monthly quota exceeded (%d/%d used)", s.TasksUsedThisMonth, s.MaxTasks))
	}

	if limit := plan.CategoryLimit(serviceID); limit > 0 {
		used := usageByService(s.ServicesUsed, s.LastResetDate)[serviceID]
		if used+quantity > limit {
			return deny(ReasonCategoryLimitExceeded, fmt.Sprintf("category limit exceeded for %q (%d/%d this month)", serviceID, used, limit))
		}
	}

	return Decision{CanUse: true}
}

// UseService consumes quantity tasks of serviceID. It re-runs CanUseService and leaves s
// untouched on denial.
func (e *Engine) UseService(s *UsageState, serviceID string, quantity int) error {
	decision := e.CanUseService(s, serviceID, quantity)
	if !decision.CanUse {
		return &DenialError{Decision: decision}
	}

	s.TasksUsedThisMonth += quantity
	s.ServicesUsed = append(s.ServicesUsed, UsageEntry{
		ServiceID: serviceID,
		Quantity:  quantity,
		Timestamp: e.now(),
	})
	return nil
}

func (s UsageState) copy() UsageState {
	out := s
	out.ServicesUsed = append(datatypes.JSONSlice[UsageEntry](nil), s.ServicesUsed...)
	return out
}

func usageByService(entries []UsageEntry, since time.Time) map[string]int {
	out := make(map[string]int)
	for _, u := range entries {
		if u.Timestamp.Before(since) {
			continue
		}
		out[u.ServiceID] += u.Quantity
	}
	return out
}

func deny(reason Reason, msg string) Decision {
	return Decision{CanUse: false, Reason: reason, Message: msg}
}

func mustBePositive(quantity int) {
	if quantity <= 0 {
		panic(fmt.Sprintf("entitlement: quantity must be positive, got %d", quantity))
	}
}
