package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"khaja/internal/clock"
)

var epoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(epoch)
	return NewEngine(DefaultCatalog(), clk), clk
}

func activeState(plan PlanID, used int) UsageState {
	p, _ := DefaultCatalog().Plan(plan)
	return UsageState{
		Status:             StatusActive,
		PlanID:             plan,
		MaxTasks:           p.MaxTasks,
		TasksUsedThisMonth: used,
		LastResetDate:      epoch.AddDate(0, 0, -5),
	}
}

func TestCanUseService_QuotaExceeded(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 8)

	d := engine.CanUseService(&s, "cleaning", 1)

	assert.False(t, d.CanUse)
	assert.Equal(t, ReasonQuotaExceeded, d.Reason)
	assert.NotEmpty(t, d.Message)
}

func TestCanUseService_CancelledWinsOverQuota(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait4, 0)
	s.Status = StatusCancelled

	d := engine.CanUseService(&s, "cleaning", 1)

	assert.False(t, d.CanUse)
	assert.Equal(t, ReasonNotActive, d.Reason)
}

func TestCanUseService_NotCovered(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait1, 0)

	d := engine.CanUseService(&s, "tiling", 1)
	assert.Equal(t, ReasonNotCovered, d.Reason)

	d = engine.CanUseService(&s, "no_such_service", 1)
	assert.Equal(t, ReasonNotCovered, d.Reason)

	s.PlanID = "forfait9"
	d = engine.CanUseService(&s, "cleaning", 1)
	assert.Equal(t, ReasonNotCovered, d.Reason)
}

func TestCanUseService_CategoryLimit(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 0)

	require.NoError(t, engine.UseService(&s, "gardening", 1))

	d := engine.CanUseService(&s, "gardening", 1)
	assert.False(t, d.CanUse)
	assert.Equal(t, ReasonCategoryLimitExceeded, d.Reason)

	// other categories still draw on the global quota
	d = engine.CanUseService(&s, "cleaning", 3)
	assert.True(t, d.CanUse)
}

func TestCanUseService_QuotaCheckedBeforeCategoryLimit(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait1, 0)
	require.NoError(t, engine.UseService(&s, "handyman", 1))
	require.NoError(t, engine.UseService(&s, "cleaning", 3))

	d := engine.CanUseService(&s, "handyman", 1)
	assert.Equal(t, ReasonQuotaExceeded, d.Reason)
}

func TestCanUseService_PanicsOnNonPositiveQuantity(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait1, 0)

	assert.Panics(t, func() { engine.CanUseService(&s, "cleaning", 0) })
	assert.Panics(t, func() { _ = engine.UseService(&s, "cleaning", -2) })
}

func TestUseService_RevalidatesAndDoesNotMutateOnDenial(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 7)
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{{ServiceID: "cleaning", Quantity: 7, Timestamp: epoch.Add(-time.Hour)}}

	err := engine.UseService(&s, "cleaning", 2)

	var denial *DenialError
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, ReasonQuotaExceeded, denial.Decision.Reason)
	assert.Equal(t, 7, s.TasksUsedThisMonth)
	assert.Len(t, s.ServicesUsed, 1)
}

func TestUseService_AppendsEntry(t *testing.T) {
	engine, clk := newTestEngine(t)
	s := activeState(Forfait3, 2)
	clk.Advance(time.Minute)

	require.NoError(t, engine.UseService(&s, "plumbing", 2))

	assert.Equal(t, 4, s.TasksUsedThisMonth)
	require.Len(t, s.ServicesUsed, 1)
	assert.Equal(t, UsageEntry{ServiceID: "plumbing", Quantity: 2, Timestamp: epoch.Add(time.Minute)}, s.ServicesUsed[0])
}

func TestQuotaInvariantUnderGuardedSequence(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait1, 0)
	services := []string{"cleaning", "ironing", "handyman", "cleaning", "handyman", "ironing", "cleaning"}

	for i := 0; i < 30; i++ {
		svc := services[i%len(services)]
		qty := 1 + i%3
		if engine.CanUseService(&s, svc, qty).CanUse {
			require.NoError(t, engine.UseService(&s, svc, qty))
		}
		assert.LessOrEqual(t, s.TasksUsedThisMonth, s.MaxTasks)
	}
}

func TestEnsureCurrentCycle(t *testing.T) {
	s := activeState(Forfait2, 6)
	s.LastResetDate = epoch.AddDate(0, -1, -1)
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{{ServiceID: "cleaning", Quantity: 6, Timestamp: s.LastResetDate}}

	assert.True(t, EnsureCurrentCycle(&s, epoch))
	assert.Equal(t, 0, s.TasksUsedThisMonth)
	assert.Empty(t, s.ServicesUsed)
	assert.Equal(t, epoch, s.LastResetDate)

	assert.False(t, EnsureCurrentCycle(&s, epoch.Add(time.Hour)))
}

func TestEnsureCurrentCycle_BoundaryIsInclusive(t *testing.T) {
	s := activeState(Forfait2, 3)
	s.LastResetDate = epoch.AddDate(0, -1, 0)

	assert.True(t, EnsureCurrentCycle(&s, epoch))
	assert.Equal(t, 0, s.TasksUsedThisMonth)
}

func TestCanUseService_ResetsStaleCycleFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 8)
	s.LastResetDate = epoch.AddDate(0, -2, 0)

	d := engine.CanUseService(&s, "cleaning", 1)

	assert.True(t, d.CanUse)
	assert.Equal(t, 0, s.TasksUsedThisMonth)
	assert.Equal(t, epoch, s.LastResetDate)
}

func TestGetStats(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 3)
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{
		{ServiceID: "cleaning", Quantity: 2, Timestamp: epoch.Add(-48 * time.Hour)},
		{ServiceID: "gardening", Quantity: 1, Timestamp: epoch.Add(-24 * time.Hour)},
	}

	stats := engine.GetStats(s)

	assert.Equal(t, 5, stats.RemainingTasks)
	assert.Equal(t, 26, stats.DaysUntilReset)
	assert.Equal(t, s.LastResetDate.AddDate(0, 1, 0), stats.NextResetDate)
	assert.Equal(t, map[string]int{"cleaning": 2, "gardening": 1}, stats.UsageByService)
}

func TestGetStats_IsPureAndIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 8)
	s.LastResetDate = epoch.AddDate(0, -3, 0)
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{{ServiceID: "cleaning", Quantity: 8, Timestamp: s.LastResetDate}}
	before := s.copy()

	first := engine.GetStats(s)
	second := engine.GetStats(s)

	assert.Equal(t, first, second)
	assert.Equal(t, before, s)
	assert.Equal(t, 8, first.RemainingTasks)
	assert.Empty(t, first.UsageByService)
}

func TestGetStats_RemainingNeverNegative(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait1, 4)
	s.MaxTasks = 2

	assert.Equal(t, 0, engine.GetStats(s).RemainingTasks)
}

func TestGetAvailableServices(t *testing.T) {
	engine, _ := newTestEngine(t)
	start := epoch.AddDate(0, 0, -3)
	used := []UsageEntry{
		{ServiceID: "handyman", Quantity: 1, Timestamp: start.Add(time.Hour)},
		{ServiceID: "handyman", Quantity: 1, Timestamp: start.Add(-time.Hour)},
		{ServiceID: "cleaning", Quantity: 2, Timestamp: start.Add(time.Hour)},
	}

	out := engine.GetAvailableServices(Forfait1, start, used)
	require.Len(t, out, len(DefaultCatalog().Categories()))

	byID := make(map[string]ServiceAvailability)
	for _, item := range out {
		byID[item.ServiceID] = item
	}

	handyman := byID["handyman"]
	assert.True(t, handyman.Included)
	assert.Equal(t, 1, handyman.Limit)
	assert.Equal(t, 1, handyman.Used)
	require.NotNil(t, handyman.Remaining)
	assert.Equal(t, 0, *handyman.Remaining)

	cleaning := byID["cleaning"]
	assert.True(t, cleaning.Included)
	assert.Equal(t, 0, cleaning.Limit)
	assert.Nil(t, cleaning.Remaining)

	assert.False(t, byID["tiling"].Included)
}

func TestSnapshot_ResetsCopyOnly(t *testing.T) {
	engine, _ := newTestEngine(t)
	s := activeState(Forfait2, 6)
	s.LastResetDate = epoch.AddDate(0, -1, -2)
	s.ServicesUsed = datatypes.JSONSlice[UsageEntry]{{ServiceID: "cleaning", Quantity: 6, Timestamp: s.LastResetDate}}

	view := engine.Snapshot(s)

	assert.Equal(t, 0, view.TasksUsedThisMonth)
	assert.Empty(t, view.ServicesUsed)
	assert.Equal(t, epoch, view.LastResetDate)
	assert.Equal(t, 6, s.TasksUsedThisMonth)
	assert.Len(t, s.ServicesUsed, 1)
}
