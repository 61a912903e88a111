package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"khaja/internal/entitlement"
	resp "khaja/internal/models/response_models"
	"khaja/internal/quoting"
	"khaja/internal/repositories"
)

type DashboardService interface {
	BuildDashboard(ctx context.Context, rng resp.TimeRange) (*resp.DashboardReport, error)
}

type dashboardService struct {
	repo    repositories.DashboardRepository
	catalog *entitlement.Catalog
}

func NewDashboardService(repo repositories.DashboardRepository, catalog *entitlement.Catalog) DashboardService {
	return &dashboardService{repo: repo, catalog: catalog}
}

// normalizeRange ensures sane defaults and ordering
func normalizeRange(r resp.TimeRange) resp.TimeRange {
	out := r
	if out.End.IsZero() {
		out.End = time.Now().UTC()
	}
	if out.Start.IsZero() {
		out.Start = out.End.AddDate(0, 0, -30) // last 30 days default
	}
	if out.Start.After(out.End) {
		out.Start, out.End = out.End, out.Start
	}
	return out
}

func toCountMap(rows []repositories.GroupCount) (map[string]int64, int64) {
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Key] = r.Count
		total += r.Count
	}
	return out, total
}

func (s *dashboardService) BuildDashboard(ctx context.Context, rng resp.TimeRange) (*resp.DashboardReport, error) {
	rng = normalizeRange(rng)

	// ---------- Core counts ----------
	roleRows, err := s.repo.CountAccountsByRole(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	byRole, totalAccounts := toCountMap(roleRows)

	newAccounts, err := s.repo.CountNewAccounts(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, dbErr(err)
	}

	subRows, err := s.repo.CountSubscriptionsByStatus(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	bySubStatus, _ := toCountMap(subRows)

	projectRows, err := s.repo.CountProjectsByStatus(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	byProjectStatus, _ := toCountMap(projectRows)

	openDisputes, err := s.repo.CountOpenDisputes(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	pending, err := s.repo.CountPendingVerifications(ctx)
	if err != nil {
		return nil, dbErr(err)
	}

	// ---------- Plan mix and MRR/ARR/ARPU ----------
	planRows, err := s.repo.PlanMix(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	var activeCount int64
	for _, r := range planRows {
		activeCount += r.Count
	}

	var mrr float64
	planMix := make([]resp.PlanMixItem, 0, len(planRows))
	for _, r := range planRows {
		item := resp.PlanMixItem{PlanID: r.Key, Count: r.Count}
		if plan, ok := s.catalog.Plan(entitlement.PlanID(r.Key)); ok {
			item.PlanName = plan.Name
			item.MonthlyPrice = plan.MonthlyPrice
			mrr += plan.MonthlyPrice * float64(r.Count)
		}
		if activeCount > 0 {
			item.Percent = quoting.RoundCents(float64(r.Count) * 100.0 / float64(activeCount))
		}
		planMix = append(planMix, item)
	}
	mrr = quoting.RoundCents(mrr)
	var arpu float64
	if activeCount > 0 {
		arpu = quoting.RoundCents(mrr / float64(activeCount))
	}

	ledgerTotal, err := s.repo.LedgerTotal(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, dbErr(err)
	}

	// ---------- Recent ledger entries ----------
	txRows, err := s.repo.RecentTransactions(ctx, 10)
	if err != nil {
		return nil, dbErr(err)
	}
	recent := make([]resp.RecentTransaction, 0, len(txRows))
	for _, r := range txRows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, dbErr(err)
		}
		recent = append(recent, resp.RecentTransaction{
			ID:           id,
			Date:         r.Date,
			Amount:       r.Amount,
			Type:         r.Type,
			PlanID:       r.PlanID,
			AccountEmail: r.AccountEmail,
		})
	}

	return &resp.DashboardReport{
		Range: rng,
		KPIs: resp.KPIBlock{
			TotalAccounts:          totalAccounts,
			NewAccounts:            newAccounts,
			ActiveSubscriptions:    bySubStatus[string(entitlement.StatusActive)],
			CancelledSubscriptions: bySubStatus[string(entitlement.StatusCancelled)],
			OpenDisputes:           openDisputes,
			PendingVerifications:   pending,

			MRR:         mrr,
			ARR:         quoting.RoundCents(mrr * 12),
			ARPU:        arpu,
			LedgerTotal: quoting.RoundCents(ledgerTotal),
		},
		AccountsByRole:        byRole,
		SubscriptionsByStatus: bySubStatus,
		ProjectsByStatus:      byProjectStatus,
		PlanMix:               planMix,
		RecentTransactions:    recent,
	}, nil
}
