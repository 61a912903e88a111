package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/models/request_models"
	"khaja/internal/testutil"
	"khaja/pkg/utils"
)

func (f *fixture) newProject(t *testing.T, client request_models.Actor, subID *uuid.UUID, workType string, area float64) uuid.UUID {
	t.Helper()
	req := request_models.CreateProjectRequest{WorkType: workType, SurfaceArea: area, Location: "Lyon"}
	if subID != nil {
		req.SubscriptionID = strPtr(subID.String())
	}
	resp, err := f.projects.Create(context.Background(), client, req)
	require.NoError(t, err)
	return resp.ID
}

func (f *fixture) accountEmail(t *testing.T, id uuid.UUID) string {
	t.Helper()
	acc, err := f.accountRepo.FindById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, acc)
	return acc.Email
}

func TestQuoteService_Automatic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.quotes.Automatic(ctx, request_models.AutomaticQuoteRequest{WorkType: "tiling", SurfaceArea: 30})
	assert.ErrorIs(t, err, utils.ErrNoProfessionalAvailable)

	expensive, _ := f.professional(t, 50, map[string]float64{"tiling": 40})
	cheap, _ := f.professional(t, 42, map[string]float64{"tiling": 35})
	testutil.SeedProfessional(t, f.db, false, 10, map[string]float64{"tiling": 5})

	resp, err := f.quotes.Automatic(ctx, request_models.AutomaticQuoteRequest{WorkType: "tiling", SurfaceArea: 30})
	require.NoError(t, err)
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, cheap.ID, resp.Quotes[0].ProfessionalID)
	assert.Equal(t, 1176.00, resp.Quotes[0].Price)
	assert.Equal(t, expensive.ID, resp.Quotes[1].ProfessionalID)

	_, err = f.quotes.Automatic(ctx, request_models.AutomaticQuoteRequest{WorkType: "tiling", SurfaceArea: 0})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestQuoteService_GenerateAndAutoAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait3, 0)
	f.professional(t, 40, map[string]float64{"painting": 14})
	cheap, _ := f.professional(t, 30, map[string]float64{"painting": 9})
	projectID := f.newProject(t, client, &sub.ID, "painting", 25)

	resp, err := f.quotes.GenerateForProject(ctx, client, projectID, request_models.GenerateProjectQuotesRequest{AutoAccept: true})

	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectAccepted), resp.Status)
	require.NotNil(t, resp.ProfessionalID)
	assert.Equal(t, cheap.ID, *resp.ProfessionalID)
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, string(db_models.QuoteAccepted), resp.Quotes[0].Status)

	quotes, err := f.quoteRepo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	statuses := map[uuid.UUID]db_models.QuoteStatus{}
	for _, q := range quotes {
		statuses[q.ProfessionalID] = q.Status
	}
	assert.Equal(t, db_models.QuoteAccepted, statuses[cheap.ID])
	for id, st := range statuses {
		if id != cheap.ID {
			assert.Equal(t, db_models.QuoteRejected, st)
		}
	}

	project, err := f.projectRepo.FindByID(ctx, projectID)
	require.NoError(t, err)
	require.NotNil(t, project.AgreedPrice)
	assert.Equal(t, resp.Quotes[0].Price, *project.AgreedPrice)

	assert.Equal(t, []string{f.accountEmail(t, cheap.AccountID)}, f.mail.recipients())
}

func TestQuoteService_AutoAcceptNeedsCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait1, 0)
	f.professional(t, 25, map[string]float64{"cleaning": 2})
	projectID := f.newProject(t, client, &sub.ID, "cleaning", 40)

	_, err := f.quotes.GenerateForProject(ctx, client, projectID, request_models.GenerateProjectQuotesRequest{AutoAccept: true})
	assert.ErrorIs(t, err, utils.ErrPlanCapability)

	quotes, err := f.quoteRepo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, quotes)

	// without auto-accept the quotes are only stored
	resp, err := f.quotes.GenerateForProject(ctx, client, projectID, request_models.GenerateProjectQuotesRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectQuoted), resp.Status)
	require.Len(t, resp.Quotes, 1)
	assert.Equal(t, string(db_models.QuotePending), resp.Quotes[0].Status)
}

func TestQuoteService_ManualNegotiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait3, 0)
	pro, proActor := f.professional(t, 35, map[string]float64{"plumbing": 20})
	_, rivalActor := f.professional(t, 35, map[string]float64{"plumbing": 20})
	projectID := f.newProject(t, client, &sub.ID, "plumbing", 12)

	offer := request_models.SubmitQuoteRequest{Price: 600, EstimatedDurationDays: 2, Message: "pièces incluses"}
	_, err := f.quotes.SubmitManual(ctx, proActor, projectID, offer)
	assert.ErrorIs(t, err, utils.ErrProjectNotFound, "unpublished projects are not visible")

	_, err = f.projects.Publish(ctx, client, projectID)
	require.NoError(t, err)

	quote, err := f.quotes.SubmitManual(ctx, proActor, projectID, offer)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.QuotePending), quote.Status)
	rival, err := f.quotes.SubmitManual(ctx, rivalActor, projectID, request_models.SubmitQuoteRequest{Price: 650, EstimatedDurationDays: 3})
	require.NoError(t, err)

	// the professional cannot accept its own pending quote
	_, err = f.quotes.Accept(ctx, proActor, quote.ID)
	assert.ErrorIs(t, err, utils.ErrQuoteClosed)

	countered, err := f.quotes.Counter(ctx, client, quote.ID, request_models.CounterQuoteRequest{Price: 540, Message: "un peu moins ?"})
	require.NoError(t, err)
	assert.Equal(t, string(db_models.QuoteCountered), countered.Status)

	// once countered the client waits for the professional
	_, err = f.quotes.Accept(ctx, client, quote.ID)
	assert.ErrorIs(t, err, utils.ErrQuoteClosed)

	accepted, err := f.quotes.Accept(ctx, proActor, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.QuoteAccepted), accepted.Status)

	project, err := f.projectRepo.FindByID(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, db_models.ProjectAccepted, project.Status)
	require.NotNil(t, project.ProfessionalID)
	assert.Equal(t, pro.ID, *project.ProfessionalID)
	require.NotNil(t, project.AgreedPrice)
	assert.Equal(t, 540.0, *project.AgreedPrice)

	stored, err := f.quoteRepo.FindByID(ctx, rival.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.QuoteRejected, stored.Status)

	_, err = f.quotes.Accept(ctx, rivalActor, rival.ID)
	assert.Error(t, err)

	assert.Equal(t, []string{f.accountEmail(t, client.ID)}, f.mail.recipients())

	// professionals only see their own quotes
	list, err := f.quotes.ListForProject(ctx, rivalActor, projectID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rival.ID, list[0].ID)
}

func TestQuoteService_UnverifiedProfessionalCannotQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait4, 0)
	projectID := f.newProject(t, client, &sub.ID, "tiling", 20)
	_, err := f.projects.Publish(ctx, client, projectID)
	require.NoError(t, err)

	unverified := testutil.SeedProfessional(t, f.db, false, 30, map[string]float64{"tiling": 30})
	actor := request_models.Actor{ID: unverified.AccountID, Role: db_models.RoleProfessional}

	_, err = f.quotes.SubmitManual(ctx, actor, projectID, request_models.SubmitQuoteRequest{Price: 900, EstimatedDurationDays: 2})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestQuoteService_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait3, 0)
	_, proActor := f.professional(t, 35, map[string]float64{"electrical": 15})
	projectID := f.newProject(t, client, &sub.ID, "electrical", 10)
	_, err := f.projects.Publish(ctx, client, projectID)
	require.NoError(t, err)

	quote, err := f.quotes.SubmitManual(ctx, proActor, projectID, request_models.SubmitQuoteRequest{Price: 300, EstimatedDurationDays: 1})
	require.NoError(t, err)

	// a professional only declines counters
	_, err = f.quotes.Reject(ctx, proActor, quote.ID)
	assert.ErrorIs(t, err, utils.ErrQuoteClosed)

	rejected, err := f.quotes.Reject(ctx, client, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.QuoteRejected), rejected.Status)

	_, err = f.quotes.Counter(ctx, client, quote.ID, request_models.CounterQuoteRequest{Price: 250})
	assert.ErrorIs(t, err, utils.ErrQuoteClosed)
}
