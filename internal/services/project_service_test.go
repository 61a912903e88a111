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
	"khaja/internal/quoting"
	"khaja/internal/testutil"
	"khaja/pkg/utils"
)

type acceptedProject struct {
	id       uuid.UUID
	client   request_models.Actor
	pro      db_models.Professional
	proActor request_models.Actor
}

// acceptedProjectFixture walks a forfait3 painting project up to an accepted quote.
func (f *fixture) acceptedProjectFixture(t *testing.T) acceptedProject {
	t.Helper()
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait3, 0)
	pro, proActor := f.professional(t, 30, map[string]float64{"painting": 10})
	projectID := f.newProject(t, client, &sub.ID, "painting", 20)

	resp, err := f.quotes.GenerateForProject(ctx, client, projectID, request_models.GenerateProjectQuotesRequest{})
	require.NoError(t, err)
	var quoteID uuid.UUID
	for _, q := range resp.Quotes {
		if q.ProfessionalID == pro.ID {
			quoteID = q.ID
		}
	}
	require.NotEqual(t, uuid.Nil, quoteID)
	_, err = f.quotes.Accept(ctx, client, quoteID)
	require.NoError(t, err)

	return acceptedProject{id: projectID, client: client, pro: pro, proActor: proActor}
}

func countProjects(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&db_models.Project{}).Count(&n).Error)
	return n
}

func TestProjectService_CreateConsumesTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait2, 2)

	resp, err := f.projects.Create(ctx, client, request_models.CreateProjectRequest{
		WorkType:       "gardening",
		SurfaceArea:    120,
		Description:    "taille de haie",
		SubscriptionID: strPtr(sub.ID.String()),
	})

	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectRequested), resp.Status)
	require.NotNil(t, resp.SubscriptionID)
	assert.Equal(t, sub.ID, *resp.SubscriptionID)

	stored := f.reloadSubscription(t, sub.ID)
	assert.Equal(t, 3, stored.TasksUsedThisMonth)
	require.Len(t, stored.ServicesUsed, 1)
	assert.Equal(t, "gardening", stored.ServicesUsed[0].ServiceID)
}

func TestProjectService_CreateDeniedCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	sub := testutil.SeedSubscription(t, f.db, client.ID, entitlement.Forfait1, 0)

	_, err := f.projects.Create(ctx, client, request_models.CreateProjectRequest{
		WorkType:       "tiling",
		SurfaceArea:    15,
		SubscriptionID: strPtr(sub.ID.String()),
	})

	var denial *entitlement.DenialError
	require.ErrorAs(t, err, &denial)
	assert.Equal(t, entitlement.ReasonNotCovered, denial.Decision.Reason)
	assert.Zero(t, countProjects(t, f))
	assert.Equal(t, 0, f.reloadSubscription(t, sub.ID).TasksUsedThisMonth)
}

func TestProjectService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)

	_, err := f.projects.Create(ctx, client, request_models.CreateProjectRequest{WorkType: "roofing", SurfaceArea: 10})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.projects.Create(ctx, client, request_models.CreateProjectRequest{WorkType: "cleaning", SurfaceArea: 0})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.projects.Create(ctx, client, request_models.CreateProjectRequest{WorkType: "cleaning", SurfaceArea: 1e20})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.ErrorIs(t, err, quoting.ErrSurfaceAreaTooLarge)

	_, proActor := f.professional(t, 30, map[string]float64{"cleaning": 2})
	_, err = f.projects.Create(ctx, proActor, request_models.CreateProjectRequest{WorkType: "cleaning", SurfaceArea: 10})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	resp, err := f.projects.Create(ctx, client, request_models.CreateProjectRequest{WorkType: "cleaning", SurfaceArea: 10})
	require.NoError(t, err)
	assert.Nil(t, resp.SubscriptionID)
}

func TestProjectService_PublishNeedsCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	basic := f.client(t)
	basicSub := testutil.SeedSubscription(t, f.db, basic.ID, entitlement.Forfait1, 0)
	basicProject := f.newProject(t, basic, &basicSub.ID, "cleaning", 50)
	_, err := f.projects.Publish(ctx, basic, basicProject)
	assert.ErrorIs(t, err, utils.ErrPlanCapability)

	noSub := f.client(t)
	loose := f.newProject(t, noSub, nil, "cleaning", 50)
	_, err = f.projects.Publish(ctx, noSub, loose)
	assert.ErrorIs(t, err, utils.ErrPlanCapability)

	premium := f.client(t)
	premiumSub := testutil.SeedSubscription(t, f.db, premium.ID, entitlement.Forfait4, 0)
	premiumProject := f.newProject(t, premium, &premiumSub.ID, "tiling", 18)
	resp, err := f.projects.Publish(ctx, premium, premiumProject)
	require.NoError(t, err)
	assert.True(t, resp.Published)

	// published offers show up for any professional
	_, proActor := f.professional(t, 30, map[string]float64{"tiling": 30})
	list, err := f.projects.List(ctx, proActor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, premiumProject, list[0].ID)

	_, err = f.projects.Get(ctx, proActor, basicProject)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestProjectService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.acceptedProjectFixture(t)

	_, err := f.projects.Validate(ctx, p.client, p.id)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition, "validate before work is done")

	_, outsider := f.professional(t, 30, map[string]float64{"painting": 10})
	_, err = f.projects.Start(ctx, outsider, p.id)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.projects.Start(ctx, p.client, p.id)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	resp, err := f.projects.Start(ctx, p.proActor, p.id)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectInProgress), resp.Status)

	resp, err = f.projects.Complete(ctx, p.proActor, p.id)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectCompleted), resp.Status)

	_, err = f.projects.Review(ctx, p.client, p.id, request_models.ReviewProjectRequest{Rating: 5})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition, "review before validation")

	resp, err = f.projects.Validate(ctx, p.client, p.id)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectValidated), resp.Status)

	_, err = f.projects.Review(ctx, p.client, p.id, request_models.ReviewProjectRequest{Rating: 6})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	resp, err = f.projects.Review(ctx, p.client, p.id, request_models.ReviewProjectRequest{Rating: 4, Comment: "propre"})
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectReviewed), resp.Status)

	_, err = f.projects.Review(ctx, p.client, p.id, request_models.ReviewProjectRequest{Rating: 4})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	pro, err := f.professionals.Get(ctx, p.pro.ID)
	require.NoError(t, err)
	require.NotNil(t, pro.AverageRating)
	assert.Equal(t, 4.0, *pro.AverageRating)
}

func TestProjectService_CancelRejectsOpenQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.client(t)
	f.professional(t, 25, map[string]float64{"ironing": 1})
	projectID := f.newProject(t, client, nil, "ironing", 30)

	_, err := f.quotes.GenerateForProject(ctx, client, projectID, request_models.GenerateProjectQuotesRequest{})
	require.NoError(t, err)

	_, err = f.projects.Cancel(ctx, f.client(t), projectID)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	resp, err := f.projects.Cancel(ctx, client, projectID)
	require.NoError(t, err)
	assert.Equal(t, string(db_models.ProjectCancelled), resp.Status)

	quotes, err := f.quoteRepo.ListByProject(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, db_models.QuoteRejected, quotes[0].Status)

	_, err = f.projects.Cancel(ctx, client, projectID)
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestProjectService_CannotCancelAcceptedProject(t *testing.T) {
	f := newFixture(t)
	p := f.acceptedProjectFixture(t)

	_, err := f.projects.Cancel(context.Background(), p.client, p.id)

	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestProjectService_GetFiltersQuotesForProfessionals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.acceptedProjectFixture(t)

	owner, err := f.projects.Get(ctx, p.client, p.id)
	require.NoError(t, err)
	assert.Len(t, owner.Quotes, 1)

	assigned, err := f.projects.Get(ctx, p.proActor, p.id)
	require.NoError(t, err)
	require.Len(t, assigned.Quotes, 1)
	assert.Equal(t, p.pro.ID, assigned.Quotes[0].ProfessionalID)

	_, err = f.projects.Get(ctx, f.client(t), p.id)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.projects.Get(ctx, p.client, uuid.New())
	assert.ErrorIs(t, err, utils.ErrProjectNotFound)
}
