package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khaja/internal/entitlement"
	"khaja/internal/models/db_models"
	"khaja/internal/testutil"
	"khaja/pkg/utils"
)

func TestSubscriptionRepository_CreateWithLedger(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()
	client := testutil.SeedAccount(t, db, db_models.RoleClient)

	sub := &db_models.Subscription{
		ClientID: client.ID,
		UsageState: entitlement.UsageState{
			Status:        entitlement.StatusActive,
			PlanID:        entitlement.Forfait2,
			MaxTasks:      8,
			LastResetDate: testutil.Epoch,
		},
		StartDate:       testutil.Epoch,
		EndDate:         testutil.Epoch.AddDate(1, 0, 0),
		LastPaymentDate: testutil.Epoch,
		NextPaymentDate: testutil.Epoch.AddDate(0, 1, 0),
	}
	entry := &db_models.SubscriptionTransaction{
		Date:   testutil.Epoch,
		Amount: 49.90,
		Type:   db_models.TxnPayment,
	}
	require.NoError(t, repo.Create(ctx, sub, entry))

	got, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entitlement.Forfait2, got.PlanID)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, 49.90, got.Transactions[0].Amount)

	active, err := repo.FindActiveByClient(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sub.ID, active.ID)
}

func TestSubscriptionRepository_FindMissingReturnsNil(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)

	got, err := repo.FindByID(context.Background(), testutil.SeedAccount(t, db, db_models.RoleClient).ID)

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubscriptionRepository_SaveUsageDetectsStaleVersion(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()
	client := testutil.SeedAccount(t, db, db_models.RoleClient)
	seeded := testutil.SeedSubscription(t, db, client.ID, entitlement.Forfait1, 0)

	first, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	first.TasksUsedThisMonth = 2
	first.ServicesUsed = append(first.ServicesUsed, entitlement.UsageEntry{ServiceID: "cleaning", Quantity: 2, Timestamp: testutil.Epoch})
	require.NoError(t, repo.SaveUsage(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.TasksUsedThisMonth = 1
	err = repo.SaveUsage(ctx, second)
	assert.ErrorIs(t, err, utils.ErrConcurrentUpdate)

	stored, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TasksUsedThisMonth)
	assert.Equal(t, int64(1), stored.Version)
	require.Len(t, stored.ServicesUsed, 1)
	assert.Equal(t, "cleaning", stored.ServicesUsed[0].ServiceID)
}

func TestSubscriptionRepository_UpdateFieldsAppendsLedger(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()
	client := testutil.SeedAccount(t, db, db_models.RoleClient)
	seeded := testutil.SeedSubscription(t, db, client.ID, entitlement.Forfait1, 0)

	sub, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)

	err = repo.UpdateFields(ctx, sub, map[string]interface{}{"status": entitlement.StatusCancelled}, &db_models.SubscriptionTransaction{
		Date: testutil.Epoch,
		Type: db_models.TxnCancellation,
	})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusCancelled, stored.Status)
	require.Len(t, stored.Transactions, 1)
	assert.Equal(t, db_models.TxnCancellation, stored.Transactions[0].Type)

	active, err := repo.FindActiveByClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSubscriptionRepository_LedgerIsAppendOnly(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()
	client := testutil.SeedAccount(t, db, db_models.RoleClient)
	seeded := testutil.SeedSubscription(t, db, client.ID, entitlement.Forfait1, 0)

	sub, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	entry := &db_models.SubscriptionTransaction{Date: testutil.Epoch, Amount: 29.90, Type: db_models.TxnPayment}
	require.NoError(t, repo.UpdateFields(ctx, sub, map[string]interface{}{"auto_renew": false}, entry))

	entry.Amount = 0
	assert.ErrorIs(t, db.Save(entry).Error, db_models.ErrLedgerImmutable)
	assert.ErrorIs(t, db.Delete(entry).Error, db_models.ErrLedgerImmutable)
}

func TestSubscriptionRepository_ListAndLedgerBetween(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		client := testutil.SeedAccount(t, db, db_models.RoleClient)
		plan := entitlement.Forfait1
		if i == 2 {
			plan = entitlement.Forfait3
		}
		seeded := testutil.SeedSubscription(t, db, client.ID, plan, 0)
		sub, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NoError(t, repo.UpdateFields(ctx, sub, nil, &db_models.SubscriptionTransaction{
			Date:   testutil.Epoch.Add(time.Duration(i) * time.Hour),
			Amount: 10,
			Type:   db_models.TxnPayment,
		}))
	}

	subs, total, err := repo.List(ctx, SubscriptionFilter{PlanID: entitlement.Forfait1, Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, subs, 1)

	rows, err := repo.LedgerBetween(ctx, testutil.Epoch, testutil.Epoch.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotEmpty(t, rows[0].ClientEmail)
	assert.True(t, !rows[1].Date.Before(rows[0].Date))
}
