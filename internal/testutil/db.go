// Package testutil holds fixtures shared by repository, service and controller tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"khaja/internal/entitlement"
	"khaja/internal/infra"
	"khaja/internal/models/db_models"
)

// Epoch is the fixed "now" of service tests.
var Epoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// NewDB returns an isolated, migrated in-memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := infra.OpenSQLite(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, infra.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func SeedAccount(t *testing.T, db *gorm.DB, role db_models.Role) db_models.Account {
	t.Helper()
	acc := db_models.Account{
		Name:         string(role) + " user",
		Email:        uuid.NewString() + "@khaja.test",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&acc).Error)
	return acc
}

// SeedSubscription stores an active subscription on plan for client, with used tasks
// already consumed in the current cycle.
func SeedSubscription(t *testing.T, db *gorm.DB, clientID uuid.UUID, plan entitlement.PlanID, used int) db_models.Subscription {
	t.Helper()
	def, ok := entitlement.DefaultCatalog().Plan(plan)
	require.True(t, ok)

	sub := db_models.Subscription{
		ClientID: clientID,
		UsageState: entitlement.UsageState{
			Status:             entitlement.StatusActive,
			PlanID:             plan,
			MaxTasks:           def.MaxTasks,
			TasksUsedThisMonth: used,
			LastResetDate:      Epoch.AddDate(0, 0, -5),
		},
		StartDate:       Epoch.AddDate(0, 0, -5),
		EndDate:         Epoch.AddDate(1, 0, -5),
		LastPaymentDate: Epoch.AddDate(0, 0, -5),
		NextPaymentDate: Epoch.AddDate(0, 1, -5),
		AutoRenew:       true,
	}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

// SeedProfessional stores a professional with one rate per work type.
func SeedProfessional(t *testing.T, db *gorm.DB, verified bool, hourly float64, rates map[string]float64) db_models.Professional {
	t.Helper()
	acc := SeedAccount(t, db, db_models.RoleProfessional)

	specialties := make([]string, 0, len(rates))
	for wt := range rates {
		specialties = append(specialties, wt)
	}
	status := db_models.VerificationNone
	if verified {
		status = db_models.VerificationApproved
	}

	pro := db_models.Professional{
		AccountID:          acc.ID,
		DisplayName:        acc.Name,
		HourlyRate:         hourly,
		Verified:           verified,
		SquareMeterRates:   datatypes.NewJSONType(rates),
		Specialties:        specialties,
		VerificationStatus: status,
	}
	require.NoError(t, db.Create(&pro).Error)
	return pro
}
