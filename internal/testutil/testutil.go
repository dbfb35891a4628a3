// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rental-backend/internal/database"
	"rental-backend/internal/models"
	"rental-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewStore is NewDB wrapped in a store.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(NewDB(t))
}

// Date builds a calendar date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixedClock returns a clock stuck at noon UTC of the given date.
func FixedClock(year int, month time.Month, day int) func() time.Time {
	now := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

// SeedUser inserts a landlord.
func SeedUser(t *testing.T, s *store.Store, email string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "Landlord " + email,
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleLandlord,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

// SeedProperty inserts an available property owned by owner.
func SeedProperty(t *testing.T, s *store.Store, owner uuid.UUID, name string, rent float64, dueDay int) *models.Property {
	t.Helper()
	p := &models.Property{
		OwnerID:    owner,
		Name:       name,
		Address:    "Rua das Flores 10",
		City:       "Curitiba",
		State:      "PR",
		Type:       "apartment",
		Bedrooms:   2,
		Bathrooms:  1,
		Area:       60,
		RentAmount: rent,
		DueDay:     dueDay,
	}
	require.NoError(t, s.CreateProperty(context.Background(), p))
	return p
}

// SeedTenant inserts a tenant on property and marks the property occupied,
// without generating any payment.
func SeedTenant(t *testing.T, s *store.Store, p *models.Property, name string, start, end time.Time) *models.Tenant {
	t.Helper()
	ctx := context.Background()
	tn := &models.Tenant{
		OwnerID:    p.OwnerID,
		Name:       name,
		Email:      name + "@example.com",
		Phone:      "+55 41 99999-0000",
		NationalID: "123.456.789-00",
		StartDate:  start,
		EndDate:    end,
		PropertyID: p.ID,
	}
	require.NoError(t, s.CreateTenant(ctx, tn))
	require.NoError(t, s.OccupyProperty(ctx, p.OwnerID, p.ID, tn.ID))

	fresh, err := s.GetProperty(ctx, p.OwnerID, p.ID)
	require.NoError(t, err)
	*p = *fresh
	return tn
}
