package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/models"
	"github.com/javajoker/lease-backend/internal/testutil"
)

func TestAuditPluginStampsActor(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := database.WithActor(context.Background(), "alice")

	site := &models.Site{SiteName: "North Ridge", Province: "Western"}
	require.NoError(t, db.WithContext(ctx).Create(site).Error)
	assert.Equal(t, "alice", site.CreatedBy)
	assert.Equal(t, "alice", site.ModifiedBy)

	site.Zone = "Z1"
	bob := database.WithActor(context.Background(), "bob")
	require.NoError(t, database.UpdateVersioned(db.WithContext(bob), site))

	var reloaded models.Site
	require.NoError(t, db.First(&reloaded, site.ID).Error)
	assert.Equal(t, "alice", reloaded.CreatedBy)
	assert.Equal(t, "bob", reloaded.ModifiedBy)
	assert.Equal(t, "Z1", reloaded.Zone)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestActorDefaultsToSystem(t *testing.T) {
	db := testutil.NewDB(t)
	landlord := &models.Landlord{FullName: "Jane Doe"}
	require.NoError(t, db.Create(landlord).Error)
	assert.Equal(t, database.SystemActor, landlord.CreatedBy)
}

func TestUpdateVersionedDetectsStaleWrite(t *testing.T) {
	db := testutil.NewDB(t)
	site := &models.Site{SiteName: "Harbour"}
	require.NoError(t, db.Create(site).Error)

	var first, second models.Site
	require.NoError(t, db.First(&first, site.ID).Error)
	require.NoError(t, db.First(&second, site.ID).Error)

	first.Zone = "A"
	require.NoError(t, database.UpdateVersioned(db, &first))

	second.Zone = "B"
	err := database.UpdateVersioned(db, &second)
	assert.ErrorIs(t, err, database.ErrStaleVersion)
	assert.Equal(t, int64(0), second.Version)

	var reloaded models.Site
	require.NoError(t, db.First(&reloaded, site.ID).Error)
	assert.Equal(t, "A", reloaded.Zone)
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	boom := errors.New("boom")

	err := database.WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Site{SiteName: "Temp"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.Site{}).Count(&count)
	assert.Zero(t, count)
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.SeedInitialData(db, "Adm1n!pass"))
	require.NoError(t, database.SeedInitialData(db, "Adm1n!pass"))

	var roles, users int64
	db.Model(&models.Role{}).Count(&roles)
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(3), roles)
	assert.Equal(t, int64(1), users)
}
