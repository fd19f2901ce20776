package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/user/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.UserProfile{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *entity.User {
	user := &entity.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func strPtr(s string) *string { return &s }

func TestGetOrCreateProfileDefaultsToAuthor(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewUserRepository(db)
	user := createUser(t, db, "new@test.org")

	profile, err := repo.GetOrCreateProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.Role{entity.RoleAuthor}, profile.RoleSet())

	// A second call returns the same row, not a duplicate.
	again, err := repo.GetOrCreateProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.UserID, again.UserID)

	var count int64
	require.NoError(t, db.Model(&entity.UserProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrateLegacyRoles(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	legacyUser := createUser(t, db, "legacy@test.org")
	require.NoError(t, db.Create(&entity.UserProfile{
		UserID:     legacyUser.ID,
		Name:       "Legacy",
		LegacyRole: strPtr("editor"),
	}).Error)

	modernUser := createUser(t, db, "modern@test.org")
	_, err := repo.GetOrCreateProfile(ctx, modernUser.ID)
	require.NoError(t, err)

	migrated, err := repo.MigrateLegacyRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), migrated)

	profile, err := repo.FindProfile(ctx, legacyUser.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.LegacyRole)
	assert.True(t, profile.HasRole(entity.RoleEditor))

	// Idempotent: a second run migrates nothing.
	migrated, err = repo.MigrateLegacyRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), migrated)
}

func TestRoleSetFallsBackToLegacyColumn(t *testing.T) {
	profile := &entity.UserProfile{LegacyRole: strPtr("reviewer")}
	assert.Equal(t, []entity.Role{entity.RoleReviewer}, profile.RoleSet())

	empty := &entity.UserProfile{}
	assert.Equal(t, []entity.Role{entity.RoleAuthor}, empty.RoleSet())
}
