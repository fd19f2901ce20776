package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/admin/dto"
	"openjournal.app/backend/internal/modules/admin/service"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	reviewRepo "openjournal.app/backend/internal/modules/review/repository"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/apperror"
)

type fixture struct {
	db    *gorm.DB
	users userRepo.UserRepository
	svc   service.AdminService
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.UserProfile{},
		&entity.Manuscript{}, &entity.Review{},
	))

	users := userRepo.NewUserRepository(db)
	manuscripts := manuscriptRepo.NewManuscriptRepository(db)
	reviews := reviewRepo.NewReviewRepository(db)

	return &fixture{
		db:    db,
		users: users,
		svc:   service.NewAdminService(users, manuscripts, reviews),
	}
}

func (f *fixture) createUser(t *testing.T, email string, roles ...entity.Role) *auth.Context {
	user := &entity.User{Email: email, Name: email, PasswordHash: "x"}
	require.NoError(t, f.db.Create(user).Error)

	profile, err := f.users.GetOrCreateProfile(context.Background(), user.ID)
	require.NoError(t, err)

	roleStrs := make([]string, 0, len(roles))
	for _, r := range roles {
		roleStrs = append(roleStrs, string(r))
	}
	profile.Roles = datatypes.NewJSONSlice(roleStrs)
	require.NoError(t, f.users.SaveProfile(context.Background(), profile))

	return &auth.Context{UserID: user.ID, Email: email, Name: email, Roles: roles}
}

func TestUpdateUserRolesOverwritesSet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@test.org", entity.RoleAdmin)
	target := f.createUser(t, "user@test.org", entity.RoleAuthor, entity.RoleReviewer)

	_, err := f.svc.UpdateUserRoles(ctx, admin, target.UserID, dto.UpdateUserRolesInput{
		Roles: []string{"author", "editor"},
	})
	require.NoError(t, err)

	profile, err := f.users.GetOrCreateProfile(ctx, target.UserID)
	require.NoError(t, err)
	assert.True(t, profile.HasRole(entity.RoleEditor))
	assert.False(t, profile.HasRole(entity.RoleReviewer))
}

func TestUpdateUserRolesPreservesAdminGrant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@test.org", entity.RoleAdmin)
	target := f.createUser(t, "other-admin@test.org", entity.RoleAdmin, entity.RoleAuthor)

	_, err := f.svc.UpdateUserRoles(ctx, admin, target.UserID, dto.UpdateUserRolesInput{
		Roles: []string{"editor"},
	})
	require.NoError(t, err)

	profile, err := f.users.GetOrCreateProfile(ctx, target.UserID)
	require.NoError(t, err)
	assert.True(t, profile.HasRole(entity.RoleAdmin))
	assert.True(t, profile.HasRole(entity.RoleEditor))
}

func TestUpdateUserRolesRequiresAdmin(t *testing.T) {
	f := setup(t)
	editor := f.createUser(t, "editor@test.org", entity.RoleEditor)
	target := f.createUser(t, "user@test.org", entity.RoleAuthor)

	_, err := f.svc.UpdateUserRoles(context.Background(), editor, target.UserID, dto.UpdateUserRolesInput{
		Roles: []string{"reviewer"},
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "admin@test.org", entity.RoleAdmin)

	err := f.svc.DeleteUser(context.Background(), admin, admin.UserID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestStatsCountByGroup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@test.org", entity.RoleAdmin)
	f.createUser(t, "author@test.org", entity.RoleAuthor)
	f.createUser(t, "reviewer@test.org", entity.RoleAuthor, entity.RoleReviewer)

	require.NoError(t, f.db.Create(&entity.Manuscript{
		Title: "Counted", Abstract: "a", Language: "en", FileRef: "f",
		Status: entity.StatusSubmitted,
	}).Error)

	stats, err := f.svc.GetStats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Manuscripts.Total)
	assert.Equal(t, int64(1), stats.Manuscripts.ByGroup[string(entity.StatusSubmitted)])
	assert.Equal(t, int64(2), stats.Users.ByGroup[string(entity.RoleAuthor)])
}
