package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"openjournal.app/backend/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error

	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error)
	GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error)
	SaveProfile(ctx context.Context, profile *entity.UserProfile) error
	FindAllProfiles(ctx context.Context) ([]entity.UserProfile, error)
	MigrateLegacyRoles(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).Preload("Profile").Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&entity.UserProfile{}, "user_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&entity.User{}, "id = ?", id).Error
}

func (r *userRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error) {
	var profile entity.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetOrCreateProfile returns the profile for userID, creating it with the
// default author role on first use.
func (r *userRepository) GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error) {
	var profile entity.UserProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}

	profile = entity.UserProfile{
		UserID: userID,
		Name:   user.Name,
		Roles:  []string{string(entity.RoleAuthor)},
	}
	if err := r.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) SaveProfile(ctx context.Context, profile *entity.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *userRepository) FindAllProfiles(ctx context.Context) ([]entity.UserProfile, error) {
	var profiles []entity.UserProfile
	err := r.db.WithContext(ctx).Find(&profiles).Error
	return profiles, err
}

// MigrateLegacyRoles converts any remaining single-role rows into the set
// representation and clears the legacy column. Runs once at startup.
func (r *userRepository) MigrateLegacyRoles(ctx context.Context) (int64, error) {
	var profiles []entity.UserProfile
	if err := r.db.WithContext(ctx).
		Where("role IS NOT NULL AND role <> ''").
		Find(&profiles).Error; err != nil {
		return 0, err
	}

	var migrated int64
	for i := range profiles {
		profile := &profiles[i]

		roles := profile.Roles
		legacy := *profile.LegacyRole
		found := false
		for _, existing := range roles {
			if existing == legacy {
				found = true
				break
			}
		}
		if !found {
			roles = append(roles, legacy)
		}

		profile.Roles = roles
		profile.LegacyRole = nil
		if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
			return migrated, err
		}
		migrated++
	}

	return migrated, nil
}
