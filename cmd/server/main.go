package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"openjournal.app/backend/internal/entity"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/internal/server"
	"openjournal.app/backend/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx := context.Background()
	users := userRepo.NewUserRepository(db)

	migrated, err := users.MigrateLegacyRoles(ctx)
	if err != nil {
		log.Fatalf("failed to migrate legacy roles: %v", err)
	}
	if migrated > 0 {
		log.Printf("Migrated %d legacy role rows", migrated)
	}

	if err := seedSuperAdmin(ctx, db, users); err != nil {
		log.Fatalf("failed to seed super admin: %v", err)
	}

	redisClient := connectRedis()

	srv := server.NewServer(db, redisClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Listening on :%s", port)
	if err := srv.Run(":" + port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.UserProfile{},
		&entity.Manuscript{},
		&entity.ManuscriptAuthor{},
		&entity.EditorialDecision{},
		&entity.Review{},
		&entity.ReviewAudit{},
		&entity.ProofingTask{},
		&entity.Article{},
		&entity.RoleRequest{},
		&entity.Notification{},
		&entity.EmailOutbox{},
		&entity.FileUpload{},
	)
}

func connectRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, rate limiting and live notifications are disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable at %s: %v", addr, err)
	}
	return client
}

// seedSuperAdmin provisions the account named by SUPER_ADMIN_EMAIL with the
// admin role. The same account backs the machine-facing gateway.
func seedSuperAdmin(ctx context.Context, db *gorm.DB, users userRepo.UserRepository) error {
	email := os.Getenv("SUPER_ADMIN_EMAIL")
	if email == "" {
		log.Println("SUPER_ADMIN_EMAIL not set, skipping admin seed")
		return nil
	}

	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		password := os.Getenv("SUPER_ADMIN_PASSWORD")
		if password == "" {
			log.Println("SUPER_ADMIN_PASSWORD not set, skipping admin seed")
			return nil
		}

		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}

		user = &entity.User{
			Email:        email,
			Name:         "Administrator",
			PasswordHash: string(hashed),
		}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error; err != nil {
			return err
		}
		log.Printf("Seeded super admin account %s", email)
	}

	profile, err := users.GetOrCreateProfile(ctx, user.ID)
	if err != nil {
		return err
	}
	if profile.HasRole(entity.RoleAdmin) {
		return nil
	}

	profile.Roles = append(profile.Roles, string(entity.RoleAdmin))
	profile.LegacyRole = nil
	return users.SaveProfile(ctx, profile)
}
