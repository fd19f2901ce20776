package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"openjournal.app/backend/internal/middleware"
	"openjournal.app/backend/pkg/mailer"
	"openjournal.app/backend/pkg/storage"

	adminHttp "openjournal.app/backend/internal/modules/admin/delivery/http"
	adminService "openjournal.app/backend/internal/modules/admin/service"

	articleHttp "openjournal.app/backend/internal/modules/article/delivery/http"
	articleRepo "openjournal.app/backend/internal/modules/article/repository"
	articleService "openjournal.app/backend/internal/modules/article/service"

	fileHttp "openjournal.app/backend/internal/modules/files/delivery/http"
	fileRepo "openjournal.app/backend/internal/modules/files/repository"
	fileService "openjournal.app/backend/internal/modules/files/service"

	gatewayHttp "openjournal.app/backend/internal/modules/gateway/delivery/http"
	gatewayService "openjournal.app/backend/internal/modules/gateway/service"

	manuscriptHttp "openjournal.app/backend/internal/modules/manuscript/delivery/http"
	manuscriptRepo "openjournal.app/backend/internal/modules/manuscript/repository"
	manuscriptService "openjournal.app/backend/internal/modules/manuscript/service"

	notiHttp "openjournal.app/backend/internal/modules/notification/delivery/http"
	notifRepo "openjournal.app/backend/internal/modules/notification/repository"
	notifService "openjournal.app/backend/internal/modules/notification/service"

	proofingHttp "openjournal.app/backend/internal/modules/proofing/delivery/http"
	proofingRepo "openjournal.app/backend/internal/modules/proofing/repository"
	proofingService "openjournal.app/backend/internal/modules/proofing/service"

	reviewHttp "openjournal.app/backend/internal/modules/review/delivery/http"
	reviewRepo "openjournal.app/backend/internal/modules/review/repository"
	reviewService "openjournal.app/backend/internal/modules/review/service"

	roleReqHttp "openjournal.app/backend/internal/modules/rolerequest/delivery/http"
	roleReqRepo "openjournal.app/backend/internal/modules/rolerequest/repository"
	roleReqService "openjournal.app/backend/internal/modules/rolerequest/service"

	searchService "openjournal.app/backend/internal/modules/search/service"

	userHttp "openjournal.app/backend/internal/modules/user/delivery/http"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	userService "openjournal.app/backend/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	cron        *cron.Cron
}

func NewServer(db *gorm.DB, redisClient *redis.Client) *Server {
	userRepository := userRepo.NewUserRepository(db)
	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	// Initialize Meilisearch
	meiliHost := os.Getenv("MEILISEARCH_HOST")
	if meiliHost == "" {
		meiliHost = "http://localhost:7700"
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}

	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(os.Getenv("MEILI_MASTER_KEY")))
	searchSvc := searchService.NewSearchService(meiliClient)

	authSvc := userService.NewAuthService(userRepository)
	profileSvc := userService.NewProfileService(userRepository)
	userHandler := userHttp.NewUserHandler(authSvc, profileSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	outboxSvc := notifService.NewOutboxService(notificationRepository, mailer.NewSMTPSender())
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient)

	manuscriptRepository := manuscriptRepo.NewManuscriptRepository(db)

	proofingRepository := proofingRepo.NewProofingRepository(db)
	proofingSvc := proofingService.NewProofingService(proofingRepository, manuscriptRepository, userRepository, fileStorage)
	proofingHandler := proofingHttp.NewProofingHandler(proofingSvc)

	manuscriptSvc := manuscriptService.NewManuscriptService(manuscriptRepository, userRepository, proofingSvc, notificationSvc, searchSvc, fileStorage)
	manuscriptHandler := manuscriptHttp.NewManuscriptHandler(manuscriptSvc)

	reviewRepository := reviewRepo.NewReviewRepository(db)
	reviewSvc := reviewService.NewReviewService(reviewRepository, manuscriptRepository, userRepository, notificationSvc, outboxSvc, fileStorage)
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	articleRepository := articleRepo.NewArticleRepository(db)
	articleSvc := articleService.NewArticleService(articleRepository, proofingRepository, manuscriptRepository, userRepository, searchSvc, fileStorage)
	articleHandler := articleHttp.NewArticleHandler(articleSvc)

	roleRequestRepository := roleReqRepo.NewRoleRequestRepository(db)
	roleRequestSvc := roleReqService.NewRoleRequestService(roleRequestRepository, userRepository)
	roleRequestHandler := roleReqHttp.NewRoleRequestHandler(roleRequestSvc)

	adminSvc := adminService.NewAdminService(userRepository, manuscriptRepository, reviewRepository)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	fileRepository := fileRepo.NewFileRepository(db)
	fileSvc := fileService.NewFileService(fileRepository, fileStorage)
	fileHandler := fileHttp.NewFileHandler(fileSvc)

	gatewaySvc := gatewayService.NewGatewayService(manuscriptSvc, manuscriptRepository, reviewSvc, articleSvc, proofingRepository, userRepository, outboxSvc, searchSvc)
	gatewayHandler := gatewayHttp.NewGatewayHandler(gatewaySvc)

	// Background jobs: the outbox dispatcher runs every minute, the overdue
	// review sweep once an hour.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		if err := outboxSvc.DispatchPending(context.Background()); err != nil {
			log.Printf("outbox dispatch failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("failed to schedule outbox dispatcher: %v", err)
	}
	if _, err := scheduler.AddFunc("@hourly", func() {
		if err := reviewSvc.CheckForOverdueReviews(context.Background()); err != nil {
			log.Printf("overdue review sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("failed to schedule overdue review sweep: %v", err)
	}
	scheduler.Start()

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepository)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(userRepository, redisClient)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", userHandler.Signup)
		auth.POST("/login", userHandler.Login)
	}

	api.GET("/articles", articleHandler.GetPublishedArticles)
	api.GET("/articles/search", articleHandler.SearchArticles)
	api.GET("/articles/slug/:slug", articleHandler.GetArticleBySlug)
	api.GET("/manuscripts/published", manuscriptHandler.GetPublished)
	api.GET("/manuscripts/slug/:slug", manuscriptHandler.GetBySlug)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/stats", adminHandler.GetStats)
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id/roles", adminHandler.UpdateUserRoles)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/manuscripts", manuscriptHandler.GetAll)
			adminGroup.GET("/role-requests", roleRequestHandler.GetAllRequests)
			adminGroup.GET("/role-requests/pending-count", roleRequestHandler.GetPendingCount)
			adminGroup.PUT("/role-requests/:id", roleRequestHandler.ReviewRoleRequest)
		}

		// Profile routes
		protected.GET("/profile/me", userHandler.GetCurrentProfile)
		protected.PUT("/profile", userHandler.UpdateProfile)

		// Manuscript routes
		protected.POST("/manuscripts", manuscriptHandler.Submit)
		protected.GET("/manuscripts/me", manuscriptHandler.GetMine)
		protected.GET("/manuscripts/queue", manuscriptHandler.GetEditorQueue)
		protected.POST("/manuscripts/:id/decision", manuscriptHandler.MakeDecision)

		// Review routes
		protected.POST("/reviews", reviewHandler.AssignReviewer)
		protected.GET("/reviews", reviewHandler.GetReviewsForEditor)
		protected.GET("/reviews/assigned", reviewHandler.GetAssignedReviews)
		protected.GET("/reviews/:id", reviewHandler.GetReview)
		protected.PUT("/reviews/:id", reviewHandler.SubmitReview)
		protected.DELETE("/reviews/:id", reviewHandler.RemoveReviewer)

		// Proofing routes
		protected.GET("/proofing/tasks", proofingHandler.GetTasks)
		protected.GET("/proofing/tasks/:id", proofingHandler.GetTask)
		protected.POST("/proofing/tasks/:id/file", proofingHandler.UploadProofedFile)

		// Publication
		protected.POST("/articles", articleHandler.PublishArticle)

		// Role request routes
		protected.POST("/role-requests", roleRequestHandler.RequestRole)
		protected.GET("/role-requests/me", roleRequestHandler.GetMyRequests)

		// Reviewer picker for editors
		protected.GET("/users/reviewers", userHandler.ListReviewers)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Upload
		protected.POST("/upload", fileHandler.UploadFile)
	}

	// Machine-facing gateway
	mcp := router.Group("/mcp/v1")
	mcp.Use(apiKeyMiddleware.RequireAPIKey())
	{
		mcp.POST("/manuscripts", gatewayHandler.SubmitManuscript)
		mcp.GET("/manuscripts", gatewayHandler.SearchManuscripts)
		mcp.GET("/manuscripts/:id", gatewayHandler.GetManuscript)
		mcp.POST("/manuscripts/:id/reviewers", gatewayHandler.AssignReviewers)
		mcp.POST("/manuscripts/:id/decision", gatewayHandler.MakeDecision)
		mcp.POST("/manuscripts/:id/publish", gatewayHandler.PublishManuscript)
		mcp.PUT("/reviews/:id", gatewayHandler.SubmitReview)
		mcp.GET("/articles/search", gatewayHandler.SearchArticles)
		mcp.POST("/notifications", gatewayHandler.NotifyUser)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		cron:        scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
