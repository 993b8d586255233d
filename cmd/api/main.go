package main

import (
	"context"
	"os"
	"time"

	"backend/internal/cache"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/logger"
	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// @title           Internal Operations API
// @version         1.0
// @description     Role-based internal business application: users, chat, time tracking, production, inventory and leave.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		// fall back to process environment
	}

	log := logger.New()
	defer func() { _ = log.Sync() }()

	db, err := database.NewConnection(buildDSN())
	if err != nil {
		log.Fatalw("database connection failed", "error", err)
	}
	log.Info("connected to PostgreSQL")

	// Presence: Redis when configured, in-memory otherwise
	var presence cache.PresenceStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		presence = cache.NewRedisPresence(addr, os.Getenv("REDIS_PASSWORD"))
		log.Infow("using redis presence store", "addr", addr)
	} else {
		presence = cache.NewMemoryPresence()
		log.Info("REDIS_ADDR not set, using in-memory presence store")
	}

	wsHub := websocket.NewHub(presence, log)
	go wsHub.Run()
	defer wsHub.Stop()

	middleware.InitPermissionMiddleware(db)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	timeTrackingRepo := repository.NewTimeTrackingRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	// Services
	userService := service.NewUserService(userRepo, auditRepo)
	roleService := service.NewRoleService(roleRepo, auditRepo)
	chatService := service.NewChatService(chatRepo, userRepo, wsHub)
	notificationService := service.NewNotificationService(notificationRepo, auditRepo, wsHub, log)
	timeTrackingService := service.NewTimeTrackingService(timeTrackingRepo, productionRepo, txManager)
	productionService := service.NewProductionService(productionRepo, auditRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, auditRepo, txManager)
	leaveService := service.NewLeaveService(leaveRepo, auditRepo, notificationService)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	// Socket events route through the same chat service as REST
	wsHub.SetChatHandler(chatService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := roleService.SeedDefaults(ctx); err != nil {
		log.Fatalw("seeding roles failed", "error", err)
	}
	if err := bootstrapAdmin(ctx, userRepo, roleRepo, log); err != nil {
		log.Fatalw("bootstrapping admin failed", "error", err)
	}

	go notificationService.RunScheduler(ctx, 30*time.Second)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	chatHandler := handler.NewChatHandler(chatService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	timeTrackingHandler := handler.NewTimeTrackingHandler(timeTrackingService)
	productionHandler := handler.NewProductionHandler(productionService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	leaveHandler := handler.NewLeaveHandler(leaveService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	api := router.Group("")
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	chatHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	timeTrackingHandler.RegisterRoutes(api)
	productionHandler.RegisterRoutes(api)
	inventoryHandler.RegisterRoutes(api)
	leaveHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Infow("server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}

func buildDSN() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	host := get("DB_HOST", "localhost")
	port := get("DB_PORT", "5432")
	user := get("DB_USER", "postgres")
	password := get("DB_PASSWORD", "postgres")
	name := get("DB_NAME", "postgres")
	sslMode := get("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

// bootstrapAdmin creates the initial admin account on an empty installation
func bootstrapAdmin(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, log *zap.SugaredLogger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	if _, err := users.GetByUsername(ctx, username); err == nil {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Warn("ADMIN_PASSWORD not set, bootstrap admin uses the default password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username: username,
		Email:    username + "@local",
		Name:     "Administrator",
		Password: string(hash),
		IsActive: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	adminRole, err := roles.FindByName(ctx, "admin")
	if err != nil {
		return err
	}
	if err := users.SetRoles(ctx, admin.ID, []uuid.UUID{adminRole.ID}); err != nil {
		return err
	}

	log.Infow("bootstrap admin created", "username", username)
	return nil
}
