package main

import (
	"log"
	"os"

	_ "stockly/api/swagger" // swagger docs
	"stockly/internal/backup"
	"stockly/internal/database"
	"stockly/internal/handler"
	"stockly/internal/middleware"
	"stockly/internal/repository"
	"stockly/internal/service"
	"stockly/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Overridden at build time via -ldflags.
var (
	appVersion  = "1.0.0"
	buildNumber = "dev"
)

// @title           Stockly API
// @version         1.0
// @description     Inventory and invoicing backend for small jewelry stores.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	db, err := database.NewConnection()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to database successfully.")

	database.SeedSampleData(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	clientRepo := repository.NewClientRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	userService := service.NewUserService(userRepo)
	itemService := service.NewItemService(itemRepo, movementRepo, auditRepo, txManager, wsHub)
	categoryService := service.NewCategoryService(categoryRepo, auditRepo, txManager)
	clientService := service.NewClientService(clientRepo, auditRepo, txManager)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo, txManager)
	documentService := service.NewDocumentService(documentRepo, clientRepo, settingRepo, auditRepo, txManager)
	settingsService := service.NewSettingsService(settingRepo, txManager)
	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "backups"
	}
	backupService := service.NewBackupService(
		itemRepo, categoryRepo, clientRepo, supplierRepo,
		documentRepo, settingRepo, auditRepo, txManager,
		backupDir,
		backup.ProducerInfo{AppVersion: appVersion, BuildNumber: buildNumber, Platform: "server"},
	)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statsRepo, itemRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	itemHandler := handler.NewItemHandler(itemService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	clientHandler := handler.NewClientHandler(clientService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	documentHandler := handler.NewDocumentHandler(documentService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	backupHandler := handler.NewBackupHandler(backupService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	itemHandler.RegisterRoutes(router.Group(""))
	categoryHandler.RegisterRoutes(router.Group(""))
	clientHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	documentHandler.RegisterRoutes(router.Group(""))
	settingsHandler.RegisterRoutes(router.Group(""))
	backupHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
