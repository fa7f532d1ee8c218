package main

import (
	"os"

	_ "teambot/api/swagger" // swagger docs
	"teambot/internal/chat"
	"teambot/internal/database"
	"teambot/internal/handler"
	"teambot/internal/mailer"
	"teambot/internal/middleware"
	"teambot/internal/repository"
	"teambot/internal/service"
	"teambot/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Team Management Bot API
// @version         1.0
// @description     Team inventory, contacts and expense receipt validation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info("no configs/.env file found, using environment variables")
	}
	defer logger.Sync()

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "teambot")
	dbSslMode := getEnv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal("database connection failed: " + err.Error())
	}
	logger.Info("connected to PostgreSQL")
	database.SeedAdmin(db)

	// Direct-session hub: notifications and review prompts travel here
	hub := chat.NewHub()
	go hub.Run()

	// Repository -> Service -> Handler
	userRepo := repository.NewUserRepository(db)
	stockRepo := repository.NewStockRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	mail := mailer.NewFromEnv()

	userService := service.NewUserService(userRepo, auditRepo, txManager, middleware.GetJWTSecret())
	inventoryService := service.NewInventoryService(stockRepo, userRepo, auditRepo, txManager, mail)
	receiptService := service.NewReceiptService(receiptRepo, auditRepo, txManager)
	validationService := service.NewValidationService(receiptRepo, userRepo, hub, hub)

	userHandler := handler.NewUserHandler(userService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	validationHandler := handler.NewValidationHandler(validationService, hub)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
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

	// Direct session endpoint (the private one-to-one channel)
	router.GET("/ws", func(c *gin.Context) {
		chat.ServeWs(hub, c, middleware.GetJWTSecret())
	})

	userHandler.RegisterRoutes(router.Group(""))
	inventoryHandler.RegisterRoutes(router.Group(""))
	receiptHandler.RegisterRoutes(router.Group(""))
	validationHandler.RegisterRoutes(router.Group(""))

	port := getEnv("PORT", "8080")
	logger.Info("server listening on :" + port)
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server failed: " + err.Error())
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
