package main

import (
	"context"
	"log"
	"os"
	"time"

	_ "stokledger/api/swagger" // swagger docs
	"stokledger/internal/database"
	"stokledger/internal/handler"
	"stokledger/internal/middleware"
	"stokledger/internal/repository"
	"stokledger/internal/service"
	"stokledger/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Stok Ledger API
// @version         1.0
// @description     Multi-tenant inventory ledger with a request/approval workflow and monthly balance reconstruction.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	jwtSecret := middleware.GetJWTSecret()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	productRepo := repository.NewProductRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authMW := middleware.NewAuthMiddleware(membershipRepo, jwtSecret)

	userService := service.NewUserService(userRepo, jwtSecret)
	orgService := service.NewOrganizationService(orgRepo, membershipRepo, userRepo, auditRepo, txManager, authMW.InvalidateRole)
	ledgerService := service.NewLedgerService(productRepo, transactionRepo, auditRepo, txManager, wsHub)
	requestService := service.NewRequestService(requestRepo, productRepo, transactionRepo, auditRepo, txManager, wsHub)
	reportService := service.NewReportService(productRepo, transactionRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(userService, authMW)
	orgHandler := handler.NewOrganizationHandler(orgService, authMW)
	productHandler := handler.NewProductHandler(ledgerService, authMW)
	transactionHandler := handler.NewTransactionHandler(ledgerService, authMW)
	requestHandler := handler.NewRequestHandler(requestService, authMW)
	reportHandler := handler.NewReportHandler(reportService, authMW)
	auditHandler := handler.NewAuditHandler(auditService, authMW)

	// Background sweep for terminal stock requests
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			deleted, sweepErr := requestService.CleanupOldTerminal(context.Background(), service.DefaultTerminalRetention)
			if sweepErr != nil {
				log.Println("Stock request cleanup failed:", sweepErr)
				continue
			}
			if deleted > 0 {
				log.Printf("Stock request cleanup removed %d terminal requests", deleted)
			}
		}
	}()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
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
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	orgHandler.RegisterRoutes(router.Group(""))
	productHandler.RegisterRoutes(router.Group(""))
	transactionHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
