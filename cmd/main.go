package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/redis"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/clients/vnpay"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/db"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/handlers"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/logger"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/middleware"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/repos"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/server"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/services"
	"github.com/ThanhHiepNguyen/techshop-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8080", log)
	allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	paymentResultURL := utils.GetEnv("PAYMENT_RESULT_URL", "http://localhost:3000/payment/result", log)
	clarifyConfigPath := os.Getenv("CLARIFY_CONFIG_PATH")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	cartRepo := repos.NewCartRepo(thePG, log)
	orderRepo := repos.NewOrderRepo(thePG, log)
	paymentRepo := repos.NewPaymentRepo(thePG, log)
	chatConvRepo := repos.NewChatConversationRepo(thePG, log)
	chatMsgRepo := repos.NewChatMessageRepo(thePG, log)

	// Clients
	log.Info("Setting up Clients from main...")
	cache, err := redis.NewCache(log)
	if err != nil {
		log.Warn("Could not init redis cache, running without it", "error", err)
		cache = nil
	}
	vnpayClient, err := vnpay.New(vnpay.Config{
		TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
		HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
		GatewayURL: os.Getenv("VNPAY_GATEWAY_URL"),
		ReturnURL:  os.Getenv("VNPAY_RETURN_URL"),
		HashAlgo:   os.Getenv("VNPAY_HASH_ALGO"),
	}, log)
	if err != nil {
		log.Warn("Could not init VNPay client, payment disabled", "error", err)
		vnpayClient = nil
	}

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
		bucketService = nil
	}
	aiClient := services.NewAIClient(log)
	clarifyTemplates, err := services.LoadClarifyTemplates(clarifyConfigPath)
	if err != nil {
		log.Warn("Could not load clarify template overrides, using defaults", "error", err)
	}

	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo, bucketService)
	categoryService := services.NewCategoryService(thePG, log, categoryRepo, productRepo, cache)
	productService := services.NewProductService(thePG, log, productRepo, categoryRepo, reviewRepo, cache, bucketService)
	cartService := services.NewCartService(thePG, log, cartRepo, productRepo)
	reviewService := services.NewReviewService(thePG, log, reviewRepo, productRepo, cache)
	orderService := services.NewOrderService(thePG, log, orderRepo, cartRepo, productRepo)
	paymentService := services.NewPaymentService(thePG, log, paymentRepo, orderRepo, vnpayClient)
	chatService := services.NewChatService(thePG, log, chatConvRepo, chatMsgRepo, aiClient, clarifyTemplates)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(log, authService, cartService)
	userHandler := handlers.NewUserHandler(log, userService)
	categoryHandler := handlers.NewCategoryHandler(log, categoryService)
	productHandler := handlers.NewProductHandler(log, productService)
	cartHandler := handlers.NewCartHandler(log, cartService)
	reviewHandler := handlers.NewReviewHandler(log, reviewService)
	orderHandler := handlers.NewOrderHandler(log, orderService)
	paymentHandler := handlers.NewPaymentHandler(log, paymentService, paymentResultURL)
	chatHandler := handlers.NewChatHandler(log, chatService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up Router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  authMiddleware,
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		CategoryHandler: categoryHandler,
		ProductHandler:  productHandler,
		CartHandler:     cartHandler,
		ReviewHandler:   reviewHandler,
		OrderHandler:    orderHandler,
		PaymentHandler:  paymentHandler,
		ChatHandler:     chatHandler,
		AllowOrigins:    strings.Split(allowOrigins, ","),
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
