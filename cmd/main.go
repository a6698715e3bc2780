package main

import (
	"fmt"
	"os"

	"github.com/brandpilot/brandpilot-backend/internal/db"
	"github.com/brandpilot/brandpilot-backend/internal/handlers"
	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/middleware"
	"github.com/brandpilot/brandpilot-backend/internal/repos"
	"github.com/brandpilot/brandpilot-backend/internal/server"
	"github.com/brandpilot/brandpilot-backend/internal/services"
	"github.com/brandpilot/brandpilot-backend/internal/sse"
	"github.com/brandpilot/brandpilot-backend/internal/utils"
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
	port := utils.GetEnv("PORT", "8080", log)
	allowedOrigins := utils.GetEnv("ALLOWED_ORIGINS", "", log)
	defaultProvider := utils.GetEnv("DEFAULT_IMAGE_PROVIDER", "openai", log)
	packConcurrency := utils.GetEnvAsInt("PACK_CONCURRENCY", 3, log)

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
	brandMemoryRepo := repos.NewBrandMemoryRepo(thePG, log)
	brandKitRepo := repos.NewBrandKitRepo(thePG, log)
	briefRepo := repos.NewCreativeBriefRepo(thePG, log)
	packRepo := repos.NewCreativePackRepo(thePG, log)
	assetRepo := repos.NewCreativeAssetRepo(thePG, log)
	usageRepo := repos.NewAICallLogRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	// Services
	log.Info("Setting up Services from main...")
	// Generation cannot run without asset storage, so this is fatal.
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	imageProviders := map[string]services.ImageProvider{
		"openai": openaiClient,
	}
	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Warn("Could not init GeminiClient; gemini image generation disabled", "error", err)
	} else {
		imageProviders["gemini"] = geminiClient
	}

	brandMemoryService := services.NewBrandMemoryService(thePG, log, brandMemoryRepo, brandKitRepo)
	briefWorkflowService := services.NewBriefWorkflowService(thePG, log, briefRepo, brandMemoryRepo, usageRepo, openaiClient)
	promptBuilder := services.NewPromptBuilderService()
	qualityChecker := services.NewQualityCheckerService(log, openaiClient)
	packQueryService := services.NewPackQueryService(log, packRepo, assetRepo)
	packGenerator := services.NewPackGeneratorService(
		thePG,
		log,
		sseHub,
		briefRepo,
		brandMemoryRepo,
		packRepo,
		assetRepo,
		usageRepo,
		promptBuilder,
		qualityChecker,
		bucketService,
		imageProviders,
		defaultProvider,
		packConcurrency,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	briefHandler := handlers.NewBriefHandler(log, briefWorkflowService, packGenerator, packQueryService)
	packHandler := handlers.NewPackHandler(log, packQueryService, packGenerator)
	brandMemoryHandler := handlers.NewBrandMemoryHandler(log, brandMemoryService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:     authMiddleware,
		BriefHandler:       briefHandler,
		PackHandler:        packHandler,
		BrandMemoryHandler: brandMemoryHandler,
		SSEHandler:         sseHandler,
		AllowedOrigins:     allowedOrigins,
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
