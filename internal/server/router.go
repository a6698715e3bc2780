package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brandpilot/brandpilot-backend/internal/handlers"
	"github.com/brandpilot/brandpilot-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	BriefHandler       *handlers.BriefHandler
	PackHandler        *handlers.PackHandler
	BrandMemoryHandler *handlers.BrandMemoryHandler
	SSEHandler         *handlers.SSEHandler
	AllowedOrigins     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Briefs
	api.POST("/briefs", cfg.BriefHandler.CreateBrief)
	api.GET("/briefs", cfg.BriefHandler.ListBriefs)
	api.GET("/briefs/:id", cfg.BriefHandler.GetBrief)
	api.PUT("/briefs/:id", cfg.BriefHandler.UpdateBrief)
	api.POST("/briefs/:id/chat", cfg.BriefHandler.Chat)
	api.POST("/briefs/:id/generate", cfg.BriefHandler.GeneratePack)
	api.GET("/briefs/:id/packs", cfg.BriefHandler.ListBriefPacks)

	// Packs
	api.GET("/packs/:id", cfg.PackHandler.GetPack)
	api.POST("/packs/:id/directions/:direction/regenerate", cfg.PackHandler.RegenerateDirection)
	api.POST("/assets/:id/regenerate", cfg.PackHandler.RegenerateAsset)

	// Brand memory
	api.GET("/brand-memory", cfg.BrandMemoryHandler.GetActive)
	api.GET("/brand-memory/versions", cfg.BrandMemoryHandler.ListVersions)
	api.GET("/brand-memory/versions/:version", cfg.BrandMemoryHandler.GetVersion)
	api.POST("/brand-memory", cfg.BrandMemoryHandler.Create)
	api.PUT("/brand-memory", cfg.BrandMemoryHandler.Update)
	api.POST("/brand-memory/init-from-kit", cfg.BrandMemoryHandler.InitFromBrandKit)

	// SSE
	api.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}
