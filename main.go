package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medspagpt/backend/config"
	"github.com/medspagpt/backend/generator"
	"github.com/medspagpt/backend/logging"
	"github.com/medspagpt/backend/middleware"
	"github.com/medspagpt/backend/pagespeed"
	"github.com/medspagpt/backend/parser"
	"github.com/medspagpt/backend/places"
	"github.com/medspagpt/backend/stats"
)

func setupGinMode(mode string) {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	cfg := config.Load()
	setupGinMode(cfg.GinMode)

	logger := logging.NewLogger()

	usage, err := stats.NewStorage(cfg.StatsDataDir)
	if err != nil {
		log.Fatal("Failed to initialize usage statistics:", err)
	}

	a := &app{
		cfg:       cfg,
		log:       logger,
		places:    places.NewClient(cfg.GooglePlacesAPIKey, logger),
		pagespeed: pagespeed.NewClient(cfg.PageSpeedAPIKey, cfg.PageSpeedTimeout, cfg.PageSpeedMaxRetries, logger),
		parser:    parser.New(cfg.ParseTimeout, cfg.ParseCacheTTL, logger),
		generator: generator.NewClient(cfg.OpenAIAPIKey, logger),
		usage:     usage,
	}

	r := newRouter(a)

	logger.Info("Server starting on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func newRouter(a *app) *gin.Engine {
	rateLimiter := middleware.NewRateLimiter(2, 5) // 2 requests per second, bucket size of 5

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.ErrorHandler(a.log))
	r.Use(rateLimiter.RateLimit())
	r.Use(middleware.Stats(a.usage))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.GET("/statistics", a.handleStatistics)

		api.POST("/search-medspas", a.handleSearchMedSpas)
		api.POST("/seo-analysis", a.handleSEOAnalysis)
		api.POST("/competitor-analysis", a.handleCompetitorAnalysis)
		api.POST("/website-parse", a.handleWebsiteParse)
		api.POST("/seo-analyzer", a.handleSEOAnalyzer)
		api.POST("/generate-website", a.handleGenerateWebsite)
		api.POST("/llm-seo-analysis", a.handleLLMSEOAnalysis)
	}

	return r
}
