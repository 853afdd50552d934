package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sushibar/waitline/internal/config"
	"sushibar/waitline/internal/handler/middleware"
	"sushibar/waitline/internal/repository"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	limiterStore repository.LimiterStore,
	queueHandler *QueueHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	// gin-contrib/cors panics when every origin is disabled, so configs
	// without a cors section get no CORS layer at all.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORS))
	}

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Static front end (join/ticket/admin pages, polling)
	if cfg.Server.StaticDir != "" {
		r.Static("/static", cfg.Server.StaticDir)
		r.StaticFile("/", cfg.Server.StaticDir+"/index.html")
		r.StaticFile("/ticket.html", cfg.Server.StaticDir+"/ticket.html")
		r.StaticFile("/admin.html", cfg.Server.StaticDir+"/admin.html")
	}

	// Guest routes
	api := r.Group("/api")
	{
		join := api.Group("")
		if cfg.RateLimit.Enabled {
			join.Use(middleware.RateLimit(cfg.RateLimit, limiterStore, logger))
		}
		join.POST("/join", queueHandler.Join)

		api.GET("/ticket/:code", queueHandler.Ticket)
	}

	// Staff routes, guarded by the shared admin key
	admin := r.Group("/api")
	admin.Use(middleware.AdminKeyAuth(cfg.Admin.Key))
	{
		admin.GET("/queue", adminHandler.Queue)
		admin.POST("/advance", adminHandler.Advance)
		admin.POST("/serve_called", adminHandler.ServeCalled)
		admin.POST("/cancel/:code", adminHandler.Cancel)
	}

	return r
}
