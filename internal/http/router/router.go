package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/eventstore/internal/http/handler"
	"basegraph.app/eventstore/internal/http/middleware"
	"basegraph.app/eventstore/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
	AdminAPIKey     string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		recordHandler := handler.NewRecordHandler(services.Publisher(), cfg.TraceHeaderName)
		RecordRouter(v1.Group("/events"), recordHandler)

		admin := v1.Group("/admin/events")
		admin.Use(middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
		replayHandler := handler.NewReplayHandler(services.Replay())
		ReplayRouter(admin, replayHandler)
	}
}
