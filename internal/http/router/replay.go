package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/eventstore/internal/http/handler"
)

func ReplayRouter(router *gin.RouterGroup, handler *handler.ReplayHandler) {
	router.GET("/count", handler.Count)
	router.GET("/feature/:featureCode", handler.FeatureRecords)

	replay := router.Group("/replay")
	{
		replay.POST("/time-range", handler.ReplayTimeRange)
		replay.POST("/feature/:featureCode", handler.ReplayFeature)
		replay.POST("/operation", handler.ReplayOperation)
		replay.POST("/features", handler.ReplayFeatures)
	}
}
