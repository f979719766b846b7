package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/eventstore/internal/http/handler"
)

func RecordRouter(router *gin.RouterGroup, handler *handler.RecordHandler) {
	router.POST("/record", handler.Record)
}
