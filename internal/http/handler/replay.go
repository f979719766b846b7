package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"basegraph.app/eventstore/internal/http/dto"
	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/service"
)

type ReplayHandler struct {
	service service.ReplayService
}

func NewReplayHandler(service service.ReplayService) *ReplayHandler {
	return &ReplayHandler{service: service}
}

func (h *ReplayHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CountEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be RFC 3339 timestamps"})
		return
	}

	count, err := h.service.CountEventsInRange(ctx, req.Start, req.End)
	if err != nil {
		respondError(c, err, "failed to count events")
		return
	}

	c.JSON(http.StatusOK, dto.CountEventsResponse{Count: count})
}

func (h *ReplayHandler) ReplayTimeRange(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TimeRangeReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ReplayByTimeRange(ctx, req.Start, req.End)
	if err != nil {
		respondError(c, err, "failed to replay events")
		return
	}

	c.JSON(http.StatusOK, dto.NewReplayResponse(result))
}

func (h *ReplayHandler) ReplayFeature(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.service.ReplayByFeature(ctx, c.Param("featureCode"))
	if err != nil {
		respondError(c, err, "failed to replay feature events")
		return
	}

	c.JSON(http.StatusOK, dto.NewReplayResponse(result))
}

func (h *ReplayHandler) ReplayOperation(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.OperationReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op := model.OperationType(strings.ToUpper(strings.TrimSpace(req.OperationType)))
	result, err := h.service.ReplayByOperation(ctx, op, req.Start, req.End)
	if err != nil {
		respondError(c, err, "failed to replay operation events")
		return
	}

	resp := dto.NewReplayResponse(result)
	resp.OperationType = string(op)
	c.JSON(http.StatusOK, resp)
}

func (h *ReplayHandler) ReplayFeatures(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.FeaturesReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ReplayByFeatures(ctx, req.FeatureCodes, req.Start, req.End)
	if err != nil {
		respondError(c, err, "failed to replay feature events")
		return
	}

	c.JSON(http.StatusOK, dto.NewReplayResponse(result))
}

func (h *ReplayHandler) FeatureRecords(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("featureCode")

	eventType := model.EventType(strings.ToUpper(c.DefaultQuery("type", string(model.EventTypeEvent))))
	records, err := h.service.FeatureRecords(ctx, code, eventType)
	if err != nil {
		respondError(c, err, "failed to list feature records")
		return
	}

	c.JSON(http.StatusOK, dto.NewFeatureRecordsResponse(code, eventType, records))
}

func respondError(c *gin.Context, err error, msg string) {
	ctx := c.Request.Context()

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, service.ErrFeatureNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "feature not found"})
	default:
		slog.ErrorContext(ctx, msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
