package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/eventstore/common/id"
	"basegraph.app/eventstore/common/logger"
	"basegraph.app/eventstore/internal/http/dto"
	"basegraph.app/eventstore/internal/model"
	"basegraph.app/eventstore/internal/service"
)

type RecordHandler struct {
	publisher   service.EventPublisher
	traceHeader string
}

func NewRecordHandler(publisher service.EventPublisher, traceHeader string) *RecordHandler {
	return &RecordHandler{
		publisher:   publisher,
		traceHeader: traceHeader,
	}
}

// Record is the write path's post-commit hook. It only enqueues; persistence
// happens in the worker.
func (h *RecordHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid record request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OccurredAt.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "occurredAt is required"})
		return
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = id.NewEventID()
	}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		traceID = logger.TraceIDFromContext(ctx)
	}

	enqueued := h.publisher.Publish(ctx, service.RecordParams{
		OccurredAt:    req.OccurredAt,
		Payload:       req.Payload,
		ResultData:    req.Result,
		EventID:       eventID,
		OperationType: model.OperationType(req.OperationType),
		SubjectCode:   req.SubjectCode,
		TraceID:       traceID,
		SubjectID:     req.SubjectID,
	})

	c.JSON(http.StatusAccepted, dto.RecordEventResponse{
		EventID:  eventID,
		Enqueued: enqueued,
	})
}
