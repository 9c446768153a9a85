package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	syncapp "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// SSEMessage represents one event written to an SSE stream
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// ChangesResponse is one page of the change feed
// @Description A page of change events plus the cursor for the next poll
type ChangesResponse struct {
	Events []sync.ChangeEvent `json:"events"`
	Cursor int64              `json:"cursor"`
}

// SyncHandler serves the change feed, both as a cursor-polled endpoint
// and as an SSE stream fed by the realtime service.
type SyncHandler struct {
	BaseHandler
	realtime  *syncapp.RealtimeService
	feed      sync.ChangeFeedRepository
	logger    *zap.Logger
	heartbeat time.Duration
}

// SyncHandlerOption configures the sync handler
type SyncHandlerOption func(*SyncHandler)

// WithSyncHeartbeat overrides the default 30s SSE heartbeat interval
func WithSyncHeartbeat(d time.Duration) SyncHandlerOption {
	return func(h *SyncHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(realtime *syncapp.RealtimeService, feed sync.ChangeFeedRepository, logger *zap.Logger, opts ...SyncHandlerOption) *SyncHandler {
	h := &SyncHandler{
		realtime:  realtime,
		feed:      feed,
		logger:    logger,
		heartbeat: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Changes godoc
// @Summary      Poll the change feed
// @Description  Return change events after the given cursor, ordered by sequence. The response cursor is the highest sequence returned, or the request cursor when the feed is quiet.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        since query int false "Cursor: highest sequence already seen" default(0)
// @Param        limit query int false "Maximum events to return" default(200)
// @Success      200 {object} dto.Response{data=ChangesResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sync/changes [get]
func (h *SyncHandler) Changes(c *gin.Context) {
	since, err := strconv.ParseInt(c.DefaultQuery("since", "0"), 10, 64)
	if err != nil || since < 0 {
		h.BadRequest(c, "Invalid since cursor")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 || limit > 1000 {
		h.BadRequest(c, "Invalid limit")
		return
	}

	events, err := h.feed.FindAfter(c.Request.Context(), since, limit)
	if err != nil {
		h.logger.Error("Failed to read change feed", zap.Error(err))
		h.InternalError(c, "Failed to read change feed")
		return
	}

	cursor := since
	if len(events) > 0 {
		cursor = events[len(events)-1].Seq
	}

	h.Success(c, ChangesResponse{Events: events, Cursor: cursor})
}

// Stream godoc
// @Summary      Subscribe to the change feed via SSE
// @Description  Establish a Server-Sent Events connection. Each change event is delivered as a "change" event; heartbeats keep the connection alive.
// @Tags         sync
// @Produce      text/event-stream
// @Success      200 {string} string "SSE stream"
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sync/stream [get]
func (h *SyncHandler) Stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	sub := h.realtime.Subscribe()
	defer h.realtime.Unsubscribe(sub.ID)

	h.logger.Info("SSE subscriber connected",
		zap.String("subscriber_id", sub.ID.String()))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"subscriber_id":"%s","timestamp":%d}`, sub.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("SSE subscriber disconnected",
				zap.String("subscriber_id", sub.ID.String()))
			return
		case <-heartbeat.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case event, ok := <-sub.Events:
			if !ok {
				// Realtime service stopped
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal change event", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, SSEMessage{
				Event: "change",
				Data:  string(data),
				ID:    strconv.FormatInt(event.Seq, 10),
			})
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *SyncHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
