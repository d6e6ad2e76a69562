package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/service"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
	"github.com/craftyclassroom/classroom-api/pkg/response"
)

const readyTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler exposes liveness, readiness and metrics endpoints.
type SystemHandler struct {
	store   pinger
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewSystemHandler constructs a system handler.
func NewSystemHandler(store pinger, metrics *service.MetricsService, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{store: store, metrics: metrics, logger: logger}
}

// Root answers the plain-text liveness banner.
func (h *SystemHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "server is running...")
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok", "metrics": h.metrics.Snapshot()})
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings the document store
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store not ready", zap.Error(err))
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "document store unreachable"))
		return
	}
	response.OK(c, gin.H{"status": "ready"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *SystemHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
