// Package httpapi exposes the notification engines over HTTP. It is a thin
// façade: validation and envelope shaping happen here, everything else in
// the engines.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bunlarinHepsiBitecek/NotificationProcess/internal/models"
	"github.com/bunlarinHepsiBitecek/NotificationProcess/pkg/metrics"
)

// FanOutService is the slice of the fan-out engine the handlers need.
type FanOutService interface {
	FanOut(ctx context.Context, req *models.FanOutRequest) error
}

// LifecycleService is the slice of the lifecycle engine the handlers need.
type LifecycleService interface {
	ReconcileLogin(ctx context.Context, req *models.EndpointSyncRequest) error
	ReconcileLogout(ctx context.Context, req *models.EndpointSyncRequest) error
	PurgeDisabled(ctx context.Context) ([]string, error)
}

// Handler holds the engine references shared by all routes.
type Handler struct {
	fanOut    FanOutService
	lifecycle LifecycleService
	logger    *slog.Logger
}

func NewHandler(fanOut FanOutService, lifecycle LifecycleService, logger *slog.Logger) *Handler {
	return &Handler{
		fanOut:    fanOut,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// NewRouter wires all routes plus health and metrics endpoints.
func NewRouter(h *Handler, m *metrics.Metrics, started time.Time) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/notifications", h.PostNotification)
	router.POST("/endpoint", h.PostEndpointSync)
	router.POST("/endpoints/purge", h.PostPurge)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "notification service healthy",
			"meta": gin.H{
				"uptime_seconds": int(time.Since(started).Seconds()),
				"timestamp":      time.Now().UTC(),
			},
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}

func respond(c *gin.Context, code models.ServiceCode, serverResult any) {
	status, body := models.NewResponse(code, serverResult)
	c.JSON(status, body)
}

// PostNotification accepts one fan-out event and runs it synchronously.
func (h *Handler) PostNotification(c *gin.Context) {
	var req models.FanOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, models.CodeInvalidEventBody, nil)
		return
	}
	if code := req.Validate(); code != models.CodeSuccess {
		respond(c, code, nil)
		return
	}

	err := h.fanOut.FanOut(c.Request.Context(), &req)
	respond(c, models.CodeOf(err), nil)
}

// PostEndpointSync accepts a login or logout event for one device.
func (h *Handler) PostEndpointSync(c *gin.Context) {
	var req models.EndpointSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, models.CodeInvalidEventBody, nil)
		return
	}
	if code := req.Validate(); code != models.CodeSuccess {
		respond(c, code, nil)
		return
	}

	var err error
	switch req.RequestType {
	case models.SyncLoggedIn:
		err = h.lifecycle.ReconcileLogin(c.Request.Context(), &req)
	case models.SyncLoggedOut:
		err = h.lifecycle.ReconcileLogout(c.Request.Context(), &req)
	default:
		respond(c, models.CodeInvalidRequestType, nil)
		return
	}
	respond(c, models.CodeOf(err), nil)
}

// PostPurge sweeps disabled endpoints out of the provider and the graph and
// returns the removed ARNs.
func (h *Handler) PostPurge(c *gin.Context) {
	purged, err := h.lifecycle.PurgeDisabled(c.Request.Context())
	if err != nil {
		respond(c, models.CodeOf(err), nil)
		return
	}
	respond(c, models.CodeSuccess, purged)
}
