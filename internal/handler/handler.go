package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ubuzima-connect/api/pkg/metrics"
)

// Handler serves the health and metrics endpoints.
type Handler struct {
	db       *sqlx.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func NewHandler(db *sqlx.DB, registry *prometheus.Registry, m *metrics.Metrics) *Handler {
	return &Handler{db: db, registry: registry, metrics: m}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"time":   time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			h.metrics.DatabaseOperations.WithLabelValues("ping", "error").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		h.metrics.DatabaseOperations.WithLabelValues("ping", "success").Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now(),
	})
}

func (h *Handler) MetricsHandler(c *gin.Context) {
	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}
