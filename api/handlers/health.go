package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/medfleet/services/lorry/internal/metrics"
)

// HealthCheck reports service health derived from runtime metrics
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.GetMetricsCollector().GetHealthStatus())
}

// Metrics returns the collected runtime metrics
func Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.GetMetricsCollector().GetMetrics())
}
