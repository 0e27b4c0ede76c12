package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heysubinoy/minidis/internal/store"
)

// metricsHandler returns current store metrics as JSON.
func metricsHandler(instrumentedStore *store.InstrumentedStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics := instrumentedStore.GetMetrics()

		operations := make(map[string]uint64, len(metrics))
		errors := make(map[string]uint64, len(metrics))
		latency := make(map[string]string, len(metrics))
		for op, m := range metrics {
			operations[op] = m.Count
			errors[op] = m.Errors
			latency[op] = m.AvgLatency.String()
		}

		c.JSON(http.StatusOK, gin.H{
			"operations":  operations,
			"errors":      errors,
			"avg_latency": latency,
		})
	}
}
