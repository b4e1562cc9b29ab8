package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog"`
	Engine  string `json:"engine"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Catalog: "not configured",
		Engine:  "not configured",
	}

	if store != nil {
		if err := store.Ping(c.Request.Context()); err != nil {
			response.Status = "error"
			response.Catalog = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Catalog = "connected"
	}

	if engine != nil {
		response.Engine = "ready"
		if !engine.IsHealthy(c.Request.Context()) {
			response.Status = "degraded"
			response.Engine = "catalog breaker open"
		}
	}

	c.JSON(http.StatusOK, response)
}
