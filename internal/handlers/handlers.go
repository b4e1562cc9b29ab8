// Package handlers implements the HTTP API of the store recommender.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/store-recommender/internal/catalog"
	"github.com/kosarica/store-recommender/internal/recommender"
)

// Global service instances (initialized by the application)
var (
	engine recommender.Recommender
	store  catalog.Backend
)

// Init wires the handlers to an engine and the catalog it reads from.
// This should be called during application startup.
func Init(e recommender.Recommender, b catalog.Backend) {
	engine = e
	store = b
}

// ready aborts with 503 until Init has been called.
func ready(c *gin.Context) bool {
	if engine == nil || store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Service not initialized"})
		return false
	}
	return true
}

// bindError answers a request whose body or query failed validation.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields", Details: err.Error()})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var invalid recommender.ErrInvalidRequest
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: invalid.Reason, Field: invalid.Field})
	case errors.Is(err, recommender.ErrNoSuitableStore):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No suitable stores found"})
	case errors.Is(err, recommender.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Store not found"})
	case errors.Is(err, recommender.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Item not found"})
	case errors.Is(err, recommender.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Catalog unavailable"})
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
