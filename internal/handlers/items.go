package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// CreateItem registers or replaces an item
// POST /api/items
func CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ready(c) {
		return
	}

	item, err := store.CreateItem(c.Request.Context(), recommender.Item{
		ID:    req.ID,
		Name:  req.Name,
		Brand: req.Brand,
		Tags:  req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(item))
}

// GetItem returns a single item
// GET /api/items/:itemId
func GetItem(c *gin.Context) {
	if !ready(c) {
		return
	}

	item, err := store.GetItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponse(*item))
}
