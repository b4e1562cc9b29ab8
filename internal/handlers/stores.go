package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// ListStores returns every known store
// GET /api/stores
func ListStores(c *gin.Context) {
	if !ready(c) {
		return
	}

	stores, err := store.ListAllStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]StoreResponse, len(stores))
	for i, s := range stores {
		out[i] = toStoreResponse(s)
	}
	c.JSON(http.StatusOK, StoresResponse{Stores: out, Total: len(out)})
}

// GetStore returns a single store
// GET /api/stores/:storeId
func GetStore(c *gin.Context) {
	if !ready(c) {
		return
	}

	s, err := store.GetStore(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStoreResponse(*s))
}

// CreateStore registers or replaces a store
// POST /api/stores
func CreateStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ready(c) {
		return
	}

	created, err := store.CreateStore(c.Request.Context(), recommender.Store{
		ID:       req.ID,
		Name:     req.Name,
		Location: req.Location.coordinate(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toStoreResponse(created))
}

// GetStorePrices returns the price reports made at a store
// GET /api/stores/:storeId/prices?limit=100&offset=0
func GetStorePrices(c *gin.Context) {
	var req StorePricesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = 100
	}
	if !ready(c) {
		return
	}

	records, err := store.ListStorePrices(c.Request.Context(), c.Param("storeId"))
	if err != nil {
		respondError(c, err)
		return
	}

	total := len(records)
	start := min(req.Offset, total)
	end := min(start+req.Limit, total)

	c.JSON(http.StatusOK, PricesResponse{
		Prices: toPriceResponses(records[start:end]),
		Total:  total,
	})
}
