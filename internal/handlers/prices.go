package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// ReportPrice appends a price report to the log
// POST /api/prices
func ReportPrice(c *gin.Context) {
	var req ReportPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ready(c) {
		return
	}

	record, err := store.ReportPrice(c.Request.Context(), recommender.PriceRecord{
		ItemID:  req.ItemID,
		StoreID: req.StoreID,
		Price:   *req.Price,
		UserID:  req.UserID,
		OnSale:  req.SaleStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	log.Debug().
		Str("item_id", record.ItemID).
		Str("store_id", record.StoreID).
		Int64("price", record.Price).
		Msg("Price reported")

	c.JSON(http.StatusCreated, toPriceResponse(record))
}

// GetItemPrices returns every price reported for an item
// GET /api/prices/:itemId
func GetItemPrices(c *gin.Context) {
	if !ready(c) {
		return
	}

	records, err := store.ListPriceRecords(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No prices found for item"})
		return
	}

	c.JSON(http.StatusOK, PricesResponse{Prices: toPriceResponses(records), Total: len(records)})
}
