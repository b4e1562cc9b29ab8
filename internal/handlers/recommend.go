package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// RecommendStore picks the cheapest nearby store that stocks the whole list
// POST /api/recommend
func RecommendStore(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ready(c) {
		return
	}

	rec, err := engine.RecommendStore(c.Request.Context(), req.ShoppingList, req.UserLocation.coordinate(), req.RadiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	breakdown := make(map[string]PriceResponse, len(rec.Breakdown))
	for itemID, r := range rec.Breakdown {
		breakdown[itemID] = toPriceResponse(r)
	}

	c.JSON(http.StatusOK, RecommendResponse{
		StoreResponse:   toStoreResponse(rec.Store),
		TotalCost:       rec.TotalCost,
		DistanceKm:      rec.Distance,
		Breakdown:       breakdown,
		EvaluatedStores: rec.EvaluatedStores,
		FeasibleStores:  rec.FeasibleStores,
	})
}

// NearbyStores lists stores around a point, closest first
// GET /api/stores/nearby?latitude=..&longitude=..&radius=..
func NearbyStores(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid latitude", Field: "latitude"})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid longitude", Field: "longitude"})
		return
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius", Field: "radius"})
			return
		}
	}
	if !ready(c) {
		return
	}

	origin := recommender.Coordinate{Latitude: lat, Longitude: lon}
	nearby, err := engine.NearbyStores(c.Request.Context(), origin, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	stores := make([]NearbyStoreResponse, len(nearby))
	for i, s := range nearby {
		stores[i] = NearbyStoreResponse{StoreResponse: toStoreResponse(s.Store), DistanceKm: s.Distance}
	}

	if radius <= 0 {
		radius = recommender.DefaultRadiusKm
		if cfg, ok := engine.(interface{ Config() *recommender.Config }); ok {
			radius = cfg.Config().DefaultRadiusKm
		}
	}

	c.JSON(http.StatusOK, NearbyStoresResponse{
		Stores:   stores,
		RadiusKm: radius,
		Total:    len(stores),
	})
}

// ComparePrices returns the best known price of each item
// POST /api/prices/compare
func ComparePrices(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ready(c) {
		return
	}

	best, err := engine.ComparePrices(c.Request.Context(), req.ShoppingList)
	if err != nil {
		respondError(c, err)
		return
	}

	prices := make(map[string]*PriceResponse, len(best))
	for itemID, r := range best {
		if r == nil {
			prices[itemID] = nil
			continue
		}
		p := toPriceResponse(*r)
		prices[itemID] = &p
	}

	c.JSON(http.StatusOK, CompareResponse{Prices: prices})
}
