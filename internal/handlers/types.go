package handlers

import (
	"time"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// Location is a WGS-84 position. Pointers let 0 pass the required check.
type Location struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

func (l *Location) coordinate() recommender.Coordinate {
	return recommender.Coordinate{Latitude: *l.Latitude, Longitude: *l.Longitude}
}

// RecommendRequest is the body of POST /api/recommend
type RecommendRequest struct {
	ShoppingList []string  `json:"shoppingList" binding:"required,min=1,dive,required"`
	UserLocation *Location `json:"userLocation" binding:"required"`
	RadiusKm     float64   `json:"radiusKm,omitempty" binding:"min=0"`
}

// CompareRequest is the body of POST /api/prices/compare
type CompareRequest struct {
	ShoppingList []string `json:"shoppingList" binding:"required,min=1,dive,required"`
}

// CreateStoreRequest is the body of POST /api/stores
type CreateStoreRequest struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name" binding:"required"`
	Location *Location `json:"location" binding:"required"`
}

// CreateItemRequest is the body of POST /api/items
type CreateItemRequest struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name" binding:"required"`
	Brand string   `json:"brand,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// ReportPriceRequest is the body of POST /api/prices.
// Price is in minor currency units.
type ReportPriceRequest struct {
	ItemID     string `json:"itemId" binding:"required"`
	StoreID    string `json:"storeId" binding:"required"`
	Price      *int64 `json:"price" binding:"required,min=0,max=100000000000"`
	UserID     string `json:"userId,omitempty"`
	SaleStatus bool   `json:"saleStatus"`
}

// StorePricesRequest holds the paging query of GET /api/stores/:storeId/prices
type StorePricesRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// LocationResponse is a position in responses
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StoreResponse represents a store
type StoreResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Location  LocationResponse `json:"location"`
	CreatedAt time.Time        `json:"timestamp"`
}

// NearbyStoreResponse is a store with its distance from the query point
type NearbyStoreResponse struct {
	StoreResponse
	DistanceKm float64 `json:"distanceKm"`
}

// ItemResponse represents an item
type ItemResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Brand string   `json:"brand,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// PriceResponse represents one price report
type PriceResponse struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"itemId"`
	StoreID    string    `json:"storeId"`
	Price      int64     `json:"price"`
	UserID     string    `json:"userId,omitempty"`
	SaleStatus bool      `json:"saleStatus"`
	CreatedAt  time.Time `json:"timestamp"`
}

// RecommendResponse is the chosen store with the cost of the whole list
type RecommendResponse struct {
	StoreResponse
	TotalCost       int64                    `json:"totalCost"`
	DistanceKm      float64                  `json:"distanceKm"`
	Breakdown       map[string]PriceResponse `json:"breakdown"`
	EvaluatedStores int                      `json:"evaluatedStores"`
	FeasibleStores  int                      `json:"feasibleStores"`
}

// NearbyStoresResponse lists stores within the radius, closest first
type NearbyStoresResponse struct {
	Stores   []NearbyStoreResponse `json:"stores"`
	RadiusKm float64               `json:"radiusKm"`
	Total    int                   `json:"total"`
}

// StoresResponse lists stores
type StoresResponse struct {
	Stores []StoreResponse `json:"stores"`
	Total  int             `json:"total"`
}

// PricesResponse lists price reports
type PricesResponse struct {
	Prices []PriceResponse `json:"prices"`
	Total  int             `json:"total"`
}

// CompareResponse maps each item to its best price, null when unpriced
type CompareResponse struct {
	Prices map[string]*PriceResponse `json:"prices"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func toStoreResponse(s recommender.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Location:  LocationResponse{Latitude: s.Location.Latitude, Longitude: s.Location.Longitude},
		CreatedAt: s.CreatedAt,
	}
}

func toItemResponse(i recommender.Item) ItemResponse {
	return ItemResponse{ID: i.ID, Name: i.Name, Brand: i.Brand, Tags: i.Tags}
}

func toPriceResponse(r recommender.PriceRecord) PriceResponse {
	return PriceResponse{
		ID:         r.ID,
		ItemID:     r.ItemID,
		StoreID:    r.StoreID,
		Price:      r.Price,
		UserID:     r.UserID,
		SaleStatus: r.OnSale,
		CreatedAt:  r.CreatedAt,
	}
}

func toPriceResponses(records []recommender.PriceRecord) []PriceResponse {
	out := make([]PriceResponse, len(records))
	for i, r := range records {
		out[i] = toPriceResponse(r)
	}
	return out
}
