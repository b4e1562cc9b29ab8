package recommender

import (
	"errors"
	"fmt"
	"time"
)

// Coordinate is a WGS-84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Store is a physical shop that prices are reported at.
type Store struct {
	ID        string
	Name      string
	Location  Coordinate
	CreatedAt time.Time
}

// Item is a product that can appear on a shopping list.
type Item struct {
	ID    string
	Name  string
	Brand string
	Tags  []string
}

// MaxPrice is the largest price accepted for a single record, in minor
// units. Any list of MaxListItems prices stays far below math.MaxInt64.
const MaxPrice int64 = 100_000_000_000

// PriceRecord is one entry of the append-only price log.
// Price is in minor currency units (e.g. cents).
type PriceRecord struct {
	ID        string
	ItemID    string
	StoreID   string
	Price     int64
	UserID    string
	OnSale    bool
	CreatedAt time.Time // freshness signal, monotonic per insertion
}

// StoreWithDistance pairs a store with its distance from a query point.
type StoreWithDistance struct {
	Store    Store
	Distance float64 // kilometers
}

// Recommendation is the transient result of a recommendation request.
type Recommendation struct {
	StoreID   string
	Store     Store
	TotalCost int64
	Breakdown map[string]PriceRecord // itemID -> chosen record
	Distance  float64                // kilometers from the user, 0 if unknown

	EvaluatedStores int // candidate stores considered
	FeasibleStores  int // candidates that priced every item
}

var (
	// ErrNoSuitableStore is returned when no candidate store prices every item.
	ErrNoSuitableStore = errors.New("no suitable store found")

	// ErrStoreNotFound is returned by catalogs for unknown store IDs.
	ErrStoreNotFound = errors.New("store not found")

	// ErrItemNotFound is returned by catalogs for unknown item IDs.
	ErrItemNotFound = errors.New("item not found")
)

// ErrInvalidRequest is returned when a request fails validation.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidateShoppingList checks a shopping list against the configured limits.
func ValidateShoppingList(items []string, maxItems int) error {
	if len(items) < 1 {
		return ErrInvalidRequest{Field: "shoppingList", Reason: "must have at least one item"}
	}
	if maxItems > 0 && len(items) > maxItems {
		return ErrInvalidRequest{Field: "shoppingList", Reason: "exceeds maximum allowed"}
	}
	for i, id := range items {
		if id == "" {
			return ErrInvalidRequest{Field: "shoppingList", Reason: fmt.Sprintf("item at index %d has empty id", i)}
		}
	}
	return nil
}
