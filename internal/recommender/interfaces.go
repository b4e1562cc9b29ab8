package recommender

import (
	"context"
)

// Catalog is the read-only view of the persistence layer the engine needs.
// Implementations live in internal/catalog.
type Catalog interface {
	// ListAllStores returns every known store.
	ListAllStores(ctx context.Context) ([]Store, error)

	// ListPriceRecords returns all price records for an item across all stores.
	// The result is not scoped to any store.
	ListPriceRecords(ctx context.Context, itemID string) ([]PriceRecord, error)

	// GetStore resolves a single store. Returns ErrStoreNotFound if unknown.
	GetStore(ctx context.Context, storeID string) (*Store, error)
}

// PriceLookup fetches the price records relevant to an item at a store.
// Implementations may return records for other stores; callers filter.
type PriceLookup func(ctx context.Context, itemID, storeID string) ([]PriceRecord, error)

// Recommender is the operation surface exposed to handlers and the CLI.
type Recommender interface {
	// RecommendStore picks the cheapest store within radiusKm that prices
	// every item. Returns ErrNoSuitableStore when there is none.
	RecommendStore(ctx context.Context, shoppingList []string, userLocation Coordinate, radiusKm float64) (*Recommendation, error)

	// NearbyStores lists stores within radiusKm, closest first.
	NearbyStores(ctx context.Context, origin Coordinate, radiusKm float64) ([]StoreWithDistance, error)

	// ComparePrices returns the best known record per item, nil when unpriced.
	ComparePrices(ctx context.Context, items []string) (map[string]*PriceRecord, error)

	// IsHealthy returns whether the engine can currently reach its catalog.
	IsHealthy(ctx context.Context) bool
}
