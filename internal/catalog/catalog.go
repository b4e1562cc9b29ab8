// Package catalog holds the persistence backends behind the recommendation
// engine: stores, items and the append-only price log.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kosarica/store-recommender/internal/recommender"
)

// Backend types accepted by Open.
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres" // pgx pool
	TypePQ       = "pq"       // database/sql with lib/pq
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
	TypeRedis    = "redis"
)

// Writer is the mutating side of a catalog.
type Writer interface {
	// CreateStore inserts or replaces a store. An empty ID is assigned.
	CreateStore(ctx context.Context, store recommender.Store) (recommender.Store, error)

	// CreateItem inserts or replaces an item. An empty ID is assigned.
	CreateItem(ctx context.Context, item recommender.Item) (recommender.Item, error)

	// ReportPrice appends a record to the price log. ID and CreatedAt are
	// always assigned by the catalog.
	ReportPrice(ctx context.Context, record recommender.PriceRecord) (recommender.PriceRecord, error)

	// ListStorePrices returns every record reported at a store, oldest first.
	ListStorePrices(ctx context.Context, storeID string) ([]recommender.PriceRecord, error)
}

// Backend is a full read/write catalog.
type Backend interface {
	recommender.Catalog
	Writer

	// GetItem resolves a single item. Returns ErrItemNotFound if unknown.
	GetItem(ctx context.Context, itemID string) (*recommender.Item, error)

	// Ping checks that the underlying store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Type string
	DSN  string

	// Postgres pool settings
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Migrate creates the schema on open for SQL backends.
	Migrate bool
}

// Open creates the backend named by opts.Type.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(opts.Type) {
	case "", TypeMemory:
		return NewMemoryCatalog(), nil

	case TypePostgres:
		return OpenPostgres(ctx, opts)

	case TypePQ, TypeMySQL, TypeSQLite:
		return OpenSQL(ctx, strings.ToLower(opts.Type), opts.DSN, opts.Migrate)

	case TypeRedis:
		return OpenRedis(ctx, opts)

	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.Type)
	}
}

// clock hands out strictly increasing timestamps at microsecond precision,
// the finest resolution every backend round-trips.
type clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newClock() *clock {
	return &clock{now: time.Now}
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

func prepareStore(store recommender.Store, now time.Time) (recommender.Store, error) {
	store.ID = strings.TrimSpace(store.ID)
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	if strings.TrimSpace(store.Name) == "" {
		return store, recommender.ErrInvalidRequest{Field: "name", Reason: "is required"}
	}
	if store.Location.Latitude < -90 || store.Location.Latitude > 90 {
		return store, recommender.ErrInvalidRequest{Field: "latitude", Reason: "must be between -90 and 90"}
	}
	if store.Location.Longitude < -180 || store.Location.Longitude > 180 {
		return store, recommender.ErrInvalidRequest{Field: "longitude", Reason: "must be between -180 and 180"}
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}
	store.CreatedAt = store.CreatedAt.UTC().Truncate(time.Microsecond)
	return store, nil
}

func prepareItem(item recommender.Item) (recommender.Item, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if strings.TrimSpace(item.Name) == "" {
		return item, recommender.ErrInvalidRequest{Field: "name", Reason: "is required"}
	}
	return item, nil
}

func prepareRecord(record recommender.PriceRecord) (recommender.PriceRecord, error) {
	if record.ItemID == "" {
		return record, recommender.ErrInvalidRequest{Field: "itemId", Reason: "is required"}
	}
	if record.StoreID == "" {
		return record, recommender.ErrInvalidRequest{Field: "storeId", Reason: "is required"}
	}
	if record.Price < 0 {
		return record, recommender.ErrInvalidRequest{Field: "price", Reason: "must not be negative"}
	}
	if record.Price > recommender.MaxPrice {
		return record, recommender.ErrInvalidRequest{Field: "price", Reason: fmt.Sprintf("must not exceed %d", recommender.MaxPrice)}
	}
	record.ID = uuid.NewString()
	return record, nil
}

// checkReferents makes sure the store and item of a record exist.
func checkReferents(ctx context.Context, b Backend, record recommender.PriceRecord) error {
	if _, err := b.GetStore(ctx, record.StoreID); err != nil {
		return err
	}
	if _, err := b.GetItem(ctx, record.ItemID); err != nil {
		return err
	}
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// IsNotFound reports whether err means a store or item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, recommender.ErrStoreNotFound) || errors.Is(err, recommender.ErrItemNotFound)
}

func unixNanoUTC(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
