package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/kosarica/store-recommender/internal/recommender"
)

const defaultRedisPrefix = "recommender:"

// RedisCatalog keeps stores and items in hashes and the price log in
// per-item and per-store lists.
//
// Keys (under the configured prefix):
//
//	stores               hash  storeID -> JSON store
//	items                hash  itemID  -> JSON item
//	prices:<itemID>      list  JSON records, append-only
//	store_prices:<store> list  JSON records, append-only
type RedisCatalog struct {
	client *redis.Client
	prefix string
	clock  *clock
}

var _ Backend = (*RedisCatalog)(nil)

// storedStore is the JSON layout of a store in Redis.
type storedStore struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CreatedAt int64   `json:"created_at"` // unix nanoseconds
}

type storedItem struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Brand string   `json:"brand,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

type storedPrice struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	StoreID   string `json:"store_id"`
	Price     int64  `json:"price"`
	UserID    string `json:"user_id,omitempty"`
	OnSale    bool   `json:"on_sale"`
	CreatedAt int64  `json:"created_at"`
}

// NewRedisCatalog wraps an existing client. An empty prefix uses the default.
func NewRedisCatalog(client *redis.Client, prefix string) *RedisCatalog {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisCatalog{client: client, prefix: prefix, clock: newClock()}
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts Options) (*RedisCatalog, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCatalog(client, opts.RedisPrefix), nil
}

func (c *RedisCatalog) key(parts ...string) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (c *RedisCatalog) ListAllStores(ctx context.Context) ([]recommender.Store, error) {
	values, err := c.client.HVals(ctx, c.key("stores")).Result()
	if err != nil {
		return nil, fmt.Errorf("read stores: %w", err)
	}

	stores := make([]recommender.Store, 0, len(values))
	for _, v := range values {
		var s storedStore
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			return nil, fmt.Errorf("decode store: %w", err)
		}
		stores = append(stores, s.toStore())
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (c *RedisCatalog) ListPriceRecords(ctx context.Context, itemID string) ([]recommender.PriceRecord, error) {
	return c.readPrices(ctx, c.key("prices", itemID))
}

func (c *RedisCatalog) ListStorePrices(ctx context.Context, storeID string) ([]recommender.PriceRecord, error) {
	if _, err := c.GetStore(ctx, storeID); err != nil {
		return nil, err
	}
	return c.readPrices(ctx, c.key("store_prices", storeID))
}

func (c *RedisCatalog) readPrices(ctx context.Context, key string) ([]recommender.PriceRecord, error) {
	values, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}

	records := make([]recommender.PriceRecord, 0, len(values))
	for _, v := range values {
		var p storedPrice
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("decode price: %w", err)
		}
		records = append(records, p.toRecord())
	}
	return records, nil
}

func (c *RedisCatalog) GetStore(ctx context.Context, storeID string) (*recommender.Store, error) {
	v, err := c.client.HGet(ctx, c.key("stores"), storeID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, recommender.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	var s storedStore
	if err := json.Unmarshal([]byte(v), &s); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	store := s.toStore()
	return &store, nil
}

func (c *RedisCatalog) GetItem(ctx context.Context, itemID string) (*recommender.Item, error) {
	v, err := c.client.HGet(ctx, c.key("items"), itemID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, recommender.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}

	var i storedItem
	if err := json.Unmarshal([]byte(v), &i); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &recommender.Item{ID: i.ID, Name: i.Name, Brand: i.Brand, Tags: i.Tags}, nil
}

func (c *RedisCatalog) CreateStore(ctx context.Context, store recommender.Store) (recommender.Store, error) {
	store, err := prepareStore(store, c.clock.next())
	if err != nil {
		return store, err
	}

	// An update keeps the original creation time
	existing, err := c.GetStore(ctx, store.ID)
	switch {
	case err == nil:
		store.CreatedAt = existing.CreatedAt
	case !errors.Is(err, recommender.ErrStoreNotFound):
		return store, err
	}

	data, err := json.Marshal(storedStore{
		ID:        store.ID,
		Name:      store.Name,
		Latitude:  store.Location.Latitude,
		Longitude: store.Location.Longitude,
		CreatedAt: store.CreatedAt.UnixNano(),
	})
	if err != nil {
		return store, err
	}

	if err := c.client.HSet(ctx, c.key("stores"), store.ID, data).Err(); err != nil {
		return store, fmt.Errorf("write store: %w", err)
	}
	return store, nil
}

func (c *RedisCatalog) CreateItem(ctx context.Context, item recommender.Item) (recommender.Item, error) {
	item, err := prepareItem(item)
	if err != nil {
		return item, err
	}

	data, err := json.Marshal(storedItem{ID: item.ID, Name: item.Name, Brand: item.Brand, Tags: item.Tags})
	if err != nil {
		return item, err
	}

	if err := c.client.HSet(ctx, c.key("items"), item.ID, data).Err(); err != nil {
		return item, fmt.Errorf("write item: %w", err)
	}
	return item, nil
}

func (c *RedisCatalog) ReportPrice(ctx context.Context, record recommender.PriceRecord) (recommender.PriceRecord, error) {
	record, err := prepareRecord(record)
	if err != nil {
		return record, err
	}
	if err := checkReferents(ctx, c, record); err != nil {
		return record, err
	}
	record.CreatedAt = c.clock.next()

	data, err := json.Marshal(storedPrice{
		ID:        record.ID,
		ItemID:    record.ItemID,
		StoreID:   record.StoreID,
		Price:     record.Price,
		UserID:    record.UserID,
		OnSale:    record.OnSale,
		CreatedAt: record.CreatedAt.UnixNano(),
	})
	if err != nil {
		return record, err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, c.key("prices", record.ItemID), data)
		pipe.RPush(ctx, c.key("store_prices", record.StoreID), data)
		return nil
	})
	if err != nil {
		return record, fmt.Errorf("append price: %w", err)
	}
	return record, nil
}

func (c *RedisCatalog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCatalog) Close() error {
	return c.client.Close()
}

func (s storedStore) toStore() recommender.Store {
	return recommender.Store{
		ID:        s.ID,
		Name:      s.Name,
		Location:  recommender.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude},
		CreatedAt: unixNanoUTC(s.CreatedAt),
	}
}

func (p storedPrice) toRecord() recommender.PriceRecord {
	return recommender.PriceRecord{
		ID:        p.ID,
		ItemID:    p.ItemID,
		StoreID:   p.StoreID,
		Price:     p.Price,
		UserID:    p.UserID,
		OnSale:    p.OnSale,
		CreatedAt: unixNanoUTC(p.CreatedAt),
	}
}
