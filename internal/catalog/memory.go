package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// MemoryCatalog keeps everything in process memory. Used by tests, the CLI
// and single-node demos.
type MemoryCatalog struct {
	mu      sync.RWMutex
	stores  map[string]recommender.Store
	items   map[string]recommender.Item
	byItem  map[string][]recommender.PriceRecord
	byStore map[string][]recommender.PriceRecord
	clock   *clock
}

var _ Backend = (*MemoryCatalog)(nil)

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		stores:  make(map[string]recommender.Store),
		items:   make(map[string]recommender.Item),
		byItem:  make(map[string][]recommender.PriceRecord),
		byStore: make(map[string][]recommender.PriceRecord),
		clock:   newClock(),
	}
}

func (m *MemoryCatalog) ListAllStores(ctx context.Context) ([]recommender.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stores := make([]recommender.Store, 0, len(m.stores))
	for _, s := range m.stores {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (m *MemoryCatalog) ListPriceRecords(ctx context.Context, itemID string) ([]recommender.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]recommender.PriceRecord(nil), m.byItem[itemID]...), nil
}

func (m *MemoryCatalog) GetStore(ctx context.Context, storeID string) (*recommender.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stores[storeID]
	if !ok {
		return nil, recommender.ErrStoreNotFound
	}
	return &s, nil
}

func (m *MemoryCatalog) GetItem(ctx context.Context, itemID string) (*recommender.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, recommender.ErrItemNotFound
	}
	return &item, nil
}

func (m *MemoryCatalog) CreateStore(ctx context.Context, store recommender.Store) (recommender.Store, error) {
	store, err := prepareStore(store, m.clock.next())
	if err != nil {
		return store, err
	}

	m.mu.Lock()
	// An update keeps the original creation time
	if existing, ok := m.stores[store.ID]; ok {
		store.CreatedAt = existing.CreatedAt
	}
	m.stores[store.ID] = store
	m.mu.Unlock()
	return store, nil
}

func (m *MemoryCatalog) CreateItem(ctx context.Context, item recommender.Item) (recommender.Item, error) {
	item, err := prepareItem(item)
	if err != nil {
		return item, err
	}
	item.Tags = append([]string(nil), item.Tags...)

	m.mu.Lock()
	m.items[item.ID] = item
	m.mu.Unlock()
	return item, nil
}

func (m *MemoryCatalog) ReportPrice(ctx context.Context, record recommender.PriceRecord) (recommender.PriceRecord, error) {
	record, err := prepareRecord(record)
	if err != nil {
		return record, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stores[record.StoreID]; !ok {
		return record, recommender.ErrStoreNotFound
	}
	if _, ok := m.items[record.ItemID]; !ok {
		return record, recommender.ErrItemNotFound
	}

	// Taken under the write lock so log order matches CreatedAt order
	record.CreatedAt = m.clock.next()
	m.byItem[record.ItemID] = append(m.byItem[record.ItemID], record)
	m.byStore[record.StoreID] = append(m.byStore[record.StoreID], record)
	return record, nil
}

func (m *MemoryCatalog) ListStorePrices(ctx context.Context, storeID string) ([]recommender.PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.stores[storeID]; !ok {
		return nil, recommender.ErrStoreNotFound
	}
	return append([]recommender.PriceRecord{}, m.byStore[storeID]...), nil
}

// DeleteStore removes a store. Its price records stay in the log.
func (m *MemoryCatalog) DeleteStore(ctx context.Context, storeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stores[storeID]; !ok {
		return recommender.ErrStoreNotFound
	}
	delete(m.stores, storeID)
	return nil
}

func (m *MemoryCatalog) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryCatalog) Close() error { return nil }
