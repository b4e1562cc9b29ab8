package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/store-recommender/internal/recommender"
)

// testIDs namespaces fixture IDs so suites can run against shared databases.
type testIDs string

func newTestIDs() testIDs {
	return testIDs(uuid.NewString()[:8] + "-")
}

func (p testIDs) id(name string) string { return string(p) + name }

func (p testIDs) own(stores []recommender.Store) []recommender.Store {
	var out []recommender.Store
	for _, s := range stores {
		if strings.HasPrefix(s.ID, string(p)) {
			out = append(out, s)
		}
	}
	return out
}

// runBackendSuite checks the behavior every backend must share.
func runBackendSuite(t *testing.T, b Backend) {
	ctx := context.Background()

	t.Run("stores", func(t *testing.T) {
		ids := newTestIDs()

		_, err := b.CreateStore(ctx, recommender.Store{ID: ids.id("b"), Name: "Bravo", Location: recommender.Coordinate{Latitude: 45.81, Longitude: 15.98}})
		require.NoError(t, err)
		created, err := b.CreateStore(ctx, recommender.Store{ID: ids.id("a"), Name: "Alpha", Location: recommender.Coordinate{Latitude: 43.5, Longitude: 16.44}})
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := b.GetStore(ctx, ids.id("a"))
		require.NoError(t, err)
		assert.Equal(t, "Alpha", got.Name)
		assert.InDelta(t, 43.5, got.Location.Latitude, 1e-9)
		assert.InDelta(t, 16.44, got.Location.Longitude, 1e-9)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

		all, err := b.ListAllStores(ctx)
		require.NoError(t, err)
		own := ids.own(all)
		require.Len(t, own, 2)
		assert.Equal(t, ids.id("a"), own[0].ID)
		assert.Equal(t, ids.id("b"), own[1].ID)

		_, err = b.GetStore(ctx, ids.id("missing"))
		assert.ErrorIs(t, err, recommender.ErrStoreNotFound)
	})

	t.Run("store upsert replaces", func(t *testing.T) {
		ids := newTestIDs()

		first, err := b.CreateStore(ctx, recommender.Store{ID: ids.id("s"), Name: "Old"})
		require.NoError(t, err)
		updated, err := b.CreateStore(ctx, recommender.Store{ID: ids.id("s"), Name: "New", Location: recommender.Coordinate{Latitude: 1, Longitude: 2}})
		require.NoError(t, err)

		got, err := b.GetStore(ctx, ids.id("s"))
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
		assert.InDelta(t, 2.0, got.Location.Longitude, 1e-9)

		// the update keeps the original creation time
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt), "stored %v, first %v", got.CreatedAt, first.CreatedAt)
		assert.True(t, first.CreatedAt.Equal(updated.CreatedAt), "returned %v, first %v", updated.CreatedAt, first.CreatedAt)
	})

	t.Run("store validation", func(t *testing.T) {
		var invalid recommender.ErrInvalidRequest

		_, err := b.CreateStore(ctx, recommender.Store{Name: ""})
		assert.ErrorAs(t, err, &invalid)

		_, err = b.CreateStore(ctx, recommender.Store{Name: "x", Location: recommender.Coordinate{Latitude: 91}})
		assert.ErrorAs(t, err, &invalid)

		generated, err := b.CreateStore(ctx, recommender.Store{Name: "No ID"})
		require.NoError(t, err)
		assert.NotEmpty(t, generated.ID)
	})

	t.Run("items", func(t *testing.T) {
		ids := newTestIDs()

		_, err := b.CreateItem(ctx, recommender.Item{ID: ids.id("milk"), Name: "Milk 1L", Brand: "Dukat", Tags: []string{"dairy", "fresh"}})
		require.NoError(t, err)

		got, err := b.GetItem(ctx, ids.id("milk"))
		require.NoError(t, err)
		assert.Equal(t, "Milk 1L", got.Name)
		assert.Equal(t, "Dukat", got.Brand)
		assert.Equal(t, []string{"dairy", "fresh"}, got.Tags)

		_, err = b.GetItem(ctx, ids.id("missing"))
		assert.ErrorIs(t, err, recommender.ErrItemNotFound)
	})

	t.Run("price log", func(t *testing.T) {
		ids := newTestIDs()
		seedStoresAndItems(t, b, ids)

		first, err := b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: 119, UserID: "u1"})
		require.NoError(t, err)
		second, err := b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("b"), Price: 99, OnSale: true})
		require.NoError(t, err)
		_, err = b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("bread"), StoreID: ids.id("a"), Price: 150})
		require.NoError(t, err)

		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.True(t, second.CreatedAt.After(first.CreatedAt))

		records, err := b.ListPriceRecords(ctx, ids.id("milk"))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, ids.id("a"), records[0].StoreID)
		assert.Equal(t, int64(119), records[0].Price)
		assert.Equal(t, "u1", records[0].UserID)
		assert.False(t, records[0].OnSale)
		assert.True(t, records[1].OnSale)
		assert.True(t, first.CreatedAt.Equal(records[0].CreatedAt))

		atA, err := b.ListStorePrices(ctx, ids.id("a"))
		require.NoError(t, err)
		require.Len(t, atA, 2)
		for _, r := range atA {
			assert.Equal(t, ids.id("a"), r.StoreID)
		}

		none, err := b.ListPriceRecords(ctx, ids.id("caviar"))
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = b.ListStorePrices(ctx, ids.id("missing"))
		assert.ErrorIs(t, err, recommender.ErrStoreNotFound)
	})

	t.Run("price validation", func(t *testing.T) {
		ids := newTestIDs()
		seedStoresAndItems(t, b, ids)

		_, err := b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("missing"), Price: 1})
		assert.ErrorIs(t, err, recommender.ErrStoreNotFound)

		_, err = b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("missing"), StoreID: ids.id("a"), Price: 1})
		assert.ErrorIs(t, err, recommender.ErrItemNotFound)
		assert.True(t, IsNotFound(err))

		var invalid recommender.ErrInvalidRequest
		_, err = b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: -5})
		assert.ErrorAs(t, err, &invalid)

		_, err = b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: recommender.MaxPrice + 1})
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "price", invalid.Field)

		_, err = b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: recommender.MaxPrice})
		assert.NoError(t, err)

		_, err = b.ReportPrice(ctx, recommender.PriceRecord{StoreID: ids.id("a"), Price: 5})
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("concurrent reports keep timestamps unique", func(t *testing.T) {
		ids := newTestIDs()
		seedStoresAndItems(t, b, ids)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: int64(100 + i)})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		records, err := b.ListPriceRecords(ctx, ids.id("milk"))
		require.NoError(t, err)
		require.Len(t, records, 20)
		seen := make(map[time.Time]bool)
		for _, r := range records {
			assert.False(t, seen[r.CreatedAt], "duplicate created_at %v", r.CreatedAt)
			seen[r.CreatedAt] = true
		}
	})

	t.Run("engine over backend", func(t *testing.T) {
		ids := newTestIDs()
		seedStoresAndItems(t, b, ids)

		report := func(item, store string, price int64) {
			_, err := b.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id(item), StoreID: ids.id(store), Price: price})
			require.NoError(t, err)
		}
		report("milk", "a", 300)
		report("bread", "a", 400)
		report("milk", "b", 200)

		engine, err := recommender.NewEngine(b, recommender.Defaults())
		require.NoError(t, err)

		rec, err := engine.RecommendStore(ctx, []string{ids.id("milk"), ids.id("bread")}, recommender.Coordinate{Latitude: 45.815, Longitude: 15.9819}, 0)
		require.NoError(t, err)
		assert.Equal(t, ids.id("a"), rec.StoreID)
		assert.Equal(t, int64(700), rec.TotalCost)
		assert.Equal(t, "Store A", rec.Store.Name)
	})
}

// seedStoresAndItems creates stores a and b a few hundred meters apart in
// Zagreb plus items milk and bread.
func seedStoresAndItems(t *testing.T, b Backend, ids testIDs) {
	t.Helper()
	ctx := context.Background()

	for _, s := range []recommender.Store{
		{ID: ids.id("a"), Name: "Store A", Location: recommender.Coordinate{Latitude: 45.815, Longitude: 15.9819}},
		{ID: ids.id("b"), Name: "Store B", Location: recommender.Coordinate{Latitude: 45.818, Longitude: 15.9850}},
	} {
		_, err := b.CreateStore(ctx, s)
		require.NoError(t, err)
	}
	for _, i := range []recommender.Item{
		{ID: ids.id("milk"), Name: "Milk"},
		{ID: ids.id("bread"), Name: "Bread"},
	} {
		_, err := b.CreateItem(ctx, i)
		require.NoError(t, err)
	}
}

func TestMemoryCatalog(t *testing.T) {
	runBackendSuite(t, NewMemoryCatalog())
}

func TestMemoryCatalogDeletedStoreKeepsRecords(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog()
	ids := newTestIDs()
	seedStoresAndItems(t, c, ids)

	_, err := c.ReportPrice(ctx, recommender.PriceRecord{ItemID: ids.id("milk"), StoreID: ids.id("a"), Price: 100})
	require.NoError(t, err)
	require.NoError(t, c.DeleteStore(ctx, ids.id("a")))

	records, err := c.ListPriceRecords(ctx, ids.id("milk"))
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = c.GetStore(ctx, ids.id("a"))
	assert.ErrorIs(t, err, recommender.ErrStoreNotFound)
	assert.ErrorIs(t, c.DeleteStore(ctx, ids.id("a")), recommender.ErrStoreNotFound)
}

func TestClockIsStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &clock{now: func() time.Time { return fixed }}

	a := c.next()
	b := c.next()
	assert.Equal(t, fixed, a)
	assert.Equal(t, time.Microsecond, b.Sub(a))
}

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(context.Background(), Options{Type: "cassandra"})
	assert.Error(t, err)
}

func TestOpenMemoryByDefault(t *testing.T) {
	b, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.(*MemoryCatalog)
	assert.True(t, ok)
	assert.NoError(t, b.Ping(context.Background()))
}

func priceAt(ids testIDs, item, store string, price int64) recommender.PriceRecord {
	return recommender.PriceRecord{ItemID: ids.id(item), StoreID: ids.id(store), Price: price}
}
