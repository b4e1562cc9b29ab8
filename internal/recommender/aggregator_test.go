package recommender

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// globalLookup mimics a catalog that answers by item only, across all stores.
func globalLookup(records []PriceRecord) PriceLookup {
	return func(ctx context.Context, itemID, storeID string) ([]PriceRecord, error) {
		var out []PriceRecord
		for _, r := range records {
			if r.ItemID == itemID {
				out = append(out, r)
			}
		}
		return out, nil
	}
}

func price(itemID, storeID string, amount int64) PriceRecord {
	return PriceRecord{ID: itemID + "@" + storeID, ItemID: itemID, StoreID: storeID, Price: amount, CreatedAt: baseTime}
}

func testOptions() AggregateOptions {
	return AggregateOptions{
		Workers:           4,
		LookupConcurrency: 4,
		LookupTimeout:     time.Second,
	}
}

func TestRecommendEmptyCandidates(t *testing.T) {
	rec, err := Recommend(context.Background(), []string{"1"}, nil, globalLookup(nil), testOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoSuitableStore)
}

func TestRecommendEmptyList(t *testing.T) {
	stores := []Store{{ID: "A"}}
	rec, err := Recommend(context.Background(), nil, stores, globalLookup(nil), testOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoSuitableStore)
}

func TestRecommendSkipsInfeasibleStore(t *testing.T) {
	stores := []Store{{ID: "A"}, {ID: "B"}}
	records := []PriceRecord{
		price("1", "A", 300),
		price("2", "A", 400),
		price("1", "B", 200),
	}

	rec, err := Recommend(context.Background(), []string{"1", "2"}, stores, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "A", rec.StoreID)
	assert.Equal(t, int64(700), rec.TotalCost)
	assert.Equal(t, 2, rec.EvaluatedStores)
	assert.Equal(t, 1, rec.FeasibleStores)
	require.Len(t, rec.Breakdown, 2)
	assert.Equal(t, int64(300), rec.Breakdown["1"].Price)
	assert.Equal(t, int64(400), rec.Breakdown["2"].Price)
}

func TestRecommendPicksCheapestFeasible(t *testing.T) {
	stores := []Store{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	records := []PriceRecord{
		price("milk", "A", 120), price("bread", "A", 200),
		price("milk", "B", 100), price("bread", "B", 190),
		price("milk", "C", 90), price("bread", "C", 250),
	}

	rec, err := Recommend(context.Background(), []string{"milk", "bread"}, stores, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "B", rec.StoreID)
	assert.Equal(t, int64(290), rec.TotalCost)
	assert.Equal(t, 3, rec.FeasibleStores)
}

func TestRecommendScopesPricesToStore(t *testing.T) {
	// Item 2 is only ever priced at B. A global lookup must not let A
	// borrow B's record and appear feasible.
	stores := []Store{{ID: "A"}, {ID: "B"}}
	records := []PriceRecord{
		price("1", "A", 100),
		price("2", "B", 100),
		price("1", "B", 500),
	}

	rec, err := Recommend(context.Background(), []string{"1", "2"}, stores, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "B", rec.StoreID)
	assert.Equal(t, int64(600), rec.TotalCost)
	assert.Equal(t, 1, rec.FeasibleStores)
}

func TestRecommendUsesStoreRankingPolicy(t *testing.T) {
	stores := []Store{{ID: "A"}}
	records := []PriceRecord{
		{ID: "old", ItemID: "1", StoreID: "A", Price: 100, CreatedAt: at(1)},
		{ID: "sale", ItemID: "1", StoreID: "A", Price: 100, OnSale: true, CreatedAt: at(5)},
		{ID: "new", ItemID: "1", StoreID: "A", Price: 100, CreatedAt: at(3)},
	}

	rec, err := Recommend(context.Background(), []string{"1"}, stores, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Breakdown["1"].ID)
}

func TestRecommendTieBreakIsDeterministic(t *testing.T) {
	stores := []Store{{ID: "store-c"}, {ID: "store-a"}, {ID: "store-b"}}
	records := []PriceRecord{
		price("1", "store-a", 250),
		price("1", "store-b", 250),
		price("1", "store-c", 250),
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Store(nil), stores...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		rec, err := Recommend(context.Background(), []string{"1"}, shuffled, globalLookup(records), testOptions())
		require.NoError(t, err)
		assert.Equal(t, "store-a", rec.StoreID)
	}
}

func TestRecommendNoFeasibleStore(t *testing.T) {
	stores := []Store{{ID: "A"}, {ID: "B"}}
	records := []PriceRecord{price("1", "A", 100), price("2", "B", 100)}

	rec, err := Recommend(context.Background(), []string{"1", "2"}, stores, globalLookup(records), testOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoSuitableStore)
}

func TestRecommendDuplicateItemsCountedOnce(t *testing.T) {
	stores := []Store{{ID: "A"}}
	records := []PriceRecord{price("1", "A", 100)}

	rec, err := Recommend(context.Background(), []string{"1", "1", "1"}, stores, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.TotalCost)
}

func TestRecommendLookupErrorMakesStoreInfeasible(t *testing.T) {
	stores := []Store{{ID: "A"}, {ID: "B"}}
	records := []PriceRecord{price("1", "A", 100), price("1", "B", 900)}
	base := globalLookup(records)

	lookup := func(ctx context.Context, itemID, storeID string) ([]PriceRecord, error) {
		if storeID == "A" {
			return nil, errors.New("datastore unavailable")
		}
		return base(ctx, itemID, storeID)
	}

	rec, err := Recommend(context.Background(), []string{"1"}, stores, lookup, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "B", rec.StoreID)
}

func TestRecommendTimeoutMakesStoreInfeasible(t *testing.T) {
	stores := []Store{{ID: "fast"}, {ID: "slow"}}
	records := []PriceRecord{price("1", "fast", 900), price("1", "slow", 100)}
	base := globalLookup(records)

	lookup := func(ctx context.Context, itemID, storeID string) ([]PriceRecord, error) {
		if storeID == "slow" {
			// Ignores ctx on purpose
			time.Sleep(2 * time.Second)
		}
		return base(ctx, itemID, storeID)
	}

	opts := testOptions()
	opts.LookupTimeout = 50 * time.Millisecond

	start := time.Now()
	rec, err := Recommend(context.Background(), []string{"1"}, stores, lookup, opts)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "fast", rec.StoreID)
	assert.Equal(t, 1, rec.FeasibleStores)
	assert.Less(t, elapsed, time.Second)
}

func TestRecommendCancelledContext(t *testing.T) {
	stores := []Store{{ID: "A"}}
	records := []PriceRecord{price("1", "A", 100)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := Recommend(ctx, []string{"1"}, stores, globalLookup(records), testOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecommendBoundsLookupConcurrency(t *testing.T) {
	stores := make([]Store, 20)
	var records []PriceRecord
	for i := range stores {
		id := string(rune('a' + i))
		stores[i] = Store{ID: id}
		records = append(records, price("1", id, int64(100+i)))
	}
	base := globalLookup(records)

	var inFlight, maxInFlight int32
	lookup := func(ctx context.Context, itemID, storeID string) ([]PriceRecord, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return base(ctx, itemID, storeID)
	}

	opts := testOptions()
	opts.Workers = 8
	opts.LookupConcurrency = 2

	rec, err := Recommend(context.Background(), []string{"1"}, stores, lookup, opts)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.StoreID)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestRecommendDoesNotMutateInputs(t *testing.T) {
	stores := []Store{{ID: "B", Name: "Bravo"}, {ID: "A", Name: "Alpha"}}
	records := []PriceRecord{price("1", "A", 100), price("1", "B", 100), price("2", "A", 50), price("2", "B", 60)}
	items := []string{"2", "1", "2"}

	storesCopy := append([]Store(nil), stores...)
	recordsCopy := append([]PriceRecord(nil), records...)
	itemsCopy := append([]string(nil), items...)

	_, err := Recommend(context.Background(), items, stores, globalLookup(records), testOptions())
	require.NoError(t, err)

	assert.Equal(t, storesCopy, stores)
	assert.Equal(t, recordsCopy, records)
	assert.Equal(t, itemsCopy, items)
}

func TestRecommendedStoreIsNearby(t *testing.T) {
	all := []Store{
		{ID: "zg-1", Location: zagreb},
		{ID: "zg-2", Location: Coordinate{Latitude: 45.80, Longitude: 15.95}},
		{ID: "split", Location: split},
	}
	records := []PriceRecord{
		price("1", "zg-1", 300),
		price("1", "zg-2", 250),
		price("1", "split", 10),
	}

	candidates := NearbyStores(all, zagreb, DefaultRadiusKm)
	rec, err := Recommend(context.Background(), []string{"1"}, candidates, globalLookup(records), testOptions())
	require.NoError(t, err)
	assert.Equal(t, "zg-2", rec.StoreID)

	again := NearbyStores(all, zagreb, DefaultRadiusKm)
	assert.Contains(t, storeIDs(again), rec.StoreID)
}

func TestRecommendTotalOverflowMakesStoreInfeasible(t *testing.T) {
	huge := int64(1) << 62
	records := []PriceRecord{
		price("1", "A", huge), price("2", "A", huge),
		price("1", "B", 100), price("2", "B", 100),
	}

	for _, stores := range [][]Store{
		{{ID: "A"}, {ID: "B"}},
		{{ID: "B"}, {ID: "A"}},
	} {
		rec, err := Recommend(context.Background(), []string{"1", "2"}, stores, globalLookup(records), testOptions())
		require.NoError(t, err)
		assert.Equal(t, "B", rec.StoreID)
		assert.Equal(t, int64(200), rec.TotalCost)
		assert.Equal(t, 1, rec.FeasibleStores)
	}
}

func TestRecommendOverflowOnlyStoreIsNotSuitable(t *testing.T) {
	records := []PriceRecord{
		price("1", "A", math.MaxInt64), price("2", "A", 1),
	}
	rec, err := Recommend(context.Background(), []string{"1", "2"}, []Store{{ID: "A"}}, globalLookup(records), testOptions())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoSuitableStore)
}
