package recommender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return baseTime.Add(time.Duration(seconds) * time.Second)
}

func TestBestPriceStoreRankingExample(t *testing.T) {
	records := []PriceRecord{
		{ID: "t1", Price: 500, OnSale: false, CreatedAt: at(1)},
		{ID: "t3", Price: 500, OnSale: false, CreatedAt: at(3)},
		{ID: "t5", Price: 500, OnSale: true, CreatedAt: at(5)},
	}

	best, ok := BestPriceStoreRanking(records)
	require.True(t, ok)
	assert.Equal(t, "t3", best.ID)

	// Order of input must not matter for distinct keys
	reversed := []PriceRecord{records[2], records[1], records[0]}
	best, ok = BestPriceStoreRanking(reversed)
	require.True(t, ok)
	assert.Equal(t, "t3", best.ID)
}

func TestBestPriceStoreRankingOrdering(t *testing.T) {
	tests := []struct {
		name    string
		records []PriceRecord
		want    string
	}{
		{
			name: "lowest price wins over sale and freshness",
			records: []PriceRecord{
				{ID: "fresh-sale", Price: 300, OnSale: true, CreatedAt: at(10)},
				{ID: "cheap-old", Price: 250, OnSale: true, CreatedAt: at(1)},
			},
			want: "cheap-old",
		},
		{
			name: "non-sale preferred at equal price",
			records: []PriceRecord{
				{ID: "sale", Price: 300, OnSale: true, CreatedAt: at(10)},
				{ID: "regular", Price: 300, OnSale: false, CreatedAt: at(1)},
			},
			want: "regular",
		},
		{
			name: "most recent wins at equal price and sale status",
			records: []PriceRecord{
				{ID: "old", Price: 300, CreatedAt: at(1)},
				{ID: "new", Price: 300, CreatedAt: at(2)},
			},
			want: "new",
		},
		{
			name: "identical keys keep first encountered",
			records: []PriceRecord{
				{ID: "first", Price: 300, CreatedAt: at(1)},
				{ID: "second", Price: 300, CreatedAt: at(1)},
			},
			want: "first",
		},
		{
			name:    "single record",
			records: []PriceRecord{{ID: "only", Price: 0}},
			want:    "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok := BestPriceStoreRanking(tt.records)
			require.True(t, ok)
			assert.Equal(t, tt.want, best.ID)
		})
	}
}

func TestBestPriceSimple(t *testing.T) {
	records := []PriceRecord{
		{ID: "a", Price: 400, CreatedAt: at(1)},
		{ID: "b", Price: 300, OnSale: true, CreatedAt: at(1)},
		{ID: "c", Price: 300, OnSale: false, CreatedAt: at(9)},
	}

	best, ok := BestPriceSimple(records)
	require.True(t, ok)
	// Ties on price keep the first minimal record; sale and time are ignored
	assert.Equal(t, "b", best.ID)
}

func TestPoliciesDisagree(t *testing.T) {
	records := []PriceRecord{
		{ID: "sale", Price: 300, OnSale: true, CreatedAt: at(1)},
		{ID: "regular", Price: 300, OnSale: false, CreatedAt: at(1)},
	}

	simple, _ := BestPriceSimple(records)
	ranking, _ := BestPriceStoreRanking(records)
	assert.Equal(t, "sale", simple.ID)
	assert.Equal(t, "regular", ranking.ID)
}

func TestBestPriceEmpty(t *testing.T) {
	_, ok := BestPriceSimple(nil)
	assert.False(t, ok)

	_, ok = BestPriceStoreRanking([]PriceRecord{})
	assert.False(t, ok)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("simple")
	require.NoError(t, err)
	assert.Equal(t, PolicySimple, p.Name())

	p, err = PolicyByName("store_ranking")
	require.NoError(t, err)
	assert.Equal(t, PolicyStoreRanking, p.Name())

	_, err = PolicyByName("cheapest")
	assert.Error(t, err)
}
