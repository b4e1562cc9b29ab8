package recommender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeIDs(stores []Store) []string {
	ids := make([]string, len(stores))
	for i, s := range stores {
		ids[i] = s.ID
	}
	return ids
}

func TestNearbyStoresFiltersByRadius(t *testing.T) {
	stores := []Store{
		{ID: "zg-centar", Location: zagreb},
		{ID: "zg-east", Location: Coordinate{Latitude: 45.8150, Longitude: 16.1}},
		{ID: "rijeka", Location: rijeka},
		{ID: "split", Location: split},
	}

	got := NearbyStores(stores, zagreb, DefaultRadiusKm)
	assert.ElementsMatch(t, []string{"zg-centar", "zg-east"}, storeIDs(got))

	got = NearbyStores(stores, zagreb, 200)
	assert.ElementsMatch(t, []string{"zg-centar", "zg-east", "rijeka"}, storeIDs(got))
}

func TestNearbyStoresBoundaryInclusive(t *testing.T) {
	s := Store{ID: "edge", Location: Coordinate{Latitude: 1, Longitude: 0}}
	radius := Distance(Coordinate{}, s.Location)

	got := NearbyStores([]Store{s}, Coordinate{}, radius)
	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].ID)
}

func TestNearbyStoresEmpty(t *testing.T) {
	got := NearbyStores(nil, zagreb, DefaultRadiusKm)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = NearbyStores([]Store{{ID: "split", Location: split}}, zagreb, 10)
	assert.Empty(t, got)
}

func TestNearbyStoresMonotonicInRadius(t *testing.T) {
	stores := []Store{
		{ID: "a", Location: zagreb},
		{ID: "b", Location: rijeka},
		{ID: "c", Location: split},
		{ID: "d", Location: Coordinate{Latitude: 46.3, Longitude: 16.3}},
	}

	var previous []string
	for _, radius := range []float64{0, 1, 25, 100, 150, 300, 1000} {
		current := storeIDs(NearbyStores(stores, zagreb, radius))
		for _, id := range previous {
			assert.Contains(t, current, id, "radius %v dropped store %s", radius, id)
		}
		previous = current
	}
}

func TestNearbyStoresWithDistanceSorted(t *testing.T) {
	stores := []Store{
		{ID: "rijeka", Location: rijeka},
		{ID: "zg", Location: zagreb},
		{ID: "split", Location: split},
	}

	got := NearbyStoresWithDistance(stores, zagreb, 300)
	require.Len(t, got, 3)
	assert.Equal(t, "zg", got[0].Store.ID)
	assert.Equal(t, 0.0, got[0].Distance)
	assert.Equal(t, "rijeka", got[1].Store.ID)
	assert.Equal(t, "split", got[2].Store.ID)
	assert.Less(t, got[1].Distance, got[2].Distance)
}
