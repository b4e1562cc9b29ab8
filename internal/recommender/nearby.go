package recommender

// DefaultRadiusKm is the travel radius used when a caller does not give one.
const DefaultRadiusKm = 25.0

// NearbyStores returns every store within radiusKm of origin, boundary inclusive.
// The order of the result is unspecified.
func NearbyStores(stores []Store, origin Coordinate, radiusKm float64) []Store {
	nearby := make([]Store, 0)
	for _, s := range stores {
		if Distance(origin, s.Location) <= radiusKm {
			nearby = append(nearby, s)
		}
	}
	return nearby
}

// NearbyStoresWithDistance is NearbyStores keeping each store's distance,
// sorted closest first.
func NearbyStoresWithDistance(stores []Store, origin Coordinate, radiusKm float64) []StoreWithDistance {
	nearby := make([]StoreWithDistance, 0)
	for _, s := range stores {
		d := Distance(origin, s.Location)
		if d > radiusKm {
			continue
		}
		nearby = append(nearby, StoreWithDistance{Store: s, Distance: d})
	}
	SortStoresByDistance(nearby)
	return nearby
}
