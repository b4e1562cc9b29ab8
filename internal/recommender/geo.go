package recommender

import (
	"math"
	"sort"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometers.
// Coordinates are not validated.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding near antipodal points, or out-of-range input, can push a
	// outside [0, 1] and make the square roots NaN.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Coordinate) float64 {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// SortStoresByDistance sorts stores by distance, then by store ID.
func SortStoresByDistance(stores []StoreWithDistance) {
	sort.SliceStable(stores, func(i, j int) bool {
		if stores[i].Distance != stores[j].Distance {
			return stores[i].Distance < stores[j].Distance
		}
		return stores[i].Store.ID < stores[j].Store.ID
	})
}
