package recommender

import "fmt"

// Policy orders price records for one item. Less reports whether a should be
// preferred over b. Records that compare equal keep input order.
type Policy interface {
	Name() string
	Less(a, b PriceRecord) bool
}

const (
	PolicySimple       = "simple"
	PolicyStoreRanking = "store_ranking"
)

// SimplePolicy prefers the lowest price and nothing else.
// It backs the generic price comparison view.
type SimplePolicy struct{}

func (SimplePolicy) Name() string { return PolicySimple }

func (SimplePolicy) Less(a, b PriceRecord) bool {
	return a.Price < b.Price
}

// StoreRankingPolicy orders by price ascending, then non-sale before sale,
// then most recent first. It is used when scoring a store for recommendation.
type StoreRankingPolicy struct{}

func (StoreRankingPolicy) Name() string { return PolicyStoreRanking }

func (StoreRankingPolicy) Less(a, b PriceRecord) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if a.OnSale != b.OnSale {
		return !a.OnSale
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// BestPrice returns the first record that no later record is strictly
// preferred over. It returns false when records is empty, meaning the item
// has no known price.
func BestPrice(records []PriceRecord, policy Policy) (PriceRecord, bool) {
	if len(records) == 0 {
		return PriceRecord{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if policy.Less(r, best) {
			best = r
		}
	}
	return best, true
}

// BestPriceSimple applies SimplePolicy.
func BestPriceSimple(records []PriceRecord) (PriceRecord, bool) {
	return BestPrice(records, SimplePolicy{})
}

// BestPriceStoreRanking applies StoreRankingPolicy.
func BestPriceStoreRanking(records []PriceRecord) (PriceRecord, bool) {
	return BestPrice(records, StoreRankingPolicy{})
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case PolicySimple:
		return SimplePolicy{}, nil
	case PolicyStoreRanking:
		return StoreRankingPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown price policy %q", name)
	}
}
