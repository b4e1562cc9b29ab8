package recommender

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// AggregateOptions controls how Recommend fans out over candidate stores.
type AggregateOptions struct {
	Workers           int           // candidate stores evaluated concurrently
	LookupConcurrency int           // concurrent PriceLookup calls across all stores
	LookupTimeout     time.Duration // budget for all lookups of one store
	Policy            Policy        // best-price ordering, StoreRankingPolicy if nil

	Metrics *MetricsRecorder
	Logger  *zerolog.Logger
}

// storeScore is the outcome of evaluating one candidate store.
type storeScore struct {
	store     Store
	feasible  bool
	total     int64
	breakdown map[string]PriceRecord
	reason    string // why the store is infeasible
}

const (
	reasonFeasible    = "feasible"
	reasonUnpriced    = "unpriced"
	reasonTimeout     = "timeout"
	reasonLookupError = "lookup_error"
	reasonOverflow    = "overflow"
)

// Recommend picks the candidate store with the lowest total cost for items.
// A store is eligible only if it has a price record for every item. Ties on
// total are broken by the lowest store ID. Returns ErrNoSuitableStore when no
// candidate is eligible. Inputs are never mutated.
func Recommend(ctx context.Context, items []string, candidates []Store, lookup PriceLookup, opts AggregateOptions) (*Recommendation, error) {
	opts = opts.withDefaults()

	items = uniqueItems(items)
	if len(items) == 0 || len(candidates) == 0 {
		return nil, ErrNoSuitableStore
	}

	sem := semaphore.NewWeighted(int64(opts.LookupConcurrency))
	scores := make([]storeScore, len(candidates))

	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	for i, store := range candidates {
		i, store := i, store
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[i] = scoreStore(ctx, store, items, lookup, sem, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Partial results are discarded if the caller gave up meanwhile.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return reduceScores(scores)
}

// reduceScores selects the winner. It must run on a single goroutine.
func reduceScores(scores []storeScore) (*Recommendation, error) {
	var best *storeScore
	feasible := 0
	for i := range scores {
		s := &scores[i]
		if !s.feasible {
			continue
		}
		feasible++
		if best == nil || s.total < best.total ||
			(s.total == best.total && s.store.ID < best.store.ID) {
			best = s
		}
	}
	if best == nil {
		return nil, ErrNoSuitableStore
	}

	return &Recommendation{
		StoreID:         best.store.ID,
		Store:           best.store,
		TotalCost:       best.total,
		Breakdown:       best.breakdown,
		EvaluatedStores: len(scores),
		FeasibleStores:  feasible,
	}, nil
}

// scoreStore prices every item at one store under a shared timeout.
func scoreStore(ctx context.Context, store Store, items []string, lookup PriceLookup, sem *semaphore.Weighted, opts AggregateOptions) storeScore {
	storeCtx, cancel := context.WithTimeout(ctx, opts.LookupTimeout)
	defer cancel()

	score := storeScore{
		store:     store,
		breakdown: make(map[string]PriceRecord, len(items)),
	}

	for _, itemID := range items {
		records, err := boundedLookup(storeCtx, sem, lookup, itemID, store.ID)
		if err != nil {
			score.reason = reasonLookupError
			if errors.Is(err, context.DeadlineExceeded) {
				score.reason = reasonTimeout
			}
			opts.Logger.Debug().
				Err(err).
				Str("store_id", store.ID).
				Str("item_id", itemID).
				Msg("Price lookup failed, store treated as infeasible")
			opts.Metrics.RecordStoreEvaluation(score.reason)
			return score
		}

		best, ok := BestPrice(recordsAt(records, itemID, store.ID), opts.Policy)
		if !ok {
			score.reason = reasonUnpriced
			opts.Metrics.RecordStoreEvaluation(score.reason)
			return score
		}
		if best.Price < 0 || best.Price > math.MaxInt64-score.total {
			score.reason = reasonOverflow
			opts.Logger.Warn().
				Str("store_id", store.ID).
				Str("item_id", itemID).
				Int64("price", best.Price).
				Msg("Total cost out of range, store treated as infeasible")
			opts.Metrics.RecordStoreEvaluation(score.reason)
			return score
		}
		score.breakdown[itemID] = best
		score.total += best.Price
	}

	score.feasible = true
	score.reason = reasonFeasible
	opts.Metrics.RecordStoreEvaluation(score.reason)
	return score
}

// boundedLookup runs lookup under the concurrency semaphore and returns as
// soon as ctx is done, even if the lookup itself ignores ctx.
func boundedLookup(ctx context.Context, sem *semaphore.Weighted, lookup PriceLookup, itemID, storeID string) ([]PriceRecord, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	type result struct {
		records []PriceRecord
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer sem.Release(1)
		records, err := lookup(ctx, itemID, storeID)
		done <- result{records: records, err: err}
	}()

	select {
	case res := <-done:
		return res.records, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordsAt keeps only records for itemID reported at storeID.
func recordsAt(records []PriceRecord, itemID, storeID string) []PriceRecord {
	out := make([]PriceRecord, 0, len(records))
	for _, r := range records {
		if r.StoreID == storeID && r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out
}

// uniqueItems drops empty and repeated item IDs, keeping first occurrence.
func uniqueItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, id := range items {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (o AggregateOptions) withDefaults() AggregateOptions {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.LookupConcurrency < 1 {
		o.LookupConcurrency = o.Workers
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = Defaults().LookupTimeout
	}
	if o.Policy == nil {
		o.Policy = StoreRankingPolicy{}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}
