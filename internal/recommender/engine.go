package recommender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/kosarica/store-recommender/internal/recommender"

// Engine recommends stores and compares prices on top of a Catalog.
type Engine struct {
	catalog    Catalog
	config     *Config
	comparison Policy
	breaker    *CircuitBreaker
	metrics    *MetricsRecorder
	logger     zerolog.Logger
	tracer     trace.Tracer
}

var _ Recommender = (*Engine)(nil)

// NewEngine creates a new engine. The config is validated.
func NewEngine(catalog Catalog, config *Config) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if config == nil {
		config = Defaults()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommender config: %w", err)
	}
	comparison, _ := PolicyByName(config.ComparisonPolicy)

	metrics := NewMetricsRecorder()
	logger := log.With().Str("component", "recommender").Logger()

	return &Engine{
		catalog:    catalog,
		config:     config,
		comparison: comparison,
		breaker: NewCircuitBreaker("catalog", &CircuitBreakerConfig{
			MaxFailures:      config.BreakerMaxFailures,
			ResetTimeout:     config.BreakerResetTimeout,
			HalfOpenMaxCalls: 1,
		}, metrics, &logger),
		metrics: metrics,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// RecommendStore picks the single cheapest store within radiusKm of
// userLocation that prices every item on the list. A radius <= 0 means the
// configured default.
func (e *Engine) RecommendStore(ctx context.Context, shoppingList []string, userLocation Coordinate, radiusKm float64) (rec *Recommendation, err error) {
	startTime := time.Now()
	ctx, span := e.tracer.Start(ctx, "recommender.RecommendStore")
	defer func() {
		e.metrics.RecordOperationDuration("recommend", time.Since(startTime))
		e.metrics.RecordRecommendation(outcomeOf(err))
		endSpan(span, err)
	}()

	if err := ValidateShoppingList(shoppingList, e.config.MaxListItems); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = e.config.DefaultRadiusKm
	}
	items := uniqueItems(shoppingList)
	e.metrics.RecordListSize(len(items))
	span.SetAttributes(
		attribute.Int("shopping_list.items", len(items)),
		attribute.Float64("radius_km", radiusKm),
	)

	nearby, err := e.NearbyStores(ctx, userLocation, radiusKm)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordCandidateCount(len(nearby))
	span.SetAttributes(attribute.Int("candidates", len(nearby)))

	if len(nearby) == 0 {
		e.logger.Debug().
			Float64("radius_km", radiusKm).
			Msg("No stores within radius")
		return nil, ErrNoSuitableStore
	}

	candidates := make([]Store, len(nearby))
	distances := make(map[string]float64, len(nearby))
	for i, s := range nearby {
		candidates[i] = s.Store
		distances[s.Store.ID] = s.Distance
	}

	opts := e.config.aggregateOptions()
	opts.Metrics = e.metrics
	opts.Logger = &e.logger

	rec, err = Recommend(ctx, items, candidates, e.newRequestLookup(ctx).lookup, opts)
	if err != nil {
		return nil, err
	}
	rec.Distance = distances[rec.StoreID]
	e.metrics.RecordWinnerDistance(rec.Distance)

	if store, err := e.getStore(ctx, rec.StoreID); err == nil {
		rec.Store = *store
	} else {
		// Keep the candidate snapshot; the winner was valid when listed.
		e.logger.Warn().
			Err(err).
			Str("store_id", rec.StoreID).
			Msg("Could not resolve recommended store, using listed snapshot")
	}

	e.logger.Info().
		Str("store_id", rec.StoreID).
		Int64("total", rec.TotalCost).
		Int("candidates", rec.EvaluatedStores).
		Int("feasible", rec.FeasibleStores).
		Float64("distance_km", rec.Distance).
		Msg("Recommended store")

	return rec, nil
}

// NearbyStores lists stores within radiusKm of origin, closest first.
// A radius <= 0 means the configured default.
func (e *Engine) NearbyStores(ctx context.Context, origin Coordinate, radiusKm float64) ([]StoreWithDistance, error) {
	if radiusKm <= 0 {
		radiusKm = e.config.DefaultRadiusKm
	}

	startTime := time.Now()
	stores, err := e.catalog.ListAllStores(ctx)
	e.metrics.RecordCatalogCall("list_all_stores", time.Since(startTime), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	return NearbyStoresWithDistance(stores, origin, radiusKm), nil
}

// ComparePrices returns, per item, the best record under the comparison
// policy, or nil when the item has no known price.
func (e *Engine) ComparePrices(ctx context.Context, items []string) (result map[string]*PriceRecord, err error) {
	startTime := time.Now()
	ctx, span := e.tracer.Start(ctx, "recommender.ComparePrices")
	defer func() {
		e.metrics.RecordOperationDuration("compare", time.Since(startTime))
		endSpan(span, err)
	}()

	if err := ValidateShoppingList(items, e.config.MaxListItems); err != nil {
		return nil, err
	}
	items = uniqueItems(items)

	best := make([]*PriceRecord, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.LookupConcurrency)
	for i, itemID := range items {
		i, itemID := i, itemID
		g.Go(func() error {
			records, err := e.listPriceRecords(gctx, itemID)
			if err != nil {
				return fmt.Errorf("failed to list prices for item %s: %w", itemID, err)
			}
			if r, ok := BestPrice(recordsFor(records, itemID), e.comparison); ok {
				best[i] = &r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result = make(map[string]*PriceRecord, len(items))
	for i, itemID := range items {
		result[itemID] = best[i]
	}
	return result, nil
}

// IsHealthy returns false while the catalog circuit breaker is open.
func (e *Engine) IsHealthy(ctx context.Context) bool {
	return e.breaker.State() != CircuitOpen
}

// listPriceRecords calls the catalog through the circuit breaker.
func (e *Engine) listPriceRecords(ctx context.Context, itemID string) ([]PriceRecord, error) {
	if !e.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	startTime := time.Now()
	records, err := e.catalog.ListPriceRecords(ctx, itemID)
	e.metrics.RecordCatalogCall("list_price_records", time.Since(startTime), err)

	switch {
	case err == nil:
		e.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// caller went away, not a catalog fault
	default:
		e.breaker.RecordFailure(err)
	}
	return records, err
}

func (e *Engine) getStore(ctx context.Context, storeID string) (*Store, error) {
	startTime := time.Now()
	store, err := e.catalog.GetStore(ctx, storeID)
	e.metrics.RecordCatalogCall("get_store", time.Since(startTime), err)
	return store, err
}

// requestLookup memoizes catalog price lookups for the lifetime of one
// recommendation request so each item is fetched at most once, however many
// candidate stores ask for it.
type requestLookup struct {
	engine *Engine
	ctx    context.Context // request scope, outlives any single store's timeout
	group  singleflight.Group

	mu    sync.Mutex
	cache map[string]lookupResult
}

type lookupResult struct {
	records []PriceRecord
	err     error
}

func (e *Engine) newRequestLookup(ctx context.Context) *requestLookup {
	return &requestLookup{
		engine: e,
		ctx:    ctx,
		cache:  make(map[string]lookupResult),
	}
}

// lookup implements PriceLookup. The shared fetch runs under the request
// context with its own timeout; ctx only bounds how long this store waits.
func (l *requestLookup) lookup(ctx context.Context, itemID, storeID string) ([]PriceRecord, error) {
	l.mu.Lock()
	if res, ok := l.cache[itemID]; ok {
		l.mu.Unlock()
		return res.records, res.err
	}
	l.mu.Unlock()

	ch := l.group.DoChan(itemID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(l.ctx, l.engine.config.LookupTimeout)
		defer cancel()

		records, err := l.engine.listPriceRecords(fetchCtx, itemID)

		l.mu.Lock()
		l.cache[itemID] = lookupResult{records: records, err: err}
		l.mu.Unlock()
		return records, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]PriceRecord), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordsFor keeps only records that belong to itemID.
func recordsFor(records []PriceRecord, itemID string) []PriceRecord {
	out := make([]PriceRecord, 0, len(records))
	for _, r := range records {
		if r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out
}

func outcomeOf(err error) string {
	var invalid ErrInvalidRequest
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNoSuitableStore):
		return "no_suitable_store"
	case errors.As(err, &invalid):
		return "invalid"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNoSuitableStore) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
