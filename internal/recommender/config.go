package recommender

import "time"

// Config holds the configuration for the recommendation engine.
// It is loaded from environment variables or a config file.
type Config struct {
	// Geographic filtering
	DefaultRadiusKm float64 `mapstructure:"default_radius_km" env:"DEFAULT_RADIUS_KM" default:"25"`

	// Fan-out: stores evaluated in parallel and concurrent catalog calls
	Workers           int           `mapstructure:"workers" env:"WORKERS" default:"8"`
	LookupConcurrency int           `mapstructure:"lookup_concurrency" env:"LOOKUP_CONCURRENCY" default:"16"`
	LookupTimeout     time.Duration `mapstructure:"lookup_timeout" env:"LOOKUP_TIMEOUT" default:"2s"`

	// Validation limits
	MaxListItems int `mapstructure:"max_list_items" env:"MAX_LIST_ITEMS" default:"100"`

	// Best-price policies per call path
	RecommendationPolicy string `mapstructure:"recommendation_policy" env:"RECOMMENDATION_POLICY" default:"store_ranking"`
	ComparisonPolicy     string `mapstructure:"comparison_policy" env:"COMPARISON_POLICY" default:"simple"`

	// Circuit breaker around the catalog
	BreakerMaxFailures  int           `mapstructure:"breaker_max_failures" env:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerResetTimeout time.Duration `mapstructure:"breaker_reset_timeout" env:"BREAKER_RESET_TIMEOUT" default:"30s"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		DefaultRadiusKm:      DefaultRadiusKm,
		Workers:              8,
		LookupConcurrency:    16,
		LookupTimeout:        2 * time.Second,
		MaxListItems:         100,
		RecommendationPolicy: PolicyStoreRanking,
		ComparisonPolicy:     PolicySimple,
		BreakerMaxFailures:   5,
		BreakerResetTimeout:  30 * time.Second,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DefaultRadiusKm <= 0 {
		return ErrInvalidConfig{Field: "default_radius_km", Reason: "must be positive"}
	}
	if c.Workers < 1 {
		return ErrInvalidConfig{Field: "workers", Reason: "must be at least 1"}
	}
	if c.LookupConcurrency < 1 {
		return ErrInvalidConfig{Field: "lookup_concurrency", Reason: "must be at least 1"}
	}
	if c.LookupTimeout <= 0 {
		return ErrInvalidConfig{Field: "lookup_timeout", Reason: "must be positive"}
	}
	if c.MaxListItems < 1 {
		return ErrInvalidConfig{Field: "max_list_items", Reason: "must be at least 1"}
	}
	if _, err := PolicyByName(c.RecommendationPolicy); err != nil {
		return ErrInvalidConfig{Field: "recommendation_policy", Reason: err.Error()}
	}
	if _, err := PolicyByName(c.ComparisonPolicy); err != nil {
		return ErrInvalidConfig{Field: "comparison_policy", Reason: err.Error()}
	}
	if c.BreakerMaxFailures < 1 {
		return ErrInvalidConfig{Field: "breaker_max_failures", Reason: "must be at least 1"}
	}
	if c.BreakerResetTimeout <= 0 {
		return ErrInvalidConfig{Field: "breaker_reset_timeout", Reason: "must be positive"}
	}
	return nil
}

// aggregateOptions derives the aggregator settings from the config.
func (c *Config) aggregateOptions() AggregateOptions {
	policy, err := PolicyByName(c.RecommendationPolicy)
	if err != nil {
		policy = StoreRankingPolicy{}
	}
	return AggregateOptions{
		Workers:           c.Workers,
		LookupConcurrency: c.LookupConcurrency,
		LookupTimeout:     c.LookupTimeout,
		Policy:            policy,
	}
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
