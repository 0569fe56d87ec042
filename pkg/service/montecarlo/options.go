package montecarlo

import (
	"math/rand/v2"
	"runtime"

	"github.com/quantrail/riskforge/pkg/domain/model"
)

const (
	// DefaultIterations is used when the caller does not choose a count
	DefaultIterations = 10000

	// MinIterations is the hard floor; runs below it are rejected
	MinIterations = 1000

	// RecommendedIterations is the soft floor; runs below it complete
	// but log a statistical significance warning
	RecommendedIterations = 10000

	// batchSize fixes the iteration partitioning. Batches are the unit
	// of sub-seeding, parallel fan-out, cancellation, and progress, so
	// this must never depend on the worker count or results would vary
	// with the degree of parallelism.
	batchSize = 1024
)

// ProgressFunc observes iteration progress after each completed batch
type ProgressFunc func(completed, total int)

type config struct {
	iterations int
	seed       uint64
	seedSet    bool
	pairs      map[model.CorrelationPair]float64
	baseline   model.Baseline
	workers    int
	progress   ProgressFunc

	// allowCorrection opts in to nearest-PSD repair of a rejected
	// correlation matrix; the repair is always reported
	allowCorrection bool
}

func newConfig(opts []Option) *config {
	cfg := &config{
		iterations: DefaultIterations,
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.seedSet {
		cfg.seed = rand.Uint64()
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	return cfg
}

// Option configures a single simulation run
type Option func(*config)

// WithIterations sets the iteration count
func WithIterations(n int) Option {
	return func(c *config) {
		c.iterations = n
	}
}

// WithSeed fixes the master RNG seed for a reproducible run
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithCorrelations supplies the sparse pairwise correlation specification
func WithCorrelations(pairs map[model.CorrelationPair]float64) Option {
	return func(c *config) {
		c.pairs = pairs
	}
}

// WithBaseline overlays project baseline cost/schedule figures on the
// aggregated outcomes
func WithBaseline(b model.Baseline) Option {
	return func(c *config) {
		c.baseline = b
	}
}

// WithWorkers caps the number of concurrent batch workers. The result is
// identical for any worker count; this only bounds parallelism.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithProgress registers a callback invoked after each completed batch
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithMatrixCorrection allows a non-PSD correlation matrix to be repaired
// to the nearest positive semi-definite matrix instead of rejected. The
// correction is logged and flagged on the results.
func WithMatrixCorrection() Option {
	return func(c *config) {
		c.allowCorrection = true
	}
}
