package lang

import (
	"github.com/ardnew/dioscript/log"
)

// DefaultMaxDepth bounds syntactic nesting during parsing and the depth of
// nested blocks and host calls during evaluation.
var DefaultMaxDepth = 256

// DefaultMaxIterations bounds the total number of loop iterations performed
// by one evaluation.
var DefaultMaxIterations = 1_000_000

// config holds the settings shared by parsing and evaluation.
type config struct {
	maxDepth      int
	maxIterations int
	logger        log.Logger
	cache         *Cache
	noCache       bool
}

// Option configures parsing and evaluation.
type Option func(*config)

// WithMaxDepth sets the nesting limit. Values below 1 restore the default.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		c.maxDepth = depth
	}
}

// WithMaxIterations sets the loop iteration limit. Values below 1 restore
// the default.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = DefaultMaxIterations
		}

		c.maxIterations = n
	}
}

// WithLogger sets the logger receiving trace events.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithCache makes a [Runtime] parse through cache, which may be shared by
// several runtimes. A nil cache disables caching.
func WithCache(cache *Cache) Option {
	return func(c *config) {
		c.cache = cache
		c.noCache = cache == nil
	}
}

func makeConfig(opts ...Option) config {
	c := config{
		maxDepth:      DefaultMaxDepth,
		maxIterations: DefaultMaxIterations,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
