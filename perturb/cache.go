package perturb

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/viperlab/viper/embedding"
)

// DefaultTopN is the number of neighbors requested per character.
const DefaultTopN = 20

// CacheStats counts cache activity over a run.
type CacheStats struct {
	Hits     int
	Misses   int
	NotFound int
	Empty    int
}

type cacheEntry struct {
	dist Distribution
	err  error
}

// Cache memoizes the sampling distribution of every character seen in a run.
// Entries, including failed lookups, live as long as the Cache and are never
// evicted. A Cache is not safe for concurrent use.
type Cache struct {
	space   embedding.Space
	topN    int
	filter  FilterMode
	logger  *slog.Logger
	entries map[rune]cacheEntry
	stats   CacheStats
}

// NewCache creates a Cache over space. topN <= 0 selects DefaultTopN.
func NewCache(space embedding.Space, topN int, filter FilterMode, logger *slog.Logger) *Cache {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		space:   space,
		topN:    topN,
		filter:  filter,
		logger:  logger,
		entries: make(map[rune]cacheEntry),
	}
}

// Distribution returns the sampling distribution for r, querying the space
// on first sight. It fails with embedding.ErrNotFound or ErrDistributionEmpty
// when r can not be substituted; both outcomes are cached for r alone. Any
// other error comes from the space itself, is not cached and should be
// treated as fatal.
func (c *Cache) Distribution(ctx context.Context, r rune) (Distribution, error) {
	if e, ok := c.entries[r]; ok {
		c.stats.Hits++
		return e.dist, e.err
	}
	c.stats.Misses++
	key := string(r)
	ns, err := c.space.Nearest(ctx, key, c.topN)
	if err != nil {
		if !errors.Is(err, embedding.ErrNotFound) {
			return Distribution{}, err
		}
		c.stats.NotFound++
		c.logger.Debug("character not in embedding space", "char", key)
		c.entries[r] = cacheEntry{err: err}
		return Distribution{}, err
	}
	dist, err := NewDistribution(c.filter.Apply(ns))
	if err != nil {
		c.stats.Empty++
		c.logger.Debug("no substitution candidates", "char", key, "neighbors", len(ns), "filter", c.filter)
	}
	c.entries[r] = cacheEntry{dist: dist, err: err}
	return dist, err
}

// Len returns the number of cached characters.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns the counters accumulated so far.
func (c *Cache) Stats() CacheStats { return c.stats }
