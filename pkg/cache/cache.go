// Package cache provides a read cache for market records on the HTTP
// query path. Mutating operations invalidate; the ledger stays the
// source of truth.
package cache

import (
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// MarketCache caches market records by id with a short TTL.
type MarketCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// Config holds cache configuration.
type Config struct {
	MaxMarkets int64         // Maximum cached markets
	TTL        time.Duration // Entry lifetime
	Logger     *zap.Logger
}

// New creates a ristretto-backed market cache.
func New(cfg *Config) (*MarketCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxMarkets * 10, // 10x max items for frequency tracking
		MaxCost:     cfg.MaxMarkets,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &MarketCache{
		cache:  cache,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves a cached market.
func (c *MarketCache) Get(id uint64) (*types.Market, bool) {
	value, found := c.cache.Get(key(id))
	if !found {
		MissesTotal.Inc()
		return nil, false
	}

	m, ok := value.(*types.Market)
	if !ok {
		MissesTotal.Inc()
		return nil, false
	}

	HitsTotal.Inc()
	return m, true
}

// Set stores a market under its id.
func (c *MarketCache) Set(m *types.Market) {
	if c.cache.SetWithTTL(key(m.ID), m, 1, c.ttl) {
		SetsTotal.Inc()
	}
}

// Invalidate drops a market after a mutation touched it.
func (c *MarketCache) Invalidate(id uint64) {
	c.cache.Del(key(id))
	InvalidationsTotal.Inc()
	c.logger.Debug("market-cache-invalidated", zap.Uint64("market-id", id))
}

// Wait blocks until pending writes are applied. Test helper.
func (c *MarketCache) Wait() {
	c.cache.Wait()
}

// Close releases cache resources.
func (c *MarketCache) Close() {
	c.cache.Close()
	c.logger.Info("market-cache-closed")
}

func key(id uint64) string {
	return strconv.FormatUint(id, 10)
}
