package app

import (
	"fmt"

	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/events"
	"github.com/privymarket/settlement/pkg/cache"
	"github.com/privymarket/settlement/pkg/healthprobe"
	"github.com/privymarket/settlement/pkg/httpserver"
)

func (a *App) setup() error {
	var err error

	a.ledger, err = OpenLedger(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	a.hub = events.NewHub(a.cfg.EventBufferSize, a.logger)

	a.engine = engine.New(engine.Config{
		Ledger:    a.ledger,
		Logger:    a.logger,
		Publisher: a.hub,
	})

	a.marketCache, err = cache.New(&cache.Config{
		MaxMarkets: a.cfg.CacheMaxMarkets,
		TTL:        a.cfg.CacheTTL,
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("create market cache: %w", err)
	}

	a.healthChecker = healthprobe.New()

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          a.cfg.HTTPPort,
		Logger:        a.logger,
		HealthChecker: a.healthChecker,
		Engine:        a.engine,
		Markets:       a.marketCache,
		Hub:           a.hub,
	})

	return nil
}
