// Package app wires the settlement components together and manages
// their lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/events"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/cache"
	"github.com/privymarket/settlement/pkg/config"
	"github.com/privymarket/settlement/pkg/healthprobe"
	"github.com/privymarket/settlement/pkg/httpserver"
	"go.uber.org/zap"
)

// App holds all application components.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	ledger        ledger.Ledger
	engine        *engine.Engine
	hub           *events.Hub
	marketCache   *cache.MarketCache
	httpServer    *httpserver.Server
	healthChecker *healthprobe.HealthChecker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the application with all components wired.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	err := a.setup()
	if err != nil {
		cancel()
		return nil, err
	}

	return a, nil
}

// Engine exposes the settlement engine. Test helper.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
