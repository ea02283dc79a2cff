package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/privymarket/settlement/internal/app"
	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/identity"
	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/config"
	"go.uber.org/zap"
)

// opEnv is everything a single-operation command needs: logger, open
// ledger and an engine over it.
type opEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	ledger ledger.Ledger
	engine *engine.Engine
}

func openOpEnv() (*opEnv, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	if cfg.StorageMode == "memory" {
		logger.Warn("memory-storage-selected",
			zap.String("hint", "state will not survive this invocation; set STORAGE_MODE=sqlite for CLI workflows"))
	}

	led, err := app.OpenLedger(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	return &opEnv{
		cfg:    cfg,
		logger: logger,
		ledger: led,
		engine: engine.New(engine.Config{Ledger: led, Logger: logger}),
	}, nil
}

func (e *opEnv) Close() {
	if err := e.ledger.Close(); err != nil {
		e.logger.Error("ledger-close-error", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// signerKey loads the caller's private key from the environment.
func signerKey() (*ecdsa.PrivateKey, error) {
	priv, err := identity.LoadKeyFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load signer key (set %s in .env): %w", identity.PrivateKeyEnv, err)
	}
	return priv, nil
}

// parseDeadline accepts either an RFC3339 timestamp or a duration
// offset from now ("72h").
func parseDeadline(v string) (time.Time, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return time.Now().UTC().Add(d), nil
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline must be RFC3339 or a duration like 72h: %w", err)
	}
	return t.UTC(), nil
}

// printResult renders an operation result as indented JSON on stdout.
func printResult(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
