package app

import (
	"fmt"

	"github.com/privymarket/settlement/internal/ledger"
	"github.com/privymarket/settlement/pkg/config"
	"go.uber.org/zap"
)

// OpenLedger opens the ledger backend selected by STORAGE_MODE. Shared
// with the CLI commands, which run single operations against the same
// store the server uses.
func OpenLedger(cfg *config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	switch cfg.StorageMode {
	case "memory":
		return ledger.NewMemoryLedger(logger), nil

	case "sqlite":
		return ledger.OpenSQLite(cfg.SQLitePath, logger)

	case "postgres":
		return ledger.NewPostgresLedger(&ledger.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}

	return nil, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
}
