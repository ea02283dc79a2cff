package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List all markets on the ledger",
	RunE:  runMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)
}

func runMarkets(cmd *cobra.Command, args []string) error {
	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ms, err := env.engine.Markets(context.Background())
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}

	return printResult(ms)
}
