package cmd

import (
	"context"
	"fmt"

	"github.com/privymarket/settlement/internal/identity"
	"github.com/privymarket/settlement/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var resolveMarketCmd = &cobra.Command{
	Use:   "resolve-market",
	Short: "Resolve a market with its final outcome (authority only)",
	Long: `Freezes a market once its deadline has passed. Irreversible: no
further bets, no second resolution.

Example usage:
  resolve-market --market 1 --outcome yes`,
	RunE: runResolveMarket,
}

var (
	resolveMarketID uint64
	resolveOutcome  string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(resolveMarketCmd)

	resolveMarketCmd.Flags().Uint64VarP(&resolveMarketID, "market", "m", 0, "Market id")
	resolveMarketCmd.Flags().StringVarP(&resolveOutcome, "outcome", "o", "", "Final outcome: yes or no")
	_ = resolveMarketCmd.MarkFlagRequired("market")
	_ = resolveMarketCmd.MarkFlagRequired("outcome")
}

func runResolveMarket(cmd *cobra.Command, args []string) error {
	priv, err := signerKey()
	if err != nil {
		return err
	}

	outcome, err := types.ParseSide(resolveOutcome)
	if err != nil {
		return err
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	m, err := env.engine.ResolveMarket(context.Background(), identity.Address(priv), resolveMarketID, outcome)
	if err != nil {
		return fmt.Errorf("resolve market: %w", err)
	}

	return printResult(m)
}
