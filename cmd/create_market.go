package cmd

import (
	"context"
	"fmt"

	"github.com/privymarket/settlement/internal/identity"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var createMarketCmd = &cobra.Command{
	Use:   "create-market",
	Short: "Create a new betting market (authority only)",
	Long: `Creates an open market with a question and a betting deadline.

Example usage:
  create-market --id 1 --question "Will it rain tomorrow?" --deadline 72h
  create-market --id 2 --question "..." --deadline 2026-09-30T00:00:00Z`,
	RunE: runCreateMarket,
}

var (
	createMarketID       uint64
	createMarketQuestion string
	createMarketDeadline string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(createMarketCmd)

	createMarketCmd.Flags().Uint64Var(&createMarketID, "id", 0, "Unique market id")
	createMarketCmd.Flags().StringVarP(&createMarketQuestion, "question", "q", "", "Market question (max 200 chars)")
	createMarketCmd.Flags().StringVarP(&createMarketDeadline, "deadline", "d", "", "Betting deadline (RFC3339 or duration like 72h)")
	_ = createMarketCmd.MarkFlagRequired("question")
	_ = createMarketCmd.MarkFlagRequired("deadline")
}

func runCreateMarket(cmd *cobra.Command, args []string) error {
	priv, err := signerKey()
	if err != nil {
		return err
	}

	deadline, err := parseDeadline(createMarketDeadline)
	if err != nil {
		return err
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	m, err := env.engine.CreateMarket(context.Background(), identity.Address(priv), createMarketID, createMarketQuestion, deadline)
	if err != nil {
		return fmt.Errorf("create market: %w", err)
	}

	return printResult(m)
}
