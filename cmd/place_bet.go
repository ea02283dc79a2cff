package cmd

import (
	"context"
	"fmt"

	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/identity"
	"github.com/privymarket/settlement/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var placeBetCmd = &cobra.Command{
	Use:   "place-bet",
	Short: "Stake on a market under a hidden commitment",
	Long: `Escrows a stake into the market vault. Only the commitment digest is
stored on the ledger; your chosen side stays hidden until you claim.

A fresh secret is generated unless --secret is given. SAVE THE PRINTED
SECRET: without it the stake can never be claimed.

Example usage:
  place-bet --market 1 --amount 100 --side yes`,
	RunE: runPlaceBet,
}

var (
	betMarketID  uint64
	betAmount    uint64
	betSide      string
	betSecretHex string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(placeBetCmd)

	placeBetCmd.Flags().Uint64VarP(&betMarketID, "market", "m", 0, "Market id")
	placeBetCmd.Flags().Uint64VarP(&betAmount, "amount", "a", 0, "Stake amount (must be > 0)")
	placeBetCmd.Flags().StringVarP(&betSide, "side", "s", "", "Hidden side: yes or no")
	placeBetCmd.Flags().StringVar(&betSecretHex, "secret", "", "32-byte hex secret (generated when omitted)")
	_ = placeBetCmd.MarkFlagRequired("market")
	_ = placeBetCmd.MarkFlagRequired("amount")
	_ = placeBetCmd.MarkFlagRequired("side")
}

func runPlaceBet(cmd *cobra.Command, args []string) error {
	priv, err := signerKey()
	if err != nil {
		return err
	}

	side, err := types.ParseSide(betSide)
	if err != nil {
		return err
	}

	var secret types.Secret
	if betSecretHex != "" {
		if err := secret.UnmarshalText([]byte(betSecretHex)); err != nil {
			return err
		}
	} else {
		secret, err = engine.NewSecret()
		if err != nil {
			return err
		}
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	commitment := engine.ComputeCommitment(secret, side)

	p, err := env.engine.PlaceBet(context.Background(), identity.Address(priv), betMarketID, commitment, betAmount)
	if err != nil {
		return fmt.Errorf("place bet: %w", err)
	}

	fmt.Printf("secret=%s  (save this; it is required to claim)\n", secret)
	return printResult(p)
}
