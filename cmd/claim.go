package cmd

import (
	"context"
	"fmt"

	"github.com/privymarket/settlement/internal/identity"
	"github.com/privymarket/settlement/pkg/types"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Reveal your secret and claim winnings",
	Long: `Reveals the secret behind your commitment. If the revealed side
matches the resolved outcome, your stake plus a pari-mutuel share of
the losing pool is paid out from the market vault.

Example usage:
  claim --market 1 --side yes --secret <hex from place-bet>`,
	RunE: runClaim,
}

var (
	claimMarketID  uint64
	claimSide      string
	claimSecretHex string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(claimCmd)

	claimCmd.Flags().Uint64VarP(&claimMarketID, "market", "m", 0, "Market id")
	claimCmd.Flags().StringVarP(&claimSide, "side", "s", "", "The side you committed to: yes or no")
	claimCmd.Flags().StringVar(&claimSecretHex, "secret", "", "32-byte hex secret from place-bet")
	_ = claimCmd.MarkFlagRequired("market")
	_ = claimCmd.MarkFlagRequired("side")
	_ = claimCmd.MarkFlagRequired("secret")
}

func runClaim(cmd *cobra.Command, args []string) error {
	priv, err := signerKey()
	if err != nil {
		return err
	}

	side, err := types.ParseSide(claimSide)
	if err != nil {
		return err
	}

	var secret types.Secret
	if err := secret.UnmarshalText([]byte(claimSecretHex)); err != nil {
		return err
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	receipt, err := env.engine.ClaimWinnings(context.Background(), identity.Address(priv), claimMarketID, secret, side)
	if err != nil {
		return fmt.Errorf("claim winnings: %w", err)
	}

	return printResult(receipt)
}
