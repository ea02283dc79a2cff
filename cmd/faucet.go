package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privymarket/settlement/internal/identity"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Credit a ledger account (local/dev ledgers)",
	Long: `Credits an account balance so it can place bets. Development helper
for the bundled ledger backends; production deployments fund accounts
on the host ledger instead.

Example usage:
  faucet --amount 1000                   # fund your own address
  faucet --amount 500 --address 0xabc...`,
	RunE: runFaucet,
}

var (
	faucetAmount  uint64
	faucetAddress string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(faucetCmd)

	faucetCmd.Flags().Uint64VarP(&faucetAmount, "amount", "a", 0, "Amount to credit")
	faucetCmd.Flags().StringVar(&faucetAddress, "address", "", "Account address (defaults to your signer address)")
	_ = faucetCmd.MarkFlagRequired("amount")
}

func runFaucet(cmd *cobra.Command, args []string) error {
	var addr common.Address
	if faucetAddress != "" {
		if !common.IsHexAddress(faucetAddress) {
			return fmt.Errorf("invalid address %q", faucetAddress)
		}
		addr = common.HexToAddress(faucetAddress)
	} else {
		priv, err := signerKey()
		if err != nil {
			return err
		}
		addr = identity.Address(priv)
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	err = env.engine.Deposit(context.Background(), addr, faucetAmount)
	if err != nil {
		return fmt.Errorf("faucet credit: %w", err)
	}

	balance, err := env.engine.Balance(context.Background(), addr)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}

	fmt.Printf("address=%s balance=%d\n", addr.Hex(), balance)
	return nil
}
