package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/privymarket/settlement/internal/identity"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new caller keypair",
	Long: `Generates a fresh secp256k1 keypair. Put the private key in .env as
` + identity.PrivateKeyEnv + ` to sign settlement operations; the
address is your caller identity on the ledger.`,
	RunE: runKeygen,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	priv, err := identity.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	fmt.Printf("%s=%x\n", identity.PrivateKeyEnv, crypto.FromECDSA(priv))
	fmt.Printf("address=%s\n", identity.Address(priv).Hex())
	return nil
}
