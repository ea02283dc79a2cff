package cmd

import (
	"context"
	"fmt"

	"github.com/privymarket/settlement/internal/identity"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the authority with your key as admin",
	Long: `Creates the singleton authority record. The address derived from
` + identity.PrivateKeyEnv + ` becomes the admin permitted to create
and resolve markets. Succeeds at most once per ledger.`,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	priv, err := signerKey()
	if err != nil {
		return err
	}

	env, err := openOpEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	a, err := env.engine.Initialize(context.Background(), identity.Address(priv))
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return printResult(a)
}
