package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "settlementd",
	Short: "Commit-reveal prediction market settlement engine",
	Long: `Settlement engine for binary-outcome prediction markets built on a
commit-reveal scheme: bettors commit to a hidden yes/no choice, stakes
pool in a per-market vault without revealing the side, the authority
resolves the outcome after the deadline, and winners reveal their
secret to claim a pari-mutuel payout.

Run 'serve' for the HTTP API, or use the subcommands to execute single
settlement operations against the configured ledger.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
