package main

import (
	"os"

	"github.com/spf13/cobra"

	"chartly/internal/interfaces/cli/migrate"
	"chartly/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartly",
		Short: "Chartly billing and entitlement gateway",
		Long:  `Chartly keeps payment processor state, entitlements and usage metering in agreement, and fronts the metered chart-analysis API.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
