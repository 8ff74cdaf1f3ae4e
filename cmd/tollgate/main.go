package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/tollgate/internal/interfaces/cli/migrate"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/server"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/user"
	"github.com/orris-inc/tollgate/internal/interfaces/cli/worker"
	"github.com/orris-inc/tollgate/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tollgate",
		Short:        "Tollgate - Stripe billing reconciliation",
		Long:         `Tollgate keeps subscriptions and credit balances in step with Stripe: an HTTP API with webhook intake, a background worker and administrative commands.`,
		SilenceUsage: true,
		Version:      version.String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		user.NewCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "tollgate "+version.String())
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
