package cmds

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/webex-cdr-support/internal/config"
)

// getProviders loads the configuration and wires the application
// providers for a CLI invocation.
func getProviders(ctx context.Context, cmd *cobra.Command) *config.Providers {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfig(ctx, path)
	if err != nil {
		logrus.Fatalf("failed to load configuration: %s", err)
	}

	providers, err := config.NewProviders(ctx, *cfg)
	if err != nil {
		logrus.Fatalf("failed to prepare providers: %s", err)
	}

	return providers
}
