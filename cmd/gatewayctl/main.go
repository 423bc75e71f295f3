// Command gatewayctl is the CLI described in SPEC_FULL.md §6: generate,
// add-service, remove-service, list-services, status, list-models,
// adopt-model, refresh-models, init. Unlike the teacher's tokenhubctl (a
// thin HTTP client against a running server's admin API), this CLI links
// the router/catalog/health/credential packages directly and drives them
// in-process, per §6's explicit redesign note.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/app"
	"github.com/driftgate/gateway/internal/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "gatewayctl",
		Short:         "Operate the multi-provider AI gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenerateCmd(),
		newAddServiceCmd(),
		newRemoveServiceCmd(),
		newListServicesCmd(),
		newStatusCmd(),
		newListModelsCmd(),
		newAdoptModelCmd(),
		newRefreshModelsCmd(),
		newInitCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// openApp loads config and wires a full app.App for one CLI invocation. The
// caller is responsible for closing it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return a, nil
}
