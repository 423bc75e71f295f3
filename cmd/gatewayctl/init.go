package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/domain"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively configure provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Gateway setup. Press enter to skip a provider.")

			for _, p := range domain.AllProviders {
				fmt.Fprintf(out, "%s ", p)
				token, err := readHiddenToken(cmd)
				if err != nil {
					return fmt.Errorf("read token for %s: %w", p, err)
				}
				if token == "" {
					continue
				}
				if err := a.Credentials.Put(ctx, p, token, nil); err != nil {
					return fmt.Errorf("store %s credential: %w", p, err)
				}
				fmt.Fprintf(out, "  stored credential for %s\n", p)
			}

			if err := a.RebuildAdapters(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "setup complete.")
			return nil
		},
	}
}
