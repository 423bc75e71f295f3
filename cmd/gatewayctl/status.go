package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/health"
)

func newStatusCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print provider health snapshot(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tSTATUS\tCONSECUTIVE_FAILURES\tLAST_ERROR\tNEXT_RETRY_AT")

			if provider != "" {
				p, ok := domain.ParseProvider(provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				s, err := a.Health.Snapshot(ctx, p)
				if err != nil {
					return err
				}
				printStatusRow(tw, s)
				return tw.Flush()
			}

			all, err := a.Health.SnapshotAll(ctx)
			if err != nil {
				return err
			}
			for _, s := range all {
				printStatusRow(tw, s)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "limit to a single provider")
	return cmd
}

func printStatusRow(tw *tabwriter.Writer, s health.State) {
	lastError := string(s.LastErrorKind)
	if lastError == "" {
		lastError = "-"
	}
	nextRetry := "-"
	if s.NextRetryAt != nil {
		nextRetry = s.NextRetryAt.Format(time.RFC3339)
	}
	fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Provider, s.Status, s.ConsecutiveFailures, lastError, nextRetry)
}
