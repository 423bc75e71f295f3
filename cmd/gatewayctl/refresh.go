package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/domain"
)

func newRefreshModelsCmd() *cobra.Command {
	var provider, workload string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "refresh-models",
		Short: "Ask the router for catalog-update suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := domain.ParseProvider(provider)
			if !ok {
				return fmt.Errorf("unknown provider %q", provider)
			}
			w, ok := domain.ParseWorkload(workload)
			if !ok {
				return fmt.Errorf("unknown workload %q", workload)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			result, err := a.Refresh.Run(ctx, p, w, dryRun)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "considered %d suggestion(s), %d valid, %d rejected\n",
				result.Considered, len(result.Suggestions), len(result.Rejected))
			for _, s := range result.Suggestions {
				fmt.Fprintf(cmd.OutOrStdout(), "  + %s/%s (%s): %s\n", s.Provider, s.Model, s.Workload, s.Rationale)
			}
			for _, r := range result.Rejected {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s (workload=%q): %s\n", r.Model, r.Workload, r.Reason)
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "dry-run: nothing persisted")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d row(s)\n", result.Inserted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider to refresh (required)")
	cmd.Flags().StringVar(&workload, "workload", "", "workload to refresh (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute suggestions without persisting them")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("workload")
	return cmd
}
