package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/catalog"
	"github.com/driftgate/gateway/internal/domain"
)

func newListModelsCmd() *cobra.Command {
	var provider, workload string
	var includeSuggestions bool
	cmd := &cobra.Command{
		Use:   "list-models",
		Short: "List active catalog entries, optionally including pending suggestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var p domain.Provider
			if provider != "" {
				parsed, ok := domain.ParseProvider(provider)
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				p = parsed
			}
			var w domain.Workload
			if workload != "" {
				parsed, ok := domain.ParseWorkload(workload)
				if !ok {
					return fmt.Errorf("unknown workload %q", workload)
				}
				w = parsed
			}

			var entries []catalog.Entry
			switch {
			case p != "" && w != "":
				entries, err = a.Catalog.Active(ctx, p, w)
			case w != "":
				entries, err = a.Catalog.ActiveForWorkload(ctx, w)
			case p != "":
				grouped, gerr := a.Catalog.ActiveAll(ctx, p)
				err = gerr
				for _, es := range grouped {
					entries = append(entries, es...)
				}
			default:
				for _, pp := range domain.AllProviders {
					grouped, gerr := a.Catalog.ActiveAll(ctx, pp)
					if gerr != nil {
						return gerr
					}
					for _, es := range grouped {
						entries = append(entries, es...)
					}
				}
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tWORKLOAD\tMODEL\tSTATUS\tPRIORITY\tRATIONALE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", e.Provider, e.Workload, e.Model, e.Status, e.Priority, e.Rationale)
			}
			if includeSuggestions {
				suggestions, err := a.Catalog.Suggestions(ctx, p, w, "pending")
				if err != nil {
					return err
				}
				for _, s := range suggestions {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t-\t%s\n", s.Provider, s.Workload, s.Model, s.Status, s.Rationale)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "limit to a single provider")
	cmd.Flags().StringVar(&workload, "workload", "", "limit to a single workload")
	cmd.Flags().BoolVar(&includeSuggestions, "include-suggestions", false, "also list pending suggestions")
	return cmd
}

func newAdoptModelCmd() *cobra.Command {
	var workload string
	var priority int
	var rationale string
	cmd := &cobra.Command{
		Use:   "adopt-model <provider> <model>",
		Short: "Promote a model to an active catalog entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := domain.ParseProvider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			w, ok := domain.ParseWorkload(workload)
			if !ok {
				return fmt.Errorf("unknown workload %q", workload)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Catalog.Adopt(ctx, p, args[1], w, priority, rationale); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "adopted %s/%s for %s at priority %d\n", p, args[1], w, priority)
			return nil
		},
	}
	cmd.Flags().StringVar(&workload, "workload", "", "workload tag (required)")
	cmd.Flags().IntVar(&priority, "priority", 50, "ascending priority; lower attempted first")
	cmd.Flags().StringVar(&rationale, "rationale", "", "human-readable justification")
	_ = cmd.MarkFlagRequired("workload")
	return cmd
}
