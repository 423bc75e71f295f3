package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/driftgate/gateway/internal/domain"
)

func newAddServiceCmd() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "add-service <provider>",
		Short: "Store a provider credential (token read from a hidden prompt)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := domain.ParseProvider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			token, err := readHiddenToken(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var override *string
			if baseURL != "" {
				override = &baseURL
			}
			if err := a.Credentials.Put(ctx, p, token, override); err != nil {
				return err
			}
			if err := a.RebuildAdapters(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential stored for %s\n", p)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override the provider's default base URL")
	return cmd
}

func newRemoveServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-service <provider>",
		Short: "Delete a stored provider credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := domain.ParseProvider(args[0])
			if !ok {
				return fmt.Errorf("unknown provider %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Credentials.Delete(ctx, p); err != nil {
				return err
			}
			if err := a.RebuildAdapters(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential removed for %s\n", p)
			return nil
		},
	}
}

func newListServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-services",
		Short: "List providers with a stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			providers, err := a.Credentials.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER")
			for _, p := range providers {
				fmt.Fprintln(tw, p)
			}
			return tw.Flush()
		},
	}
}

// readHiddenToken reads a secret from stdin without echoing it, the way
// an interactive credential prompt should; falls back to a visible
// Scanln when stdin isn't a terminal (e.g. piped input in scripts/tests).
func readHiddenToken(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "token: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(b), nil
	}
	var token string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &token); err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}
