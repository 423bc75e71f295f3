package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftgate/gateway/internal/domain"
)

type generateFlags struct {
	prompt        string
	promptFile    string
	outputFile    string
	contextFiles  []string
	forceProvider string
	forceModel    string
	workload      string
	complexity    string
	quality       string
	speed         string
	guardrail     string
	format        string
	emitMetadata  bool
	verbose       bool
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Produce a completion via the router",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.prompt, "prompt", "", "prompt text (inline)")
	flags.StringVar(&f.promptFile, "prompt-file", "", "read prompt from file instead of --prompt")
	flags.StringVar(&f.outputFile, "output", "", "write response content to file instead of stdout")
	flags.StringSliceVar(&f.contextFiles, "context-file", nil, "file(s) appended to the prompt under a header, repeatable")
	flags.StringVar(&f.forceProvider, "force-provider", "", "force a specific provider (hard hint)")
	flags.StringVar(&f.forceModel, "force-model", "", "force a specific model (hard hint)")
	flags.StringVar(&f.workload, "workload", "", "workload tag: chat|code|summarization|extraction|creative|classification")
	flags.StringVar(&f.complexity, "complexity", "", "soft hint: low|medium|high")
	flags.StringVar(&f.quality, "quality", "", "soft hint: standard|balanced|premium")
	flags.StringVar(&f.speed, "speed", "", "soft hint: fast|normal")
	flags.StringVar(&f.guardrail, "guardrail", "", "soft hint: strict|lenient")
	flags.StringVar(&f.format, "format", "text", "output format: text|markdown|json")
	flags.BoolVar(&f.emitMetadata, "emit-metadata", false, "include provider/model/latency alongside content")
	flags.BoolVar(&f.verbose, "verbose", false, "print every attempt, not just the winner")
	return cmd
}

func runGenerate(cmd *cobra.Command, f generateFlags) error {
	prompt, err := resolvePrompt(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	req := domain.Request{Prompt: prompt, Model: f.forceModel}
	hints := &domain.Hints{
		Complexity: domain.Complexity(f.complexity),
		Quality:    domain.Quality(f.quality),
		Speed:      domain.Speed(f.speed),
		Guardrail:  domain.Guardrail(f.guardrail),
	}
	if f.forceProvider != "" {
		p, ok := domain.ParseProvider(f.forceProvider)
		if !ok {
			return fmt.Errorf("unknown provider %q", f.forceProvider)
		}
		hints.Provider = p
	}
	if f.workload != "" {
		w, ok := domain.ParseWorkload(f.workload)
		if !ok {
			return fmt.Errorf("unknown workload %q", f.workload)
		}
		hints.Workload = w
	}
	req.Hints = hints

	resp, err := a.Router.Generate(ctx, req)
	if err != nil {
		return err
	}

	if f.verbose {
		for _, at := range resp.Attempts {
			fmt.Fprintf(cmd.ErrOrStderr(), "attempt: provider=%s model=%s success=%t latency_ms=%d error=%s\n",
				at.Provider, at.Model, at.Success, at.LatencyMs, at.ErrorKind)
		}
	}

	out, err := formatGenerateOutput(f, resp)
	if err != nil {
		return err
	}

	if f.outputFile != "" {
		return os.WriteFile(f.outputFile, []byte(out), 0o644)
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func resolvePrompt(f generateFlags) (string, error) {
	var sb strings.Builder
	switch {
	case f.promptFile != "":
		data, err := os.ReadFile(f.promptFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		sb.Write(data)
	case f.prompt != "":
		sb.WriteString(f.prompt)
	default:
		return "", fmt.Errorf("one of --prompt or --prompt-file is required")
	}

	for _, path := range f.contextFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read context file %s: %w", path, err)
		}
		sb.WriteString(fmt.Sprintf("\n\n--- context: %s ---\n", path))
		sb.Write(data)
	}
	return sb.String(), nil
}

func formatGenerateOutput(f generateFlags, resp domain.Response) (string, error) {
	switch f.format {
	case "json":
		payload := map[string]any{"content": resp.Content}
		if f.emitMetadata {
			payload["provider"] = resp.Provider
			payload["model"] = resp.Model
			payload["latency_ms"] = resp.LatencyMs
		}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "markdown":
		var sb strings.Builder
		sb.WriteString(resp.Content)
		sb.WriteString("\n")
		if f.emitMetadata {
			sb.WriteString(fmt.Sprintf("\n---\n*provider: %s, model: %s, latency: %dms*\n", resp.Provider, resp.Model, resp.LatencyMs))
		}
		return sb.String(), nil
	case "text", "":
		var sb strings.Builder
		sb.WriteString(resp.Content)
		sb.WriteString("\n")
		if f.emitMetadata {
			sb.WriteString(fmt.Sprintf("provider=%s model=%s latency_ms=%d\n", resp.Provider, resp.Model, resp.LatencyMs))
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unknown output format %q", f.format)
	}
}
