// Package refresh implements the catalog-update suggestion job described in
// SPEC_FULL.md §4.8: collect active entries and usage stats for a
// (provider, workload), ask the router itself for JSON recommendations, and
// insert the entries that parse and name a valid workload. Grounded on the
// teacher's internal/router/thompson_refresh.go self-referential "call the
// engine to improve the engine" shape, repurposed from bandit-parameter
// refresh to catalog-suggestion refresh — this package calls router.Generate
// exactly the way a normal caller would, with a workload hint of its own.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftgate/gateway/internal/catalog"
	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/events"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/router"
	"github.com/driftgate/gateway/internal/usage"
)

// refreshWorkload is the workload the refresh job itself runs under; it is
// independent of the (provider, workload) pair being refreshed.
const refreshWorkload = domain.Chat

// suggestionSchema is the fixed JSON schema the refresh prompt demands, per
// spec.md §4.8 step 3.
const suggestionSchema = `{"suggestions": [{"model": string, "workload": string, "rationale": string, "production_ready": bool, "notes": string?, "metadata": object?}]}`

// Result summarizes one refresh run for the CLI and the events.Bus.
type Result struct {
	Provider    domain.Provider
	Workload    domain.Workload
	Considered  int
	Suggestions []catalog.Suggestion
	Rejected    []RejectedSuggestion
	Inserted    int
	DryRun      bool
}

// RejectedSuggestion records a suggestion that parsed but named an invalid
// workload tag, so the CLI can report exactly what was dropped and why.
type RejectedSuggestion struct {
	Model    string
	Workload string
	Reason   string
}

// rawSuggestion is the on-the-wire shape the router's content is parsed as.
type rawSuggestion struct {
	Model           string            `json:"model"`
	Workload        string            `json:"workload"`
	Rationale       string            `json:"rationale"`
	ProductionReady bool              `json:"production_ready"`
	Notes           string            `json:"notes,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type rawResponse struct {
	Suggestions []rawSuggestion `json:"suggestions"`
}

// Job runs refresh operations against a catalog, usage logger and router.
// bus may be nil, in which case no refresh_completed event is published.
type Job struct {
	catalog *catalog.Catalog
	usage   *usage.Logger
	router  *router.Router
	bus     *events.Bus
}

// New builds a refresh Job.
func New(cat *catalog.Catalog, usageLogger *usage.Logger, r *router.Router, bus *events.Bus) *Job {
	return &Job{catalog: cat, usage: usageLogger, router: r, bus: bus}
}

// Run executes the four-step algorithm from SPEC_FULL.md §4.8: collect,
// build context, invoke the router, parse and filter. In dry-run mode
// nothing is persisted.
func (j *Job) Run(ctx context.Context, provider domain.Provider, workload domain.Workload, dryRun bool) (Result, error) {
	active, err := j.catalog.Active(ctx, provider, workload)
	if err != nil {
		return Result{}, err
	}

	models := make([]string, 0, len(active))
	for _, e := range active {
		models = append(models, e.Model)
	}
	stats, err := j.usage.Stats(ctx, provider, models)
	if err != nil {
		return Result{}, err
	}

	prompt := buildPrompt(provider, workload, active, stats)

	resp, err := j.router.Generate(ctx, domain.Request{
		Prompt: prompt,
		Hints:  &domain.Hints{Workload: refreshWorkload},
	})
	if err != nil {
		return Result{}, err
	}

	raw, err := parseSuggestions(resp.Content)
	if err != nil {
		return Result{}, gwerrors.SuggestionParseError(err)
	}

	result := Result{Provider: provider, Workload: workload, Considered: len(raw.Suggestions), DryRun: dryRun}
	valid := make([]catalog.Suggestion, 0, len(raw.Suggestions))
	for _, s := range raw.Suggestions {
		w, ok := domain.ParseWorkload(s.Workload)
		if !ok {
			result.Rejected = append(result.Rejected, RejectedSuggestion{
				Model: s.Model, Workload: s.Workload, Reason: "unknown workload tag",
			})
			continue
		}
		meta := s.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		if s.Notes != "" {
			meta["notes"] = s.Notes
		}
		meta["production_ready"] = fmt.Sprintf("%t", s.ProductionReady)
		valid = append(valid, catalog.Suggestion{
			Provider:  provider,
			Workload:  w,
			Model:     s.Model,
			Status:    "pending",
			Rationale: s.Rationale,
			Metadata:  meta,
		})
	}
	result.Suggestions = valid

	if !dryRun && len(valid) > 0 {
		n, err := j.catalog.InsertSuggestions(ctx, valid)
		if err != nil {
			return Result{}, err
		}
		result.Inserted = n
	}

	if j.bus != nil {
		j.bus.Publish(events.Event{
			Type:       events.EventRefreshComplete,
			Workload:   string(workload),
			Considered: result.Considered,
			Inserted:   result.Inserted,
			DryRun:     dryRun,
		})
	}

	return result, nil
}

func buildPrompt(provider domain.Provider, workload domain.Workload, active []catalog.Entry, stats any) string {
	var sb strings.Builder
	sb.WriteString("You are maintaining a routing catalog for an AI gateway. ")
	sb.WriteString(fmt.Sprintf("Provider: %s. Workload: %s.\n", provider, workload))
	sb.WriteString("Current active models:\n")
	for _, e := range active {
		sb.WriteString(fmt.Sprintf("- %s (priority %d, status %s)\n", e.Model, e.Priority, e.Status))
	}
	sb.WriteString(fmt.Sprintf("Usage statistics: %+v\n", stats))
	sb.WriteString("Recommend replacement or additional models for this provider and workload. ")
	sb.WriteString("Respond with JSON only, matching this schema exactly: ")
	sb.WriteString(suggestionSchema)
	return sb.String()
}

func parseSuggestions(content string) (rawResponse, error) {
	var out rawResponse
	content = strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return rawResponse{}, fmt.Errorf("refresh: decode suggestions: %w", err)
	}
	return out, nil
}
