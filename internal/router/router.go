// Package router is the single point that turns a domain.Request into a
// domain.Response, per SPEC_FULL.md §4.7: candidate construction, health
// filtering, the sequential per-attempt loop, and fallback across
// providers. Structurally grounded on the teacher's internal/router/
// engine.go (a sync.RWMutex-guarded adapter map built once and rebuilt
// atomically on credential mutation, a per-attempt context.WithTimeout),
// with the teacher's cost/latency scoring and Thompson-sampling bandit
// machinery replaced entirely by this spec's own deterministic
// priority-then-fallback-order candidate ordering — this spec has no
// scoring mode, only a fixed catalog priority and a fixed tiebreak.
package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/driftgate/gateway/internal/catalog"
	"github.com/driftgate/gateway/internal/credentials"
	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
	"github.com/driftgate/gateway/internal/health"
	"github.com/driftgate/gateway/internal/metrics"
	"github.com/driftgate/gateway/internal/providers"
	"github.com/driftgate/gateway/internal/providers/anthropic"
	"github.com/driftgate/gateway/internal/providers/cohere"
	"github.com/driftgate/gateway/internal/providers/deepseek"
	"github.com/driftgate/gateway/internal/providers/google"
	"github.com/driftgate/gateway/internal/providers/groq"
	"github.com/driftgate/gateway/internal/providers/huggingface"
	"github.com/driftgate/gateway/internal/providers/openai"
	"github.com/driftgate/gateway/internal/providers/together"
	"github.com/driftgate/gateway/internal/usage"
)

// DefaultAttemptTimeout is the per-attempt upstream call budget used when
// Config.AttemptTimeout is zero.
const DefaultAttemptTimeout = 60 * time.Second

// Config carries the router's tunables. The zero value is valid; zero
// fields take their documented defaults.
type Config struct {
	// AttemptTimeout bounds a single upstream call. Zero means
	// DefaultAttemptTimeout.
	AttemptTimeout time.Duration
	// BaseURLDefaults supplies the config-file base URL for a provider, used
	// as the middle tier of credentials.Store.ResolveBaseURL's precedence.
	BaseURLDefaults map[domain.Provider]string
}

// Router owns the adapter map and dispatches generation requests against
// it. Safe for concurrent use: readers take a consistent snapshot of the
// adapter map and fallback order once per request.
type Router struct {
	catalog *catalog.Catalog
	health  *health.Tracker
	usage   *usage.Logger
	creds   *credentials.Store
	client  *http.Client
	metrics *metrics.Registry
	cfg     Config

	adapters atomicAdapters
}

// New builds a Router. The adapter map starts empty; call RebuildAdapters
// before serving requests (and again after any credential mutation). reg may
// be nil, in which case per-attempt metrics are simply not observed (used by
// tests that don't care about the Prometheus surface).
func New(cat *catalog.Catalog, healthTracker *health.Tracker, usageLogger *usage.Logger, creds *credentials.Store, client *http.Client, reg *metrics.Registry, cfg Config) *Router {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Router{catalog: cat, health: healthTracker, usage: usageLogger, creds: creds, client: client, metrics: reg, cfg: cfg}
}

// vendorDefaultBaseURL returns each adapter package's own compiled-in
// default, the bottom tier of resolve_base_url's precedence.
func vendorDefaultBaseURL(p domain.Provider) string {
	switch p {
	case domain.Groq:
		return groq.DefaultBaseURL
	case domain.DeepSeek:
		return deepseek.DefaultBaseURL
	case domain.Together:
		return together.DefaultBaseURL
	case domain.Google:
		return google.DefaultBaseURL
	case domain.HuggingFace:
		return huggingface.DefaultBaseURL
	case domain.OpenAI:
		return openai.DefaultBaseURL
	case domain.Anthropic:
		return anthropic.DefaultBaseURL
	case domain.Cohere:
		return cohere.DefaultBaseURL
	default:
		return ""
	}
}

func buildAdapter(p domain.Provider, apiKey, baseURL string, client *http.Client) providers.Adapter {
	switch p {
	case domain.Groq:
		return groq.New(apiKey, baseURL, client)
	case domain.DeepSeek:
		return deepseek.New(apiKey, baseURL, client)
	case domain.Together:
		return together.New(apiKey, baseURL, client)
	case domain.Google:
		return google.New(apiKey, baseURL, client)
	case domain.HuggingFace:
		return huggingface.New(apiKey, baseURL, client)
	case domain.OpenAI:
		return openai.New(apiKey, baseURL, client)
	case domain.Anthropic:
		return anthropic.New(apiKey, baseURL, client)
	case domain.Cohere:
		return cohere.New(apiKey, baseURL, client)
	default:
		return nil
	}
}

// RebuildAdapters materializes one adapter per provider with stored
// credentials and atomically swaps them in. fallback_order is derived from
// domain.AllProviders' fixed enum order filtered to configured providers,
// which is what makes it "deterministic across restarts given the same
// configuration" per SPEC_FULL.md §4.7.
func (r *Router) RebuildAdapters(ctx context.Context) error {
	next := map[domain.Provider]providers.Adapter{}
	order := make([]domain.Provider, 0, len(domain.AllProviders))

	for _, p := range domain.AllProviders {
		token, ok, err := r.creds.GetToken(ctx, p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		baseURL, err := r.creds.ResolveBaseURL(ctx, p, r.cfg.BaseURLDefaults[p], vendorDefaultBaseURL(p))
		if err != nil {
			return err
		}
		a := buildAdapter(p, token, baseURL, r.client)
		if a == nil {
			continue
		}
		next[p] = a
		order = append(order, p)
	}

	r.adapters.store(next, order)
	return nil
}

// candidate is one (provider, model) pair under consideration.
type candidate struct {
	provider domain.Provider
	model    string
}

// candidates implements SPEC_FULL.md §4.7's four-branch construction. It
// returns the unfiltered ordered list and whether the request carries a
// hard provider hint (which bypasses health filtering, but never missing
// credentials — callers must have already checked the adapter exists).
func (r *Router) candidates(ctx context.Context, req domain.Request, adapters map[domain.Provider]providers.Adapter, order []domain.Provider) ([]candidate, error) {
	workload := req.Workload()

	if req.Hints.HasHardProvider() {
		p := req.Hints.Provider
		entries, err := r.catalog.Active(ctx, p, workload)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			cands := make([]candidate, 0, len(entries))
			for _, e := range entries {
				cands = append(cands, candidate{provider: p, model: e.Model})
			}
			return cands, nil
		}
		model := req.Model
		if model == "" {
			if seed, ok := r.catalog.SeedModel(p, workload); ok {
				model = seed
			}
		}
		if model == "" {
			return nil, nil
		}
		return []candidate{{provider: p, model: model}}, nil
	}

	if req.HasHardModel() {
		entries, err := r.catalog.ActiveForModel(ctx, workload, req.Model)
		if err != nil {
			return nil, err
		}
		return filterAndOrder(entries, adapters, order), nil
	}

	entries, err := r.catalog.ActiveForWorkload(ctx, workload)
	if err != nil {
		return nil, err
	}
	return filterAndOrder(entries, adapters, order), nil
}

// filterAndOrder drops entries whose provider has no configured adapter and
// sorts the remainder by ascending priority, breaking ties by fallback_order.
func filterAndOrder(entries []catalog.Entry, adapters map[domain.Provider]providers.Adapter, order []domain.Provider) []candidate {
	fallbackIndex := make(map[domain.Provider]int, len(order))
	for i, p := range order {
		fallbackIndex[p] = i
	}

	cands := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if _, ok := adapters[e.Provider]; !ok {
			continue
		}
		cands = append(cands, candidate{provider: e.Provider, model: e.Model})
	}

	priority := make(map[candidate]int, len(entries))
	for _, e := range entries {
		priority[candidate{provider: e.Provider, model: e.Model}] = e.Priority
	}

	sort.SliceStable(cands, func(i, j int) bool {
		pi, pj := priority[cands[i]], priority[cands[j]]
		if pi != pj {
			return pi < pj
		}
		return fallbackIndex[cands[i].provider] < fallbackIndex[cands[j].provider]
	})
	return cands
}

// Generate is the router's single public entry point: it turns req into a
// Response, trying candidates in order until one succeeds or the list (or a
// request-level deadline) is exhausted.
func (r *Router) Generate(ctx context.Context, req domain.Request) (domain.Response, error) {
	if req.Prompt == "" {
		return domain.Response{}, gwerrors.InvalidRequest("prompt must not be empty")
	}

	adapters, order := r.adapters.load()

	hardProvider := req.Hints.HasHardProvider()
	if hardProvider {
		if _, ok := adapters[req.Hints.Provider]; !ok {
			return domain.Response{}, gwerrors.ProviderNotConfigured(req.Hints.Provider)
		}
	}

	cands, err := r.candidates(ctx, req, adapters, order)
	if err != nil {
		return domain.Response{}, err
	}

	if !hardProvider {
		cands, err = r.filterEligible(ctx, cands)
		if err != nil {
			return domain.Response{}, err
		}
	}

	if len(cands) == 0 {
		return domain.Response{}, gwerrors.NoAvailableProvider("no candidate providers are eligible for this request")
	}

	return r.attemptLoop(ctx, req, cands)
}

// filterEligible drops candidates whose provider health is not eligible,
// taking one consistent health snapshot per provider at the start of
// candidate construction (SPEC_FULL.md §5: "a single consistent snapshot
// per request").
func (r *Router) filterEligible(ctx context.Context, cands []candidate) ([]candidate, error) {
	now := time.Now().UTC()
	snapshots := map[domain.Provider]bool{}
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		eligible, ok := snapshots[c.provider]
		if !ok {
			state, err := r.health.Snapshot(ctx, c.provider)
			if err != nil {
				return nil, err
			}
			eligible = state.Eligible(now)
			snapshots[c.provider] = eligible
		}
		if eligible {
			out = append(out, c)
		}
	}
	return out, nil
}

// attemptLoop is the sequential per-request dispatch loop described in
// SPEC_FULL.md §4.7's Attempt loop and §5's "at most one upstream call
// outstanding per request".
func (r *Router) attemptLoop(ctx context.Context, req domain.Request, cands []candidate) (domain.Response, error) {
	attempts := make([]domain.AttemptRecord, 0, len(cands))
	modelForced := req.HasHardModel()

	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return domain.Response{}, gwerrors.DeadlineExceeded(attempts)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		start := time.Now()
		adapter := r.adapterFor(c.provider)
		content, genErr := adapter.Generate(attemptCtx, c.model, req.Prompt)
		latency := time.Since(start)
		cancel()

		if genErr == nil {
			r.recordUsage(ctx, c, true, latency, "")
			_ = r.health.RecordSuccess(ctx, c.provider)
			attempts = append(attempts, domain.AttemptRecord{
				Provider: c.provider, Model: c.model, Success: true, LatencyMs: latency.Milliseconds(),
			})
			return domain.Response{
				Provider: c.provider, Model: c.model, Content: content,
				LatencyMs: latency.Milliseconds(), Attempts: attempts,
			}, nil
		}

		kind := providers.Classify(genErr, modelForced)
		r.recordUsage(ctx, c, false, latency, genErr.Error())
		_ = r.health.RecordFailure(ctx, c.provider, kind, genErr.Error())
		attempts = append(attempts, domain.AttemptRecord{
			Provider: c.provider, Model: c.model, Success: false, LatencyMs: latency.Milliseconds(),
			ErrorKind: kind, ErrorMessage: genErr.Error(),
		})

		if ctx.Err() != nil {
			return domain.Response{}, gwerrors.DeadlineExceeded(attempts)
		}
		if kind == domain.ErrClientError {
			// Explicit client-input error: inherent to the request, not the
			// provider. Stop rather than burn the fallback budget on
			// candidates that would fail identically.
			break
		}
	}

	return domain.Response{}, gwerrors.AllProvidersFailed(attempts)
}

func (r *Router) recordUsage(ctx context.Context, c candidate, success bool, latency time.Duration, errMsg string) {
	_ = r.usage.Record(ctx, usage.Record{
		Provider: c.provider, Model: c.model, Success: success,
		LatencyMs: latency.Milliseconds(), ErrorMessage: errMsg,
	})
	if r.metrics != nil {
		r.metrics.ObserveAttempt(c.provider, c.model, success, latency.Milliseconds())
	}
}

func (r *Router) adapterFor(p domain.Provider) providers.Adapter {
	adapters, _ := r.adapters.load()
	return adapters[p]
}
