// Package domain holds the closed enumerations and request/response shapes
// shared by every other package in the gateway: provider and workload tags,
// the request/response contract, and the attempt records a router call
// produces along the way. Nothing in this package touches I/O.
package domain

import "strings"

// Provider is a closed tag identifying one upstream vendor. Serialized by
// its stable lowercase tag; aliases map alternate spellings onto a Provider
// via ParseProvider.
type Provider string

const (
	Groq        Provider = "groq"
	DeepSeek    Provider = "deepseek"
	Together    Provider = "together"
	Google      Provider = "google"
	HuggingFace Provider = "huggingface"
	OpenAI      Provider = "openai"
	Anthropic   Provider = "anthropic"
	Cohere      Provider = "cohere"
)

// AllProviders lists every known provider tag, in a stable order used when a
// caller wants "every known provider" (e.g. health snapshot_all).
var AllProviders = []Provider{Groq, DeepSeek, Together, Google, HuggingFace, OpenAI, Anthropic, Cohere}

var providerAliases = map[string]Provider{
	"groq":         Groq,
	"deepseek":     DeepSeek,
	"together":     Together,
	"together.ai":  Together,
	"togetherai":   Together,
	"google":       Google,
	"gemini":       Google,
	"huggingface":  HuggingFace,
	"hf":           HuggingFace,
	"hugging_face": HuggingFace,
	"openai":       OpenAI,
	"anthropic":    Anthropic,
	"claude":       Anthropic,
	"cohere":       Cohere,
}

// ParseProvider resolves a free-form spelling to a known Provider tag.
func ParseProvider(s string) (Provider, bool) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

func (p Provider) Valid() bool {
	_, ok := providerAliases[string(p)]
	return ok
}

func (p Provider) String() string { return string(p) }

// Workload is a closed tag identifying the task category a request belongs
// to; it is the second half of the catalog's (provider, workload) key.
type Workload string

const (
	Chat           Workload = "chat"
	Code           Workload = "code"
	Summarization  Workload = "summarization"
	Extraction     Workload = "extraction"
	Creative       Workload = "creative"
	Classification Workload = "classification"
)

var workloads = map[Workload]struct{}{
	Chat: {}, Code: {}, Summarization: {}, Extraction: {}, Creative: {}, Classification: {},
}

// ParseWorkload resolves a free-form spelling to a known Workload tag.
func ParseWorkload(s string) (Workload, bool) {
	w := Workload(strings.ToLower(strings.TrimSpace(s)))
	_, ok := workloads[w]
	return w, ok
}

func (w Workload) Valid() bool {
	_, ok := workloads[w]
	return ok
}

// Complexity, Quality, Speed and Guardrail are the closed vocabularies for
// the corresponding soft hints.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type Quality string

const (
	QualityStandard Quality = "standard"
	QualityBalanced Quality = "balanced"
	QualityPremium  Quality = "premium"
)

type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
)

type Guardrail string

const (
	GuardrailStrict  Guardrail = "strict"
	GuardrailLenient Guardrail = "lenient"
)

// Hints carries the optional routing hints attached to a Request. A hint is
// "hard" (forces a choice, overriding health) when Provider or Model is set;
// otherwise it is "soft" (biases but never dictates routing). Complexity,
// Quality, Speed, Guardrail and Tags are accepted but are not currently
// consulted by candidate construction (see SPEC_FULL.md §4.7) — they are
// carried through so a future scoring pass has somewhere to read them from.
type Hints struct {
	Provider   Provider   `json:"provider,omitempty"`
	Workload   Workload   `json:"workload,omitempty"`
	Complexity Complexity `json:"complexity,omitempty"`
	Quality    Quality    `json:"quality,omitempty"`
	Speed      Speed      `json:"speed,omitempty"`
	Guardrail  Guardrail  `json:"guardrail,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

// HasHardProvider reports whether the hints force a specific provider.
func (h *Hints) HasHardProvider() bool {
	return h != nil && h.Provider != ""
}

// Request is the normalized input to one generation call.
type Request struct {
	Prompt   string            `json:"prompt"`
	Model    string            `json:"model,omitempty"`
	Hints    *Hints            `json:"hints,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HasHardModel reports whether the request forces a specific model.
func (r *Request) HasHardModel() bool { return r.Model != "" }

// Workload resolves the request's effective workload: hints.workload if set,
// else Chat.
func (r *Request) Workload() Workload {
	if r.Hints != nil && r.Hints.Workload != "" {
		return r.Hints.Workload
	}
	return Chat
}

// ErrorKind is the closed taxonomy used to classify every adapter failure
// before it reaches the health tracker or an attempt record.
type ErrorKind string

const (
	ErrRateLimit         ErrorKind = "rate_limit"
	ErrAuthFailure       ErrorKind = "auth_failure"
	ErrServiceOutage     ErrorKind = "service_outage"
	ErrTimeout           ErrorKind = "timeout"
	ErrTransient         ErrorKind = "transient"
	ErrMalformedResponse ErrorKind = "malformed_response"
	ErrClientError       ErrorKind = "client_error"
	ErrUnknown           ErrorKind = "unknown"
)

// AttemptRecord is one (provider, model) invocation within a request,
// ordered oldest-first in Response.Attempts.
type AttemptRecord struct {
	Provider     Provider  `json:"provider"`
	Model        string    `json:"model"`
	Success      bool      `json:"success"`
	LatencyMs    int64     `json:"latency_ms"`
	ErrorKind    ErrorKind `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Response is the normalized output of a successful generation.
type Response struct {
	Provider  Provider        `json:"provider"`
	Model     string          `json:"model"`
	Content   string          `json:"content"`
	LatencyMs int64           `json:"latency_ms"`
	Attempts  []AttemptRecord `json:"attempts"`
}
