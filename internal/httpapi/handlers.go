package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/gwerrors"
)

// generateRequest mirrors domain.Request's wire shape exactly; §6 leaves the
// body schema unchanged from spec.md's {prompt, model?, hints?, metadata?}.
type generateRequest struct {
	Prompt   string            `json:"prompt"`
	Model    string            `json:"model,omitempty"`
	Hints    *domain.Hints     `json:"hints,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type generateResponse struct {
	Provider  domain.Provider `json:"provider"`
	Model     string          `json:"model"`
	Content   string          `json:"content"`
	LatencyMs int64           `json:"latency_ms"`
}

type errorResponse struct {
	ErrorKind string                  `json:"error_kind"`
	Message   string                  `json:"message"`
	Attempts  []domain.AttemptRecord  `json:"attempts,omitempty"`
}

// requestDeadline bounds the whole candidate-exhaustion loop for one HTTP
// call; individual attempts are bounded separately by the router's own
// per-attempt timeout.
const requestDeadline = 2 * time.Minute

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, gwerrors.InvalidRequest("malformed JSON body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline)
	defer cancel()

	req := domain.Request{Prompt: body.Prompt, Model: body.Model, Hints: body.Hints, Metadata: body.Metadata}
	resp, err := s.router.Generate(ctx, req)
	if err != nil {
		s.writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Provider:  resp.Provider,
		Model:     resp.Model,
		Content:   resp.Content,
		LatencyMs: resp.LatencyMs,
	})
}

// writeGenerateError maps the closed gwerrors taxonomy onto the status
// codes fixed by SPEC_FULL.md §6: 400 invalid input, 502 all candidates
// failed, 503 none were eligible, 504 the request deadline elapsed.
func (s *Server) writeGenerateError(w http.ResponseWriter, err error) {
	gwErr, ok := gwerrors.As(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	switch gwErr.Kind {
	case gwerrors.KindInvalidRequest, gwerrors.KindProviderNotConfigured:
		writeError(w, http.StatusBadRequest, gwErr)
	case gwerrors.KindNoAvailableProvider:
		writeError(w, http.StatusServiceUnavailable, gwErr)
	case gwerrors.KindDeadlineExceeded:
		writeError(w, http.StatusGatewayTimeout, gwErr)
	case gwerrors.KindAllProvidersFailed:
		writeError(w, http.StatusBadGateway, gwErr)
	default:
		writeError(w, http.StatusInternalServerError, gwErr)
	}
}

// healthzResponse reports liveness the way the teacher's /healthz does:
// database reachability plus whether any provider has credentials at all.
type healthzResponse struct {
	Status             string `json:"status"`
	DatabaseReachable  bool   `json:"database_reachable"`
	HasCredentialedProvider bool `json:"has_credentialed_provider"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbOK := s.db.PingContext(ctx) == nil

	providers, err := s.creds.List(ctx)
	hasCreds := err == nil && len(providers) > 0

	status := http.StatusOK
	statusText := "ok"
	if !dbOK || !hasCreds {
		status = http.StatusServiceUnavailable
		statusText = "unavailable"
	}

	writeJSON(w, status, healthzResponse{
		Status:                  statusText,
		DatabaseReachable:       dbOK,
		HasCredentialedProvider: hasCreds,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{ErrorKind: "unknown", Message: err.Error()}
	if gwErr, ok := gwerrors.As(err); ok {
		resp.ErrorKind = string(gwErr.Kind)
		resp.Message = gwErr.Message
		resp.Attempts = gwErr.Attempts
	}
	writeJSON(w, status, resp)
}
