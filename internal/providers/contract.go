// Package providers is the common adapter contract described in
// SPEC_FULL.md §4.6: a single interface every vendor package implements,
// plus the shared HTTP helper and error classification every vendor
// adapter uses to turn a non-2xx response into the closed ErrorKind
// taxonomy. Grounded on the teacher's internal/providers/contract.go
// (StatusError) and internal/providers/http.go (shared DoRequest), with
// the engine-specific Sender interface replaced by this spec's own
// Adapter shape.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/driftgate/gateway/internal/domain"
)

// Adapter is the contract every vendor package implements. Generate
// translates prompt into the vendor payload for model, issues the call, and
// returns the parsed completion text. Adapters are stateless aside from a
// shared *http.Client and immutable credentials, so a single Adapter value
// is safe for concurrent use.
type Adapter interface {
	Identity() domain.Provider
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// StatusError captures a non-2xx HTTP response from a provider. Adapters
// return this (instead of a bare error) so Classify can recover the status
// code without parsing error strings.
type StatusError struct {
	StatusCode     int
	Body           string
	RetryAfterSecs int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// ParseRetryAfter records a Retry-After response header, if present and
// numeric (seconds form only; the HTTP-date form is rare on these vendors
// and not worth the parsing surface).
func (e *StatusError) ParseRetryAfter(header string) {
	if header == "" {
		return
	}
	if secs, err := strconv.Atoi(header); err == nil {
		e.RetryAfterSecs = secs
	}
}

// ParseError wraps a failure to decode a provider's response body into the
// shape the adapter expected. Classify maps this to MalformedResponse.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return fmt.Sprintf("malformed provider response: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

// ClassifyStatus applies the fixed HTTP-status policy from spec.md §9's
// Open Question resolution: 400/422 are request-invalid, 401/403 penalize
// the provider, 429 is a rate limit, 5xx is a service outage, and 404 means
// a bad model name — charged to the caller if they forced that model,
// otherwise to the catalog entry (MalformedResponse, not a provider
// penalty) since the catalog suggested a model the vendor no longer serves.
func ClassifyStatus(status int, modelForced bool) domain.ErrorKind {
	switch {
	case status == 400 || status == 422:
		return domain.ErrClientError
	case status == 401 || status == 403:
		return domain.ErrAuthFailure
	case status == 429:
		return domain.ErrRateLimit
	case status == 404:
		if modelForced {
			return domain.ErrClientError
		}
		return domain.ErrMalformedResponse
	case status >= 500:
		return domain.ErrServiceOutage
	default:
		return domain.ErrUnknown
	}
}

// Classify maps any error an Adapter.Generate call can return into the
// closed ErrorKind taxonomy: a context deadline becomes Timeout, a
// *StatusError is resolved by ClassifyStatus, a *ParseError becomes
// MalformedResponse, a network-level error becomes Transient (or Timeout if
// the net.Error itself reports a timeout), and anything else collapses to
// Unknown rather than leaking a raw transport error into health decisions.
func Classify(err error, modelForced bool) domain.ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	var se *StatusError
	if errors.As(err, &se) {
		return ClassifyStatus(se.StatusCode, modelForced)
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return domain.ErrMalformedResponse
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return domain.ErrTimeout
		}
		return domain.ErrTransient
	}
	return domain.ErrUnknown
}

// DoRequest sends a POST request with a JSON payload and returns the
// response body bytes, shared by every vendor adapter so the marshal/
// header/status-to-StatusError plumbing is written once. Mirrors the
// teacher's internal/providers/http.go helper, minus its span bookkeeping:
// tracing here is carried by wrapping the *http.Client's Transport with
// tracing.HTTPTransport at construction time instead (see internal/app
// wiring), so every vendor call is instrumented without repeating span code
// in each adapter.
func DoRequest(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		se.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, se
	}
	return respBody, nil
}
