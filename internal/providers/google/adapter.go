// Package google implements providers.Adapter for the Gemini
// generateContent API, grounded on
// ferro-labs-ai-gateway/providers/gemini.go: contents/parts request shape,
// x-goog-api-key header auth, candidates[0].content.parts[0].text response.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func New(apiKey, baseURL string, client *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *Adapter) Identity() domain.Provider { return domain.Google }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var errEmptyCandidates = errors.New("google: response had no candidates")

func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := request{Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}}}
	headers := map[string]string{"x-goog-api-key": a.apiKey}
	url := a.baseURL + "/v1beta/models/" + model + ":generateContent"

	body, err := providers.DoRequest(ctx, a.client, url, payload, headers)
	if err != nil {
		return "", err
	}
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Cause: err}
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &providers.ParseError{Cause: errEmptyCandidates}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
