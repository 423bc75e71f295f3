// Package anthropic implements providers.Adapter for the Anthropic Messages
// API, grounded verbatim on the teacher's
// internal/providers/anthropic/adapter.go: x-api-key + anthropic-version
// headers, a messages payload, content[0].text on the way back out.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

const DefaultBaseURL = "https://api.anthropic.com"

const apiVersion = "2023-06-01"

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

func (a *Adapter) Identity() domain.Provider { return domain.Anthropic }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

var errEmptyContent = errors.New("anthropic: response had no content blocks")

func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := request{
		Model:     model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: 4096,
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": apiVersion,
	}

	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/messages", payload, headers)
	if err != nil {
		return "", err
	}
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Cause: err}
	}
	if len(resp.Content) == 0 {
		return "", &providers.ParseError{Cause: errEmptyContent}
	}
	return resp.Content[0].Text, nil
}
