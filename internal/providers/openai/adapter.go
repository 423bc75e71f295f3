// Package openai implements providers.Adapter for OpenAI's Chat Completions
// API, grounded on the teacher's internal/providers/openai/adapter.go:
// Bearer auth, a bare chat-completions payload, choices[0].message.content
// on the way back out.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

var errEmptyChoices = errors.New("openai: response had no choices")

// DefaultBaseURL is used when no credential override or config default is set.
const DefaultBaseURL = "https://api.openai.com"

// Adapter is stateless aside from its shared *http.Client and the
// credentials captured at construction time, so one Adapter value is safe
// for concurrent calls.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New builds an OpenAI adapter. client may be nil, in which case
// http.DefaultClient is used.
func New(apiKey, baseURL string, client *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (a *Adapter) Identity() domain.Provider { return domain.OpenAI }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := chatRequest{Model: model, Messages: []chatMessage{{Role: "user", Content: prompt}}}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &providers.ParseError{Cause: errEmptyChoices}
	}
	return resp.Choices[0].Message.Content, nil
}
