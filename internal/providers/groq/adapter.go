// Package groq implements providers.Adapter for Groq's OpenAI-compatible
// chat completions endpoint, grounded on
// ferro-labs-ai-gateway/providers/groq.go (bearer auth, groqRequest/
// groqResponse shape) adapted from that repo's Provider interface onto
// this spec's providers.Adapter contract.
package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

// DefaultBaseURL is used when no credential override or config default is set.
const DefaultBaseURL = "https://api.groq.com/openai"

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

func (a *Adapter) Identity() domain.Provider { return domain.Groq }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

var errEmptyChoices = errors.New("groq: response had no choices")

func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := request{Model: model, Messages: []message{{Role: "user", Content: prompt}}}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v1/chat/completions", payload, headers)
	if err != nil {
		return "", err
	}
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &providers.ParseError{Cause: errEmptyChoices}
	}
	return resp.Choices[0].Message.Content, nil
}
