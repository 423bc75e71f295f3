// Package cohere implements providers.Adapter for Cohere's chat API,
// grounded on ferro-labs-ai-gateway/providers/cohere.go: a messages payload
// with content-block-typed text, message.content[0].text on the way back
// out.
package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/providers"
)

const DefaultBaseURL = "https://api.cohere.com"

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

func (a *Adapter) Identity() domain.Provider { return domain.Cohere }

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type response struct {
	Message message `json:"message"`
}

var errEmptyContent = errors.New("cohere: response had no content blocks")

func (a *Adapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	payload := request{
		Model:    model,
		Messages: []message{{Role: "user", Content: []contentBlock{{Type: "text", Text: prompt}}}},
	}
	headers := map[string]string{"Authorization": "Bearer " + a.apiKey}

	body, err := providers.DoRequest(ctx, a.client, a.baseURL+"/v2/chat", payload, headers)
	if err != nil {
		return "", err
	}
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Cause: err}
	}
	if len(resp.Message.Content) == 0 {
		return "", &providers.ParseError{Cause: errEmptyContent}
	}
	return resp.Message.Content[0].Text, nil
}
