// Package openaiembed implements the embeddings provider against an
// OpenAI-compatible /v1/embeddings endpoint.
package openaiembed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider calls a hosted embedding model over HTTP.
type Provider struct {
	client *resty.Client
	model  string
}

// New builds a provider for the given base URL (without the /v1 suffix),
// API key and model name.
func New(baseURL, apiKey, model string, timeout time.Duration) *Provider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &Provider{client: client, model: model}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty input")
	}
	var out embedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: p.model, Input: text}).
		SetResult(&out).
		Post("/v1/embeddings")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embeddings error: %s", out.Error.Message)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings response carried no vector")
	}
	return out.Data[0].Embedding, nil
}

// HealthPing probes the endpoint with a one-token embed.
func (p *Provider) HealthPing(ctx context.Context) error {
	_, err := p.Embed(ctx, "ping")
	return err
}
