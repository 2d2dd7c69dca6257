// Package llm is the gateway client for an OpenAI-compatible
// chat-completions surface, with retry, circuit breaking, a Redis response
// cache and a process-wide rate limiter.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Message is one chat message on the completions wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call. Zero-valued tuning fields fall back
// to the client defaults.
type Request struct {
	Messages         []Message
	Model            string
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Chunk is one streamed piece of a completion.
type Chunk struct {
	Delta string
	Err   error
}

// Completer is the surface the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Stream yields text chunks. Retry and caching are disabled for streams.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// cacheKey hashes (model, temperature, messages) into the response cache key.
func cacheKey(model string, temperature float64, messages []Message) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.4f|", model, temperature)
	if b, err := json.Marshal(messages); err == nil {
		h.Write(b)
	}
	return "llm:resp:" + hex.EncodeToString(h.Sum(nil))
}

// backoffDelay returns the exponential delay before attempt n (0-based).
func backoffDelay(attempt int) time.Duration {
	d := time.Second << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}
