package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/vitte-ai/vitte-chat/internal/cache"
	"github.com/vitte-ai/vitte-chat/internal/model"
)

// Options tune the gateway client. All fields have working defaults from
// config.
type Options struct {
	BaseURL          string
	APIKey           string
	Model            string
	Timeout          time.Duration
	MaxRetries       int
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
	RatePerMinute    int
	CacheEnabled     bool
	CacheTTL         time.Duration
}

// Client implements Completer over HTTP.
type Client struct {
	http    *resty.Client
	opts    Options
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cache   cache.Cache
	log     zerolog.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

var _ Completer = (*Client)(nil)

// NewClient builds the gateway client. cache may be nil to disable response
// caching entirely.
func NewClient(opts Options, c cache.Cache, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		httpClient.SetAuthToken(opts.APIKey)
	}

	threshold := opts.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm-gateway",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
		},
	})

	perMinute := opts.RatePerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	return &Client{
		http:    httpClient,
		opts:    opts,
		breaker: breaker,
		limiter: limiter,
		cache:   c,
		log:     log.With().Str("component", "llm").Logger(),
		sleep:   time.Sleep,
	}
}

type wireRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) fill(req Request) wireRequest {
	w := wireRequest{
		Model:            req.Model,
		Messages:         req.Messages,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	if w.Model == "" {
		w.Model = c.opts.Model
	}
	if w.Temperature == 0 {
		w.Temperature = c.opts.Temperature
	}
	if w.MaxTokens == 0 {
		w.MaxTokens = c.opts.MaxTokens
	}
	if w.PresencePenalty == 0 {
		w.PresencePenalty = c.opts.PresencePenalty
	}
	if w.FrequencyPenalty == 0 {
		w.FrequencyPenalty = c.opts.FrequencyPenalty
	}
	return w
}

// Complete runs one completion with rate limiting, caching, retries and the
// circuit breaker. A final failure maps to model.ErrLLMUnavailable.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	w := c.fill(req)

	var key string
	if c.opts.CacheEnabled && c.cache != nil {
		key = cacheKey(w.Model, w.Temperature, w.Messages)
		if cached, err := c.cache.Get(ctx, key); err == nil {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	attempts := c.opts.MaxRetries
	if attempts <= 0 {
		attempts = 3
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.sleep(backoffDelay(attempt - 1))
		}
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doComplete(ctx, w)
		})
		if err == nil {
			text := out.(string)
			if key != "" {
				if cerr := c.cache.Set(ctx, key, text, c.opts.CacheTTL); cerr != nil {
					c.log.Warn().Err(cerr).Msg("response cache write failed")
				}
			}
			return text, nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Fail fast while the circuit is open.
			break
		}
		if !isTransient(err) {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("completion attempt failed")
	}
	c.log.Error().Stack().Err(lastErr).Msg("completion failed")
	return "", fmt.Errorf("%w: %v", model.ErrLLMUnavailable, lastErr)
}

type transientError struct{ err error }

func (t transientError) Error() string { return t.err.Error() }
func (t transientError) Unwrap() error { return t.err }

func isTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

func (c *Client) doComplete(ctx context.Context, w wireRequest) (string, error) {
	var out wireResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(w).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		// Transport errors and timeouts are retryable.
		return "", transientError{err}
	}
	if resp.IsError() {
		apiErr := fmt.Errorf("gateway status %d: %s", resp.StatusCode(), resp.String())
		if resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests {
			return "", transientError{apiErr}
		}
		return "", apiErr
	}
	if out.Error != nil {
		return "", fmt.Errorf("gateway error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("gateway returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Stream opens an SSE completion. No retry, no cache; the breaker still
// guards the initial connection.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	w := c.fill(req)
	w.Stream = true

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.http.R().
			SetContext(ctx).
			SetBody(w).
			SetDoNotParseResponse(true).
			Post("/v1/chat/completions")
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			body := r.RawBody()
			if body != nil {
				_ = body.Close()
			}
			return nil, fmt.Errorf("gateway status %d", r.StatusCode())
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrLLMUnavailable, err)
	}

	raw := resp.(*resty.Response).RawBody()
	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer func() { _ = raw.Close() }()
		scanner := bufio.NewScanner(raw)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}
			var ev wireResponse
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				continue
			}
			if len(ev.Choices) == 0 {
				continue
			}
			delta := ev.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- Chunk{Delta: delta}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case out <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// HealthPing implements health.HealthPinger with a GET to the models list.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/models")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("gateway status %d", resp.StatusCode())
	}
	return nil
}
