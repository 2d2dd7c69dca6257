// Package imagegen is the opportunistic image side-channel: a client for
// the image generator service plus the lag-by-one ticket mailbox that keeps
// replies from ever waiting on image generation.
package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Job describes one generation request.
type Job struct {
	PersonaKey string `json:"persona_key"`
	Hint       string `json:"hint"`
	Seed       int64  `json:"seed,omitempty"`
}

// Result is the generator's answer for a task.
type Result struct {
	Status string `json:"status"` // pending, done, failed
	URL    string `json:"url,omitempty"`
}

// Generator is the queue surface of the image service.
type Generator interface {
	Enqueue(ctx context.Context, job Job) (taskID string, err error)
	Result(ctx context.Context, taskID string) (Result, error)
}

// HTTPGenerator talks to the image generator's task API.
type HTTPGenerator struct {
	client *resty.Client
}

var _ Generator = (*HTTPGenerator)(nil)

func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

func (g *HTTPGenerator) Enqueue(ctx context.Context, job Job) (string, error) {
	var out struct {
		TaskID string `json:"task_id"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(job).
		SetResult(&out).
		Post("/tasks")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("image generator status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.TaskID == "" {
		return "", fmt.Errorf("image generator returned no task id")
	}
	return out.TaskID, nil
}

func (g *HTTPGenerator) Result(ctx context.Context, taskID string) (Result, error) {
	var out Result
	resp, err := g.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/tasks/" + taskID + "/result")
	if err != nil {
		return Result{}, err
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("image generator status %d", resp.StatusCode())
	}
	return out, nil
}

// HealthPing implements health.HealthPinger against the generator root.
func (g *HTTPGenerator) HealthPing(ctx context.Context) error {
	resp, err := g.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("image generator status %d", resp.StatusCode())
	}
	return nil
}
