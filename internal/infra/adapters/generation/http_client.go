// File: internal/infra/adapters/generation/http_client.go
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/domain/ports/adapter"
)

var _ adapter.GenerationServiceAdapter = (*HTTPClient)(nil)

// HTTPClient implements adapter.GenerationServiceAdapter against the remote
// generation service's REST API. It is a pure request/response boundary; all
// retry and timing decisions belong to the orchestrator.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("generation base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid generation base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) endpoint(path string) string { return c.baseURL + path }

// Submit posts the generation request. A cache hit carries the artifact
// inline; otherwise the service answers with a job id to poll.
func (c *HTTPClient) Submit(ctx context.Context, genReq *model.GenerationRequest) (*adapter.SubmitResult, error) {
	b, _ := json.Marshal(genReq)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/generations"), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var out struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		if out.Error == "" {
			out.Error = resp.Status
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, out.Error)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: submit: %s", domain.ErrTransport, resp.Status)
	}

	var out struct {
		Type                 string          `json:"type"` // "cache_hit" | "job_started"
		Result               json.RawMessage `json:"result,omitempty"`
		JobID                string          `json:"jobId,omitempty"`
		EstimatedTimeMinutes float64         `json:"estimatedTimeMinutes,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: submit: decode: %v", domain.ErrTransport, err)
	}

	switch out.Type {
	case "cache_hit":
		return &adapter.SubmitResult{
			CacheHit: true,
			Artifact: &model.PlanArtifact{Payload: out.Result, GeneratedAt: time.Now(), FromCache: true},
		}, nil
	case "job_started":
		if out.JobID == "" {
			return nil, fmt.Errorf("%w: submit: job_started without jobId", domain.ErrTransport)
		}
		return &adapter.SubmitResult{
			JobID:    out.JobID,
			Estimate: time.Duration(out.EstimatedTimeMinutes * float64(time.Minute)),
		}, nil
	default:
		return nil, fmt.Errorf("%w: submit: unknown response type %q", domain.ErrTransport, out.Type)
	}
}

// Poll fetches one status snapshot. A job the service reports as failed is a
// legitimate PollResult, not an error; only network-level problems error out.
func (c *HTTPClient) Poll(ctx context.Context, jobID string) (*adapter.PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/v1/generations/"+url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: poll: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: poll: %s", domain.ErrTransport, resp.Status)
	}

	var out struct {
		Status           string          `json:"status"`
		Result           json.RawMessage `json:"result,omitempty"`
		Error            string          `json:"error,omitempty"`
		GenerationTimeMs int64           `json:"generationTimeMs,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: poll: decode: %v", domain.ErrTransport, err)
	}

	status := model.JobStatus(out.Status)
	switch status {
	case model.JobStatusPending, model.JobStatusProcessing,
		model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
	default:
		return nil, fmt.Errorf("%w: poll: unknown status %q", domain.ErrTransport, out.Status)
	}

	return &adapter.PollResult{
		Status:         status,
		Payload:        out.Result,
		Error:          out.Error,
		GenerationTime: time.Duration(out.GenerationTimeMs) * time.Millisecond,
	}, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
