package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL, "test-key", 2*time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return c
}

func TestSubmitCacheHit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/generations" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var body model.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.UserID != "u1" {
			t.Errorf("user_id = %q", body.UserID)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"type":   "cache_hit",
			"result": json.RawMessage(`{"planId":"p1"}`),
		})
	})

	res, err := c.Submit(context.Background(), &model.GenerationRequest{UserID: "u1", PlanType: model.PlanTypeWorkout})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.CacheHit {
		t.Fatal("expected cache hit")
	}
	if res.Artifact == nil || string(res.Artifact.Payload) != `{"planId":"p1"}` {
		t.Fatalf("artifact = %+v", res.Artifact)
	}
	if !res.Artifact.FromCache {
		t.Fatal("artifact not flagged from cache")
	}
}

func TestSubmitJobStarted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"type":                 "job_started",
			"jobId":                "j42",
			"estimatedTimeMinutes": 2.5,
		})
	})

	res, err := c.Submit(context.Background(), &model.GenerationRequest{UserID: "u1", PlanType: model.PlanTypeNutrition})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.CacheHit {
		t.Fatal("unexpected cache hit")
	}
	if res.JobID != "j42" {
		t.Fatalf("job id = %q", res.JobID)
	}
	if res.Estimate != 150*time.Second {
		t.Fatalf("estimate = %v, want 2m30s", res.Estimate)
	}
}

func TestSubmitClientErrorIsValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "days_per_week out of range"})
	})

	_, err := c.Submit(context.Background(), &model.GenerationRequest{UserID: "u1", PlanType: model.PlanTypeWorkout})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if errors.Is(err, domain.ErrTransport) {
		t.Fatal("validation error must not be transport")
	}
}

func TestSubmitServerErrorIsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Submit(context.Background(), &model.GenerationRequest{UserID: "u1", PlanType: model.PlanTypeWorkout})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestSubmitNetworkErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse every connection
	c, err := NewHTTPClient(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}

	_, err = c.Submit(context.Background(), &model.GenerationRequest{UserID: "u1", PlanType: model.PlanTypeWorkout})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestPollDecodesStatuses(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		status  model.JobStatus
		payload string
		errMsg  string
		genTime time.Duration
	}{
		{
			name:   "processing",
			body:   map[string]any{"status": "processing"},
			status: model.JobStatusProcessing,
		},
		{
			name: "completed",
			body: map[string]any{
				"status":           "completed",
				"result":           json.RawMessage(`{"planId":"p9"}`),
				"generationTimeMs": 93500,
			},
			status:  model.JobStatusCompleted,
			payload: `{"planId":"p9"}`,
			genTime: 93500 * time.Millisecond,
		},
		{
			name:   "failed",
			body:   map[string]any{"status": "failed", "error": "capacity"},
			status: model.JobStatusFailed,
			errMsg: "capacity",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/generations/j1" {
					t.Errorf("path = %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(tc.body)
			})
			res, err := c.Poll(context.Background(), "j1")
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if res.Status != tc.status {
				t.Fatalf("status = %s, want %s", res.Status, tc.status)
			}
			if string(res.Payload) != tc.payload {
				t.Fatalf("payload = %s, want %s", res.Payload, tc.payload)
			}
			if res.Error != tc.errMsg {
				t.Fatalf("error = %q, want %q", res.Error, tc.errMsg)
			}
			if res.GenerationTime != tc.genTime {
				t.Fatalf("generation time = %v, want %v", res.GenerationTime, tc.genTime)
			}
		})
	}
}

func TestPollRejectsUnknownStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "hibernating"})
	})
	_, err := c.Poll(context.Background(), "j1")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestPollNon200IsTransport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Poll(context.Background(), "j1")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}
