package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"fitness-ai-generation/internal/domain"
	"fitness-ai-generation/internal/domain/model"
	"fitness-ai-generation/internal/infra/logging"
	red "fitness-ai-generation/internal/infra/redis"
)

// PlanReader serves finished artifacts to the read endpoints.
type PlanReader interface {
	LatestPlan(ctx context.Context, userID string, planType model.PlanType) (*model.PlanArtifact, error)
}

type startRequest struct {
	UserID       string   `json:"user_id"`
	PlanType     string   `json:"plan_type"`
	Goal         string   `json:"goal"`
	FitnessLevel string   `json:"fitness_level"`
	DaysPerWeek  int      `json:"days_per_week"`
	Equipment    []string `json:"equipment,omitempty"`
	DietaryPrefs []string `json:"dietary_prefs,omitempty"`
}

type jobResponse struct {
	JobID                string `json:"job_id,omitempty"`
	Status               string `json:"status"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds,omitempty"`
	Attempts             int    `json:"attempts,omitempty"`
	Error                string `json:"error,omitempty"`
	GenerationTimeMillis int64  `json:"generation_time_ms,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if s.limiter != nil && req.UserID != "" {
		ok, limErr := s.limiter.Allow(r.Context(), red.StartRateKey(req.UserID), s.rateLimit, s.rateWindow)
		if limErr != nil {
			// Redis trouble must not take the start path down.
			s.log.Warn().Err(limErr).Msg("rate limit check failed, allowing")
		} else if !ok {
			http.Error(w, "too many generation starts, slow down", http.StatusTooManyRequests)
			return
		}
	}

	ctx := logging.WithUserID(r.Context(), req.UserID)
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		ctx = logging.WithTraceID(ctx, reqID)
	}

	err := s.manager.Start(ctx, &model.GenerationRequest{
		UserID:       req.UserID,
		PlanType:     model.PlanType(req.PlanType),
		Goal:         req.Goal,
		FitnessLevel: req.FitnessLevel,
		DaysPerWeek:  req.DaysPerWeek,
		Equipment:    req.Equipment,
		DietaryPrefs: req.DietaryPrefs,
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrGenerationInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrTransport):
		http.Error(w, "generation service unavailable", http.StatusBadGateway)
		return
	default:
		s.log.Error().Err(err).Msg("start generation failed")
		http.Error(w, "Failed to start generation", http.StatusInternalServerError)
		return
	}

	// A cache hit completes before Start returns; the job is already gone.
	job, jobErr := s.manager.Status(req.UserID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if jobErr != nil {
		_ = json.NewEncoder(w).Encode(jobResponse{Status: string(model.JobStatusCompleted)})
		return
	}
	_ = json.NewEncoder(w).Encode(snapshotResponse(job))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	job, err := s.manager.Status(userID)
	if err != nil {
		http.Error(w, "no active generation", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshotResponse(job))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := s.manager.Cancel(userID); err != nil {
		http.Error(w, "no active generation", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	planType := model.PlanType(r.URL.Query().Get("plan_type"))
	if userID == "" || planType == "" {
		http.Error(w, "user_id and plan_type are required", http.StatusBadRequest)
		return
	}
	artifact, err := s.plans.LatestPlan(r.Context(), userID, planType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "no plan found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Msg("latest plan lookup failed")
		http.Error(w, "Failed to load plan", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(artifact)
}

func (s *Server) handleMintSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	token, err := s.auth.Mint(w, req.UserID)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func snapshotResponse(job *model.GenerationJob) jobResponse {
	return jobResponse{
		JobID:                job.ID,
		Status:               string(job.Status),
		EstimatedTimeSeconds: int(job.EstimatedTimeRemaining / time.Second),
		Attempts:             job.Attempts,
		Error:                job.Error,
		GenerationTimeMillis: job.GenerationTime.Milliseconds(),
	}
}
