package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	batchService "github.com/reshetovitsme/post-normalizer/internal/modules/batch/service"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	repostService "github.com/reshetovitsme/post-normalizer/internal/modules/repost/service"
	"github.com/reshetovitsme/post-normalizer/internal/shared/config"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	sloghttp "github.com/samber/slog-http"
)

const defaultIncidentLimit = 100

// Server handles the admin HTTP API: batch job management, group and
// incident inspection.
type Server struct {
	cfg      *config.Config
	groups   *groupService.Service
	batches  *batchService.Service
	pipeline *repostService.Pipeline
	logger   *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, groups *groupService.Service, batches *batchService.Service, pipeline *repostService.Pipeline) *Server {
	return &Server{
		cfg:      cfg,
		groups:   groups,
		batches:  batches,
		pipeline: pipeline,
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Batch replay jobs
	mux.HandleFunc("POST /api/batches", s.handleCreateBatch)
	mux.HandleFunc("GET /api/batches", s.handleListBatches)
	mux.HandleFunc("GET /api/batches/{jobID}", s.handleGetBatch)

	// Group snapshots and operator actions
	mux.HandleFunc("GET /api/groups", s.handleListGroups)
	mux.HandleFunc("POST /api/groups/{chatID}/resume", s.handleResumeGroup)

	// Failed repost records
	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("admin server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

type createBatchRequest struct {
	ChatID        int64 `json:"chat_id"`
	FromMessageID int   `json:"from_message_id"`
	ToMessageID   int   `json:"to_message_id"`
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := s.batches.Create(r.Context(), req.ChatID, req.FromMessageID, req.ToMessageID)
	if err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		s.logger.Error("Error creating batch job", "chat_id", req.ChatID, "error", err)
		http.Error(w, "Failed to create batch job", http.StatusBadRequest)
		return
	}

	// The runner owns its own lifetime; the request only queues the job.
	go func() {
		if _, err := s.batches.Run(context.Background(), job.ID); err != nil {
			s.logger.Error("Batch run failed", "job_id", job.ID, "error", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")

	job, err := s.batches.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.logger.Error("Error fetching batch job", "job_id", jobID, "error", err)
		http.Error(w, "Failed to fetch batch job", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	var chatID int64
	if raw := r.URL.Query().Get("chat_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid chat_id", http.StatusBadRequest)
			return
		}
		chatID = parsed
	}

	jobs, err := s.batches.List(r.Context(), chatID)
	if err != nil {
		s.logger.Error("Error listing batch jobs", "error", err)
		http.Error(w, "Failed to list batch jobs", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.All(r.Context())
	if err != nil {
		s.logger.Error("Error listing groups", "error", err)
		http.Error(w, "Failed to list groups", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleResumeGroup(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(r.PathValue("chatID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat_id", http.StatusBadRequest)
		return
	}

	if err := s.groups.Resume(r.Context(), chatID); err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			http.Error(w, "Group not found", http.StatusNotFound)
			return
		}
		s.logger.Error("Error resuming group", "chat_id", chatID, "error", err)
		http.Error(w, "Failed to resume group", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	limit := defaultIncidentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	incidents, err := s.pipeline.Incidents(r.Context(), limit)
	if err != nil {
		s.logger.Error("Error listing incidents", "error", err)
		http.Error(w, "Failed to list incidents", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}
