package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/pipeline"
)

type extractRequest struct {
	URL string `json:"url"`
}

type sourceRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	CompanyName string `json:"company_name"`
}

type autoCreateRequest struct {
	Sources []sourceRequest `json:"sources"`
}

// extractJobDetails handles POST /v1/extract-job-details. It runs the single
// URL through the extractor synchronously and returns the posting.
func (s *Server) extractJobDetails(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ExtractTimeout)
	defer cancel()

	result, err := s.extractor.ExtractOne(ctx, req.URL)
	if err != nil {
		s.logger.Warn("single extraction failed", zap.String("url", req.URL), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, err.Error())
		return
	}
	if result.Skipped {
		writeJSON(w, http.StatusOK, map[string]any{"skipped": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"skipped":      false,
		"job_posting":  result.Posting,
		"snapshot_uri": result.SnapshotURI,
	})
}

// autoCreateJobPosting handles POST /v1/auto-create-job-posting. It enqueues
// a full pipeline run and returns 202 with the run ID.
func (s *Server) autoCreateJobPosting(w http.ResponseWriter, r *http.Request) {
	var req autoCreateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	sources := s.cfg.DefaultSources
	if len(req.Sources) > 0 {
		parsed, err := toSources(req.Sources)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sources = parsed
	}
	if len(sources) == 0 {
		writeError(w, http.StatusBadRequest, "no sources configured or provided")
		return
	}

	runID, err := s.runs.Enqueue(sources)
	if err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, "a run is already queued; retry later")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID.String()})
}

// runProgress handles GET /v1/runs/{run_id}/progress.
func (s *Server) runProgress(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	state, ok := s.state.Snapshot(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func toSources(reqs []sourceRequest) ([]ingest.Source, error) {
	sources := make([]ingest.Source, 0, len(reqs))
	for _, req := range reqs {
		if err := validateURL(req.URL); err != nil {
			return nil, err
		}
		kind, err := parseSourceKind(req.Kind)
		if err != nil {
			return nil, err
		}
		name := req.Name
		if name == "" {
			name = req.URL
		}
		sources = append(sources, ingest.Source{
			Name:        name,
			URL:         req.URL,
			Kind:        kind,
			CompanyName: req.CompanyName,
		})
	}
	return sources, nil
}

func parseSourceKind(kind string) (ingest.SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "career_page":
		return ingest.SourceCareerPage, nil
	case "board":
		return ingest.SourceBoard, nil
	case "linkedin_search":
		return ingest.SourceLinkedInSearch, nil
	default:
		return "", errors.New("unknown source kind " + kind)
	}
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("url must be absolute http(s)")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
