package daemon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"studioq/internal/api"
	"studioq/internal/archive"
	"studioq/internal/queue"
)

type handlers struct {
	svc    *api.Service
	daemon *Daemon
	logger *slog.Logger
}

func newRouter(svc *api.Service, d *Daemon, logger *slog.Logger) http.Handler {
	h := &handlers{svc: svc, daemon: d, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", h.createJob)
			r.Get("/", h.listJobs)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getJob)
				r.Post("/cancel", h.cancelJob)
				r.Post("/retry", h.retryJob)
				r.Post("/status", h.updateStatus)
				r.Post("/narration-status", h.updateNarration)
				r.Post("/archive", h.archiveJob)
				r.Patch("/priority", h.setPriority)
				r.Patch("/schedule", h.setSchedule)
				r.Patch("/narration", h.setNarrationMode)
			})
		})

		r.Get("/archive", h.searchArchive)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", slog.String("error", err.Error()))
	}
}

// writeError maps the queue error taxonomy onto HTTP status codes.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, queue.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, queue.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, queue.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, queue.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("error", err.Error()))
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *handlers) badRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	status := h.daemon.Status()
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	counts := make(map[string]int, len(stats))
	for s, n := range stats {
		counts[string(s)] = n
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"running":       status.Running,
		"store_backend": status.StoreBackend,
		"store_path":    status.StorePath,
		"archive_path":  status.ArchivePath,
		"queue":         counts,
	})
}

type createJobRequest struct {
	Type            string             `json:"type"`
	Description     string             `json:"description"`
	Priority        int                `json:"priority"`
	Source          string             `json:"source"`
	Pipeline        string             `json:"pipeline"`
	ScheduledAt     *time.Time         `json:"scheduledAt"`
	VoiceKey        string             `json:"voiceKey"`
	ImageModelAlias string             `json:"imageModelAlias"`
	VideoModelAlias string             `json:"videoModelAlias"`
	NarrationMode   string             `json:"narrationMode"`
	NarrationScript string             `json:"narrationScript"`
	Cast            []queue.CastMember `json:"cast"`
	SceneCount      int                `json:"sceneCount"`
	FilmTemplateKey string             `json:"filmTemplateKey"`
}

func (h *handlers) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}

	// The ingestion bridge identifies itself per request; everything else is
	// a dashboard submission.
	sourceValue := req.Source
	if sourceValue == "" {
		sourceValue = r.Header.Get("X-Job-Source")
	}
	var source queue.Source
	if strings.TrimSpace(sourceValue) != "" {
		parsed, ok := queue.ParseSource(sourceValue)
		if !ok {
			h.badRequest(w, "unknown source "+strconv.Quote(sourceValue))
			return
		}
		source = parsed
	}

	job, err := h.svc.Create(r.Context(), queue.CreateInput{
		Type:            req.Type,
		Description:     req.Description,
		Priority:        req.Priority,
		Source:          source,
		Pipeline:        req.Pipeline,
		Scheduled:       req.ScheduledAt,
		VoiceKey:        req.VoiceKey,
		ImageModelAlias: req.ImageModelAlias,
		VideoModelAlias: req.VideoModelAlias,
		NarrationMode:   req.NarrationMode,
		NarrationScript: req.NarrationScript,
		Cast:            req.Cast,
		SceneCount:      req.SceneCount,
		FilmTemplateKey: req.FilmTemplateKey,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, job)
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := queue.Filter{}
	for _, raw := range query["status"] {
		for _, value := range strings.Split(raw, ",") {
			if strings.TrimSpace(value) == "" {
				continue
			}
			status, ok := queue.ParseStatus(value)
			if !ok {
				h.badRequest(w, "unknown status "+strconv.Quote(value))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if value := query.Get("pipeline"); value != "" {
		pipeline, ok := queue.ParsePipeline(value)
		if !ok {
			h.badRequest(w, "unknown pipeline "+strconv.Quote(value))
			return
		}
		filter.Pipeline = pipeline
	}
	if value := query.Get("source"); value != "" {
		source, ok := queue.ParseSource(value)
		if !ok {
			h.badRequest(w, "unknown source "+strconv.Quote(value))
			return
		}
		filter.Source = source
	}
	if value := query.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			h.badRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *handlers) cancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *handlers) retryJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type updateStatusRequest struct {
	Status      string   `json:"status"`
	OutputPaths []string `json:"outputPaths"`
	Error       string   `json:"error"`
}

func (h *handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}
	status, ok := queue.ParseStatus(req.Status)
	if !ok {
		h.badRequest(w, "unknown status "+strconv.Quote(req.Status))
		return
	}

	job, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, queue.StatusUpdate{
		OutputPaths: req.OutputPaths,
		Error:       req.Error,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type updateNarrationRequest struct {
	Status    string `json:"status"`
	AudioPath string `json:"audioPath"`
	VideoPath string `json:"videoPath"`
}

func (h *handlers) updateNarration(w http.ResponseWriter, r *http.Request) {
	var req updateNarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}
	status, ok := queue.ParseNarrationStatus(req.Status)
	if !ok {
		h.badRequest(w, "unknown narration status "+strconv.Quote(req.Status))
		return
	}

	job, err := h.svc.UpdateNarration(r.Context(), chi.URLParam(r, "id"), status, queue.NarrationUpdate{
		AudioPath: req.AudioPath,
		VideoPath: req.VideoPath,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type setPriorityRequest struct {
	Priority int `json:"priority"`
}

func (h *handlers) setPriority(w http.ResponseWriter, r *http.Request) {
	var req setPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}
	job, err := h.svc.SetPriority(r.Context(), chi.URLParam(r, "id"), req.Priority)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type setScheduleRequest struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
}

func (h *handlers) setSchedule(w http.ResponseWriter, r *http.Request) {
	var req setScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}
	job, err := h.svc.SetSchedule(r.Context(), chi.URLParam(r, "id"), req.ScheduledAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

type setNarrationModeRequest struct {
	Mode   string `json:"mode"`
	Script string `json:"script"`
}

func (h *handlers) setNarrationMode(w http.ResponseWriter, r *http.Request) {
	var req setNarrationModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid payload")
		return
	}
	mode, ok := queue.ParseNarrationMode(req.Mode)
	if !ok {
		h.badRequest(w, "unknown narration mode "+strconv.Quote(req.Mode))
		return
	}

	job, err := h.svc.SetNarrationMode(r.Context(), chi.URLParam(r, "id"), mode, req.Script)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *handlers) archiveJob(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

func (h *handlers) searchArchive(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := archive.Filter{Search: query.Get("search")}
	if value := query.Get("type"); value != "" {
		jobType, ok := queue.ParseJobType(value)
		if !ok {
			h.badRequest(w, "unknown type "+strconv.Quote(value))
			return
		}
		filter.Type = jobType
	}
	if value := query.Get("status"); value != "" {
		status, ok := queue.ParseStatus(value)
		if !ok {
			h.badRequest(w, "unknown status "+strconv.Quote(value))
			return
		}
		filter.Status = status
	}
	if value := query.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			h.badRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if value := query.Get("offset"); value != "" {
		offset, err := strconv.Atoi(value)
		if err != nil || offset < 0 {
			h.badRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := h.svc.ArchiveSearch(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"entries": result.Entries,
		"total":   result.Total,
	})
}
