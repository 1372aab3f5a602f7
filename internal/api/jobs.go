package api

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/period"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

const (
	defaultJobListLimit = 50
	archiveURLExpiry    = 15 * time.Minute
)

func (h *Handler) jobsEnabled(w http.ResponseWriter) bool {
	if h.opts.Runner == nil || h.opts.Store == nil || h.opts.Blobs == nil {
		http.Error(w, "Background jobs are not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// HandleCreateJob handles POST /api/jobs
func (h *Handler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	if !h.jobsEnabled(w) {
		return
	}
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	kind := period.Kind(req.Kind)
	if kind == "" {
		kind = period.KindMonth
	}
	spec, err := h.resolve(kind, req)
	if err != nil {
		writeError(w, err)
		return
	}

	run, err := h.opts.Runner.Submit(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/jobs/"+run.ID)
	h.writeJSONStatus(w, http.StatusAccepted, run)
}

// HandleListJobs handles GET /api/jobs?limit=
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	if !h.jobsEnabled(w) {
		return
	}
	limit := defaultJobListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, err := h.opts.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, list)
}

// HandleGetJob handles GET /api/jobs/{id}
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	if !h.jobsEnabled(w) {
		return
	}
	run, err := h.opts.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, run)
}

func (h *Handler) finishedRun(w http.ResponseWriter, r *http.Request) (runs.Run, bool) {
	run, err := h.opts.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return run, false
	}
	if run.Status != runs.StatusSucceeded || run.ArchiveKey == "" {
		http.Error(w, "Run "+run.ID+" has no archive (status "+string(run.Status)+")", http.StatusConflict)
		return run, false
	}
	return run, true
}

// HandleJobArchive handles GET /api/jobs/{id}/archive
func (h *Handler) HandleJobArchive(w http.ResponseWriter, r *http.Request) {
	if !h.jobsEnabled(w) {
		return
	}
	run, ok := h.finishedRun(w, r)
	if !ok {
		return
	}

	info, body, err := h.opts.Blobs.Get(r.Context(), run.ArchiveKey)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+path.Base(run.ArchiveKey))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Warn().Err(err).Str("runId", run.ID).Msg("Archive download interrupted")
	}
}

// HandleJobArchiveURL handles GET /api/jobs/{id}/archive/url
func (h *Handler) HandleJobArchiveURL(w http.ResponseWriter, r *http.Request) {
	if !h.jobsEnabled(w) {
		return
	}
	run, ok := h.finishedRun(w, r)
	if !ok {
		return
	}

	url, err := h.opts.Blobs.PresignURL(r.Context(), run.ArchiveKey, blob.SignedURLOptions{
		Method: http.MethodGet,
		Expiry: archiveURLExpiry,
	})
	if errors.Is(err, blob.ErrUnsupported) {
		http.Error(w, "Archive store "+string(h.opts.Blobs.Driver())+" cannot sign URLs", http.StatusNotImplemented)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeJSON(w, ArchiveURLResponse{URL: url, ExpiresIn: int(archiveURLExpiry.Seconds())})
}
