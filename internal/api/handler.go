package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/export"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/jobs"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/period"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

const scenariosNote = "These scenarios are embedded deterministically. " +
	"The same date range and seed always produce the same anomalies."

// Options wires a Handler. Runner, Store and Blobs are only needed for the
// job endpoints; Metrics is optional.
type Options struct {
	Runtime          *config.RuntimeConfig
	Scenarios        *scenario.Table
	GeneratorOptions []generator.Option
	ArchivePrefix    string
	Metrics          *metrics.Metrics
	Runner           *jobs.Runner
	Store            *runs.Store
	Blobs            blob.Store
}

// Handler handles REST API requests for the generator
type Handler struct {
	opts Options
}

// NewHandler creates an API handler
func NewHandler(opts Options) *Handler {
	if opts.Scenarios == nil {
		opts.Scenarios = scenario.Default()
	}
	if opts.ArchivePrefix == "" {
		opts.ArchivePrefix = "apr_data"
	}
	return &Handler{opts: opts}
}

// requestError marks client mistakes that map to 400.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func statusFor(err error) int {
	var re *requestError
	switch {
	case errors.As(err, &re),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrUnknownDataType):
		return http.StatusBadRequest
	case errors.Is(err, runs.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), code)
}

// resolve turns a request into a generation spec, filling unset knobs from
// the runtime config.
func (h *Handler) resolve(kind period.Kind, req GenerateRequest) (jobs.Spec, error) {
	var (
		p   period.Period
		err error
	)
	switch kind {
	case period.KindMonth:
		p, err = period.Month(req.Year, req.Month)
	case period.KindYear:
		p, err = period.Year(req.Year)
	case period.KindCustom:
		p, err = period.ParseCustom(req.StartDate, req.EndDate)
	default:
		err = badRequest(fmt.Errorf("unknown period kind %q (valid kinds: month, year, custom)", kind))
	}
	if err != nil {
		return jobs.Spec{}, err
	}

	snap := h.opts.Runtime.Snapshot()
	spec := jobs.Spec{
		Period:        p,
		Seed:          snap.Seed,
		BatchesPerDay: snap.BatchesPerDay,
		ComplaintRate: snap.ComplaintRate,
		CAPABaseCount: snap.CAPABaseCount,
	}
	if req.Seed != nil {
		spec.Seed = *req.Seed
	}
	if req.BatchesPerDay != nil {
		spec.BatchesPerDay = *req.BatchesPerDay
	}
	if err := period.ValidateBatchesPerDay(spec.BatchesPerDay); err != nil {
		return jobs.Spec{}, badRequest(err)
	}
	spec.DataTypes, err = core.ParseDataTypes(req.DataTypes)
	if err != nil {
		return jobs.Spec{}, err
	}
	return spec, nil
}

func (h *Handler) generatorOptions(seed int64) []generator.Option {
	opts := make([]generator.Option, 0, len(h.opts.GeneratorOptions)+2)
	opts = append(opts, generator.WithScenarios(h.opts.Scenarios))
	opts = append(opts, h.opts.GeneratorOptions...)
	return append(opts, generator.WithSeed(seed))
}

func (h *Handler) observe(source string, counts map[core.DataType]int, started time.Time, err error) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveGeneration(source, counts, time.Since(started), err)
	}
}

func decodeRequest(r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, badRequest(fmt.Errorf("invalid JSON: %w", err))
	}
	return req, nil
}

// HandleDataTypes handles GET /api/generate/data-types
func (h *Handler) HandleDataTypes(w http.ResponseWriter, r *http.Request) {
	infos := core.DataTypeInfos()
	resp := make([]DataTypeInfo, len(infos))
	for i, info := range infos {
		resp[i] = dataTypeInfo(info)
	}
	h.writeJSON(w, resp)
}

// HandleScenarios handles GET /api/generate/scenarios
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := h.opts.Scenarios.Describe()
	h.writeJSON(w, ScenariosResponse{
		TotalScenarios: len(scenarios),
		Scenarios:      scenarios,
		Note:           scenariosNote,
	})
}

// HandleDownload handles POST /api/generate/{kind}/download
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := h.resolve(period.Kind(chi.URLParam(r, "kind")), req)
	if err != nil {
		writeError(w, err)
		return
	}

	started := time.Now()
	ds, err := generator.New(h.generatorOptions(spec.Seed)...).Generate(spec.Request())
	if err != nil {
		h.observe("download", nil, started, err)
		writeError(w, err)
		return
	}
	data, err := export.Archive(ds, spec.Period.Prefix)
	h.observe("download", ds.Counts(), started, err)
	if err != nil {
		writeError(w, fmt.Errorf("generation failed: %w", err))
		return
	}

	name := spec.Period.ArchiveName(h.opts.ArchivePrefix)
	log.Info().
		Str("period", spec.Period.String()).
		Int("records", ds.Total()).
		Int("bytes", len(data)).
		Msg("Archive generated")

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandlePreview handles POST /api/generate/month/preview
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := h.resolve(period.KindMonth, req)
	if err != nil {
		writeError(w, err)
		return
	}

	est := generator.EstimateRecords(spec.Period.Start, spec.Period.End, spec.BatchesPerDay, spec.DataTypes)
	resp := PreviewResponse{
		Success:        true,
		Message:        fmt.Sprintf("Preview for %d/%d", req.Month, req.Year),
		FilesGenerated: make([]string, 0, len(spec.DataTypes)),
		TotalRecords:   make(map[string]int, len(est)),
		PeriodStart:    spec.Period.Start.Format(core.DateLayout),
		PeriodEnd:      spec.Period.End.Format(core.DateLayout),
	}
	for _, dt := range spec.DataTypes {
		resp.FilesGenerated = append(resp.FilesGenerated, string(dt)+".csv")
		resp.TotalRecords[string(dt)] = est[dt]
	}
	h.writeJSON(w, resp)
}

// HandleSingle handles GET /api/generate/single/{dataType}?year=&month=&batches_per_day=
func (h *Handler) HandleSingle(w http.ResponseWriter, r *http.Request) {
	dt := core.DataType(chi.URLParam(r, "dataType"))
	if !dt.Valid() {
		writeError(w, fmt.Errorf("%w: %s", core.ErrUnknownDataType, dt))
		return
	}

	q := r.URL.Query()
	req := GenerateRequest{DataTypes: []string{string(dt)}}
	var err error
	if req.Year, err = queryInt(q.Get("year"), "year"); err != nil {
		writeError(w, err)
		return
	}
	if req.Month, err = queryInt(q.Get("month"), "month"); err != nil {
		writeError(w, err)
		return
	}
	if raw := q.Get("batches_per_day"); raw != "" {
		n, err := queryInt(raw, "batches_per_day")
		if err != nil {
			writeError(w, err)
			return
		}
		req.BatchesPerDay = &n
	}

	spec, err := h.resolve(period.KindMonth, req)
	if err != nil {
		writeError(w, err)
		return
	}

	started := time.Now()
	files, err := export.GenerateCSV(spec.Request(), h.generatorOptions(spec.Seed)...)
	h.observe("single", nil, started, err)
	if err != nil {
		writeError(w, fmt.Errorf("generation failed: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.FileName(spec.Period.Prefix, dt))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(files[dt])
}

func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, badRequest(fmt.Errorf("%s is required", name))
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(fmt.Errorf("%s must be an integer, got %q", name, raw))
	}
	return n, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// HandleConfig handles GET and POST /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// Handle CORS preflight
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleConfigGet(w, r)
	case http.MethodPost:
		h.handleConfigUpdate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) configResponse() ConfigResponse {
	snapshot := h.opts.Runtime.Snapshot()
	return ConfigResponse{
		Seed:          snapshot.Seed,
		BatchesPerDay: snapshot.BatchesPerDay,
		ComplaintRate: snapshot.ComplaintRate,
		CAPABaseCount: snapshot.CAPABaseCount,
	}
}

func (h *Handler) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.configResponse())
}

func (h *Handler) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var req ConfigUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	rc := h.opts.Runtime

	if req.BatchesPerDay != nil {
		if err := rc.SetBatchesPerDay(*req.BatchesPerDay); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if req.ComplaintRate != nil {
		if err := rc.SetComplaintRate(*req.ComplaintRate); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if req.CAPABaseCount != nil {
		if err := rc.SetCAPABaseCount(*req.CAPABaseCount); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if req.Seed != nil {
		rc.SetSeed(*req.Seed)
	}

	resp := h.configResponse()
	log.Info().
		Int64("seed", resp.Seed).
		Int("batchesPerDay", resp.BatchesPerDay).
		Float64("complaintRate", resp.ComplaintRate).
		Int("capaBaseCount", resp.CAPABaseCount).
		Msg("Runtime config updated")

	h.writeJSON(w, resp)
}
