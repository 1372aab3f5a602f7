package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/health"
	"github.com/sebastiankruger/apr-datagen/internal/jobs"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router  http.Handler
	runtime *config.RuntimeConfig
	runner  *jobs.Runner
	store   *runs.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := runs.Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	genOpts := []generator.Option{generator.WithClock(func() time.Time { return fixedNow })}
	m := metrics.New()
	blobs := blob.NewMemory()
	runner := jobs.NewRunner(jobs.Options{
		Store:            store,
		Blobs:            blobs,
		Metrics:          m,
		MaxWorkers:       1,
		GeneratorOptions: genOpts,
	})
	t.Cleanup(runner.Stop)

	rc := config.NewRuntimeConfig(&config.Config{Seed: 42, BatchesPerDay: 20, ComplaintRate: 0.008, CAPABaseCount: 10})
	h := NewHandler(Options{
		Runtime:          rc,
		GeneratorOptions: genOpts,
		Metrics:          m,
		Runner:           runner,
		Store:            store,
		Blobs:            blobs,
	})
	return &testServer{
		router:  NewRouter(h, health.NewHandler(), m),
		runtime: rc,
		runner:  runner,
		store:   store,
	}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func zipEntries(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names
}

func TestDataTypesAndScenarios(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/generate/data-types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("data-types: %d", rec.Code)
	}
	var types []DataTypeInfo
	decodeJSON(t, rec, &types)
	if len(types) != 9 || types[0].Name != "manufacturing" || types[0].ApproximateColumns != 45 {
		t.Errorf("unexpected data types %+v", types)
	}

	rec = s.do(t, http.MethodGet, "/api/generate/scenarios", "")
	var sc ScenariosResponse
	decodeJSON(t, rec, &sc)
	if sc.TotalScenarios != 7 || len(sc.Scenarios) != 7 {
		t.Errorf("expected 7 scenarios, got %d", sc.TotalScenarios)
	}
}

func TestDownloadArchives(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name     string
		target   string
		body     string
		filename string
		entries  string
	}{
		{
			name:     "month",
			target:   "/api/generate/month/download",
			body:     `{"year":2025,"month":8,"batches_per_day":1,"data_types":["capa","qc"]}`,
			filename: "apr_data_2025_08.zip",
			entries:  "2025_08_qc.csv,2025_08_capa.csv",
		},
		{
			name:     "year",
			target:   "/api/generate/year/download",
			body:     `{"year":2024,"batches_per_day":1,"data_types":["equipment"]}`,
			filename: "apr_data_2024_full_year.zip",
			entries:  "2024_full_year_equipment.csv",
		},
		{
			name:     "custom",
			target:   "/api/generate/custom/download",
			body:     `{"start_date":"2025-01-01","end_date":"2025-03-31","batches_per_day":1,"data_types":["raw_materials"]}`,
			filename: "apr_data_2025-01-01_to_2025-03-31.zip",
			entries:  "2025-01-01_to_2025-03-31_raw_materials.csv",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.target, tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename="+tc.filename {
				t.Errorf("unexpected disposition %q", got)
			}
			if got := strings.Join(zipEntries(t, rec.Body.Bytes()), ","); got != tc.entries {
				t.Errorf("expected entries %s, got %s", tc.entries, got)
			}
		})
	}
}

func TestGenerateValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{"year too early", "/api/generate/month/download", `{"year":2019,"month":1}`, "year must be between"},
		{"month out of range", "/api/generate/month/download", `{"year":2025,"month":13}`, "month must be between"},
		{"zero batches", "/api/generate/year/download", `{"year":2025,"batches_per_day":0}`, "batches_per_day"},
		{"too many batches", "/api/generate/month/preview", `{"year":2025,"month":1,"batches_per_day":101}`, "batches_per_day"},
		{"unknown type", "/api/generate/month/download", `{"year":2025,"month":1,"data_types":["lab_notebooks"]}`, "valid types: manufacturing"},
		{"end before start", "/api/generate/custom/download", `{"start_date":"2025-03-01","end_date":"2025-02-01"}`, "end date must be after start date"},
		{"bad date", "/api/generate/custom/download", `{"start_date":"2025/03/01","end_date":"2025-04-01"}`, "YYYY-MM-DD"},
		{"custom span too wide", "/api/generate/custom/download", `{"start_date":"1900-01-01","end_date":"2100-12-31","batches_per_day":100}`, "year must be between 2020 and 2030"},
		{"bad json", "/api/generate/month/download", `{"year":`, "invalid JSON"},
		{"unknown kind", "/api/generate/week/download", `{"year":2025}`, "unknown period kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.target, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Errorf("expected %q in %q", tc.want, rec.Body.String())
			}
		})
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/generate/month/preview", `{"year":2025,"month":8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp PreviewResponse
	decodeJSON(t, rec, &resp)
	if !resp.Success || resp.PeriodStart != "2025-08-01" || resp.PeriodEnd != "2025-08-31" {
		t.Errorf("unexpected preview header %+v", resp)
	}
	if len(resp.FilesGenerated) != 9 || resp.FilesGenerated[0] != "manufacturing.csv" {
		t.Errorf("unexpected files %v", resp.FilesGenerated)
	}
	want := map[string]int{"manufacturing": 620, "complaints": 4, "capa": 10, "environmental": 558, "raw_materials": 22}
	for dt, n := range want {
		if resp.TotalRecords[dt] != n {
			t.Errorf("%s: expected %d, got %d", dt, n, resp.TotalRecords[dt])
		}
	}
}

func TestSingleDataType(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/generate/single/qc?year=2025&month=8&batches_per_day=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=2025_08_qc.csv" {
		t.Errorf("unexpected disposition %q", got)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 32 || records[0][0] != "sample_id" {
		t.Errorf("expected header plus 31 rows, got %d rows", len(records))
	}

	for _, target := range []string{
		"/api/generate/single/lab_notebooks?year=2025&month=8",
		"/api/generate/single/qc?month=8",
		"/api/generate/single/qc?year=2025&month=x",
	} {
		if rec := s.do(t, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/config", "")
	var cfg ConfigResponse
	decodeJSON(t, rec, &cfg)
	if cfg.Seed != 42 || cfg.BatchesPerDay != 20 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if rec := s.do(t, http.MethodPost, "/api/config", `{"batchesPerDay":500}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out of range batches, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/config", `{"batchesPerDay":5,"seed":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	decodeJSON(t, rec, &cfg)
	if cfg.Seed != 7 || cfg.BatchesPerDay != 5 || s.runtime.BatchesPerDay() != 5 {
		t.Errorf("update not applied: %+v", cfg)
	}

	if rec := s.do(t, http.MethodOptions, "/api/config", ""); rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected CORS preflight headers")
	}
}

func TestJobLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/jobs", `{"kind":"month","year":2025,"month":8,"batches_per_day":1,"data_types":["capa"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var queued runs.Run
	decodeJSON(t, rec, &queued)
	if queued.Status != runs.StatusQueued || queued.Prefix != "2025_08" {
		t.Fatalf("unexpected queued run %+v", queued)
	}

	s.runner.Stop()

	rec = s.do(t, http.MethodGet, "/api/jobs/"+queued.ID, "")
	var done runs.Run
	decodeJSON(t, rec, &done)
	if done.Status != runs.StatusSucceeded || done.Counts["capa"] != 13 {
		t.Fatalf("unexpected finished run %+v", done)
	}

	rec = s.do(t, http.MethodGet, "/api/jobs/"+queued.ID+"/archive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("archive: %d %s", rec.Code, rec.Body.String())
	}
	if got := strings.Join(zipEntries(t, rec.Body.Bytes()), ","); got != "2025_08_capa.csv" {
		t.Errorf("unexpected archive entries %s", got)
	}

	if rec := s.do(t, http.MethodGet, "/api/jobs/"+queued.ID+"/archive/url", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("memory store cannot sign, expected 501, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/jobs?limit=10", "")
	var list []runs.Run
	decodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != queued.ID {
		t.Errorf("unexpected job list %+v", list)
	}

	if rec := s.do(t, http.MethodGet, "/api/jobs/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing run, got %d", rec.Code)
	}
}

func TestJobArchiveRequiresSuccess(t *testing.T) {
	s := newTestServer(t)
	run := &runs.Run{ID: "pending", Status: runs.StatusQueued, CreatedAt: fixedNow}
	if err := s.store.Create(context.Background(), run); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec := s.do(t, http.MethodGet, "/api/jobs/pending/archive", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/jobs", `{"kind":"year","year":1999}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid job period, got %d", rec.Code)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/generate/month/download", `{"year":2025,"month":2,"batches_per_day":1,"data_types":["capa"]}`)

	if rec := s.do(t, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live: %d", rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `aprgen_generations_total{outcome="success",source="download"} 1`) {
		t.Errorf("download not counted in metrics output")
	}
}
