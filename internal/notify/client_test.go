package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

func testRun() *runs.Run {
	return &runs.Run{
		ID:          "run-1",
		Status:      runs.StatusSucceeded,
		PeriodStart: "2025-08-01",
		PeriodEnd:   "2025-08-31",
		Seed:        42,
		Records:     620,
		Counts:      map[string]int{"manufacturing": 620},
		ArchiveKey:  "runs/run-1/apr_data_2025_08.zip",
	}
}

func TestSendRunUpdate(t *testing.T) {
	var got RunUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/apr-runs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := metrics.New()
	c := NewClient(&config.Config{IngestEndpoint: srv.URL, IngestRunPath: "/api/v1/apr-runs"}, m)

	if err := c.SendRunUpdate(context.Background(), testRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RunID != "run-1" || got.Status != "succeeded" || got.Counts["manufacturing"] != 620 {
		t.Errorf("unexpected payload %+v", got)
	}
	if v := testutil.ToFloat64(m.Notifications.WithLabelValues("sent")); v != 1 {
		t.Errorf("expected 1 sent notification, got %v", v)
	}
}

func TestSendRunUpdateToleratesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	m := metrics.New()
	c := NewClient(&config.Config{IngestEndpoint: srv.URL, IngestRunPath: "/runs"}, m)

	if err := c.SendRunUpdate(context.Background(), testRun()); err != nil {
		t.Fatalf("error status should not fail the run: %v", err)
	}
	srv.Close()
	if err := c.SendRunUpdate(context.Background(), testRun()); err != nil {
		t.Fatalf("unreachable endpoint should not fail the run: %v", err)
	}

	if v := testutil.ToFloat64(m.Notifications.WithLabelValues("rejected")); v != 1 {
		t.Errorf("expected 1 rejected, got %v", v)
	}
	if v := testutil.ToFloat64(m.Notifications.WithLabelValues("unavailable")); v != 1 {
		t.Errorf("expected 1 unavailable, got %v", v)
	}
}
