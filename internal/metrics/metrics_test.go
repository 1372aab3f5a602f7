package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

func TestObserveGeneration(t *testing.T) {
	m := New()
	m.ObserveGeneration("download", map[core.DataType]int{core.DataTypeQC: 10, core.DataTypeCAPA: 3}, time.Second, nil)
	m.ObserveGeneration("download", map[core.DataType]int{core.DataTypeQC: 5}, time.Second, nil)
	m.ObserveGeneration("job", nil, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.Records.WithLabelValues("qc")); got != 15 {
		t.Fatalf("qc records = %v", got)
	}
	if got := testutil.ToFloat64(m.Generations.WithLabelValues("download", "success")); got != 2 {
		t.Fatalf("download successes = %v", got)
	}
	if got := testutil.ToFloat64(m.Generations.WithLabelValues("job", "failure")); got != 1 {
		t.Fatalf("job failures = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.JobsInFlight.Set(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "aprgen_jobs_in_flight 2") {
		t.Fatalf("gauge missing from output:\n%s", body)
	}
}
