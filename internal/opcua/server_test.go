package opcua

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

func TestPublishRunWithoutServer(t *testing.T) {
	s := NewServer(4840, "apr-datagen", t.TempDir())
	if s.Running() {
		t.Fatal("server must not run before Start")
	}

	s.PublishRun(runs.Run{ID: "a", Status: runs.StatusSucceeded, Prefix: "2025_08", Records: 75})
	s.PublishRun(runs.Run{ID: "b", Status: runs.StatusFailed, Prefix: "2025_09"})
	s.PublishJobsInFlight(3)
	s.PublishScenario("Press-B drift")

	want := map[string]any{
		NodeLastRunID:      "b",
		NodeLastRunStatus:  "failed",
		NodeLastRunPeriod:  "2025_09",
		NodeLastRunRecords: int32(0),
		NodeRunsCompleted:  int32(1),
		NodeRunsFailed:     int32(1),
		NodeJobsInFlight:   int32(3),
		NodeTodayScenario:  "Press-B drift",
	}
	got := s.Values()
	if len(got) != len(statusNodes) {
		t.Fatalf("expected %d nodes, got %d", len(statusNodes), len(got))
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s: expected %v (%T), got %v (%T)", name, w, w, got[name], got[name])
		}
	}
}

func TestSeedCountersContinueFromLedger(t *testing.T) {
	s := NewServer(4840, "apr-datagen", t.TempDir())
	s.SeedCounters(5, 2)
	s.PublishRun(runs.Run{ID: "c", Status: runs.StatusSucceeded})

	if v, _ := s.Value(NodeRunsCompleted); v != int32(6) {
		t.Errorf("expected 6 completed, got %v", v)
	}
	if v, _ := s.Value(NodeRunsFailed); v != int32(2) {
		t.Errorf("expected 2 failed, got %v", v)
	}
}

func TestEnsurePKICreatesCertificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pki")
	certPath, keyPath, err := ensurePKI(dir, "apr-datagen")
	if err != nil {
		t.Fatalf("ensurePKI: %v", err)
	}

	raw, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatalf("read cert: %v", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		t.Fatal("certificate is not PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	if cert.Subject.CommonName != "apr-datagen" || len(cert.URIs) != 1 || cert.URIs[0].String() != "urn:"+applicationURN {
		t.Errorf("unexpected certificate subject %v uris %v", cert.Subject, cert.URIs)
	}
	if info, err := os.Stat(keyPath); err != nil || info.Mode().Perm() != 0o600 {
		t.Errorf("key file missing or too open: %v", err)
	}

	// second call reuses the files
	again, _, err := ensurePKI(dir, "apr-datagen")
	if err != nil || again != certPath {
		t.Fatalf("expected reuse of %s, got %s (%v)", certPath, again, err)
	}
}
