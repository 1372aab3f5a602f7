// Package notify posts finished generation runs to a downstream ingest service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/metrics"
	"github.com/sebastiankruger/apr-datagen/internal/runs"
)

// Client handles communication with the ingest endpoint
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewClient creates a new ingest client. m may be nil.
func NewClient(cfg *config.Config, m *metrics.Metrics) *Client {
	return &Client{
		url:     cfg.IngestEndpoint + cfg.IngestRunPath,
		metrics: m,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunUpdate is the payload posted for a finished run.
type RunUpdate struct {
	RunID       string         `json:"runId"`
	Status      string         `json:"status"`
	PeriodStart string         `json:"periodStart"`
	PeriodEnd   string         `json:"periodEnd"`
	Seed        int64          `json:"seed"`
	Records     int            `json:"records"`
	Counts      map[string]int `json:"counts,omitempty"`
	ArchiveKey  string         `json:"archiveKey,omitempty"`
	Error       string         `json:"error,omitempty"`
	FinishedAt  *time.Time     `json:"finishedAt,omitempty"`
}

func updateFor(run *runs.Run) RunUpdate {
	return RunUpdate{
		RunID:       run.ID,
		Status:      string(run.Status),
		PeriodStart: run.PeriodStart,
		PeriodEnd:   run.PeriodEnd,
		Seed:        run.Seed,
		Records:     run.Records,
		Counts:      run.Counts,
		ArchiveKey:  run.ArchiveKey,
		Error:       run.Error,
		FinishedAt:  run.FinishedAt,
	}
}

// SendRunUpdate posts the run state to the ingest endpoint
func (c *Client) SendRunUpdate(ctx context.Context, run *runs.Run) error {
	payload, err := json.Marshal(updateFor(run))
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count("unavailable")
		log.Warn().Err(err).Str("url", c.url).Msg("Failed to send run update (ingest endpoint may not be available)")
		return nil // a missing consumer never fails a run
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.count("rejected")
		log.Warn().
			Int("status", resp.StatusCode).
			Str("runId", run.ID).
			Msg("Ingest endpoint returned error status for run update")
	} else {
		c.count("sent")
		log.Debug().
			Str("runId", run.ID).
			Str("status", string(run.Status)).
			Msg("Run update sent")
	}

	return nil
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.Notifications.WithLabelValues(outcome).Inc()
	}
}
