// Package runs is the ledger of generation runs, persisted with gorm on sqlite.
package runs

import (
	"strings"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the run reached a terminal state.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Run is one background generation and, once finished, its archive.
type Run struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Kind          string         `gorm:"size:16" json:"kind"`
	PeriodStart   string         `gorm:"size:10" json:"period_start"`
	PeriodEnd     string         `gorm:"size:10" json:"period_end"`
	Prefix        string         `gorm:"size:64" json:"prefix"`
	Seed          int64          `json:"seed"`
	BatchesPerDay int            `json:"batches_per_day"`
	DataTypes     string         `json:"data_types"`
	Status        Status         `gorm:"size:16;index" json:"status"`
	Error         string         `json:"error,omitempty"`
	Records       int            `json:"records"`
	Counts        map[string]int `gorm:"serializer:json" json:"counts,omitempty"`
	ArchiveKey    string         `json:"archive_key,omitempty"`
	ArchiveSize   int64          `json:"archive_size,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	StartedAt     *time.Time     `json:"started_at,omitempty"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
}

// TableName pins the table name.
func (Run) TableName() string { return "generation_runs" }

// Types returns the requested data types.
func (r Run) Types() []core.DataType {
	if r.DataTypes == "" {
		return nil
	}
	parts := strings.Split(r.DataTypes, ",")
	types := make([]core.DataType, len(parts))
	for i, p := range parts {
		types[i] = core.DataType(p)
	}
	return types
}

// JoinTypes is the inverse of Types.
func JoinTypes(types []core.DataType) string {
	names := make([]string, len(types))
	for i, dt := range types {
		names[i] = string(dt)
	}
	return strings.Join(names, ",")
}
