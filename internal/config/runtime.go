package config

import (
	"fmt"
	"sync"
)

// RuntimeConfig holds generation defaults that can be changed at runtime.
// All methods are thread-safe.
type RuntimeConfig struct {
	mu            sync.RWMutex
	seed          int64
	batchesPerDay int     // 1 - 100
	complaintRate float64 // 0.0 - 0.5
	capaBaseCount int     // 0 - 100
}

// NewRuntimeConfig seeds the runtime values from the static Config.
func NewRuntimeConfig(cfg *Config) *RuntimeConfig {
	return &RuntimeConfig{
		seed:          cfg.Seed,
		batchesPerDay: cfg.BatchesPerDay,
		complaintRate: cfg.ComplaintRate,
		capaBaseCount: cfg.CAPABaseCount,
	}
}

// Seed returns the seed used for new generators.
func (rc *RuntimeConfig) Seed() int64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.seed
}

// BatchesPerDay returns the default batches per day.
func (rc *RuntimeConfig) BatchesPerDay() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.batchesPerDay
}

// ComplaintRate returns the base complaint probability per batch.
func (rc *RuntimeConfig) ComplaintRate() float64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.complaintRate
}

// CAPABaseCount returns the CAPAs opened per month before scenario modifiers.
func (rc *RuntimeConfig) CAPABaseCount() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.capaBaseCount
}

// SetSeed sets the seed. Any value is accepted.
func (rc *RuntimeConfig) SetSeed(seed int64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.seed = seed
}

// SetBatchesPerDay sets the default batches per day.
// Valid range: 1 - 100
func (rc *RuntimeConfig) SetBatchesPerDay(n int) error {
	if n < 1 || n > 100 {
		return fmt.Errorf("batches per day must be between 1 and 100, got %d", n)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.batchesPerDay = n
	return nil
}

// SetComplaintRate sets the base complaint rate.
// Valid range: 0.0 - 0.5
func (rc *RuntimeConfig) SetComplaintRate(rate float64) error {
	if rate < 0.0 || rate > 0.5 {
		return fmt.Errorf("complaint rate must be between 0.0 and 0.5, got %f", rate)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.complaintRate = rate
	return nil
}

// SetCAPABaseCount sets the monthly CAPA base count.
// Valid range: 0 - 100
func (rc *RuntimeConfig) SetCAPABaseCount(n int) error {
	if n < 0 || n > 100 {
		return fmt.Errorf("CAPA base count must be between 0 and 100, got %d", n)
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.capaBaseCount = n
	return nil
}

// RuntimeConfigSnapshot is a point-in-time copy of the runtime values.
type RuntimeConfigSnapshot struct {
	Seed          int64
	BatchesPerDay int
	ComplaintRate float64
	CAPABaseCount int
}

// Snapshot returns a point-in-time copy of all runtime config values.
func (rc *RuntimeConfig) Snapshot() RuntimeConfigSnapshot {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return RuntimeConfigSnapshot{
		Seed:          rc.seed,
		BatchesPerDay: rc.batchesPerDay,
		ComplaintRate: rc.complaintRate,
		CAPABaseCount: rc.capaBaseCount,
	}
}
