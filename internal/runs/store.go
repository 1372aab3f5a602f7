package runs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store persists runs.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the sqlite database at dsn, creating its
// directory when dsn is a file path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := ensureDir(dsn); err != nil {
		return nil, fmt.Errorf("ensure sqlite directory: %w", err)
	}
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	log.Info().Str("dsn", dsn).Msg("Run ledger opened")
	return s, nil
}

// New wraps an existing connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the runs table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Run{}); err != nil {
		return fmt.Errorf("migrate runs: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create inserts a new run.
func (s *Store) Create(ctx context.Context, run *Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// Get loads a run by id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := s.db.WithContext(ctx).Order("created_at desc").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []Run
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// CountByStatus returns how many runs are in status.
func (s *Store) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Run{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// MarkRunning moves a queued run to running.
func (s *Store) MarkRunning(ctx context.Context, id string, at time.Time) error {
	return s.update(ctx, id, map[string]any{
		"status":     StatusRunning,
		"started_at": at,
	})
}

// Complete records a successful run.
func (s *Store) Complete(ctx context.Context, id string, counts map[string]int, archiveKey string, archiveSize int64, at time.Time) error {
	total := 0
	for _, n := range counts {
		total += n
	}
	res := s.db.WithContext(ctx).Model(&Run{ID: id}).
		Select("status", "records", "counts", "archive_key", "archive_size", "finished_at").
		Updates(&Run{
			Status:      StatusSucceeded,
			Records:     total,
			Counts:      counts,
			ArchiveKey:  archiveKey,
			ArchiveSize: archiveSize,
			FinishedAt:  &at,
		})
	if res.Error != nil {
		return fmt.Errorf("complete run %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Fail records a failed run.
func (s *Store) Fail(ctx context.Context, id string, reason string, at time.Time) error {
	return s.update(ctx, id, map[string]any{
		"status":      StatusFailed,
		"error":       reason,
		"finished_at": at,
	})
}

func (s *Store) update(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&Run{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update run %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func ensureDir(dsn string) error {
	path := strings.TrimSpace(dsn)
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
