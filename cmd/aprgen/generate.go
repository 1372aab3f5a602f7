package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/apr-datagen/internal/blob"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/export"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/jobs"
	"github.com/sebastiankruger/apr-datagen/internal/period"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

type generateFlags struct {
	month         string
	year          int
	start         string
	end           string
	types         []string
	seed          int64
	batchesPerDay int
	out           string
	upload        bool
}

func generateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one period as a ZIP of CSV files",
		Example: "  aprgen generate --month 2025-08\n" +
			"  aprgen generate --year 2024 --types manufacturing,qc --upload\n" +
			"  aprgen generate --start 2025-01-01 --end 2025-03-31 --out q1.zip",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.month, "month", "", "month to generate, YYYY-MM")
	flags.IntVar(&f.year, "year", 0, "year to generate")
	flags.StringVar(&f.start, "start", "", "custom period start, YYYY-MM-DD")
	flags.StringVar(&f.end, "end", "", "custom period end, YYYY-MM-DD")
	flags.StringSliceVar(&f.types, "types", nil, "data types to generate (default all)")
	flags.Int64Var(&f.seed, "seed", 0, "random seed (default SEED)")
	flags.IntVar(&f.batchesPerDay, "batches-per-day", 0, "batches per day (default BATCHES_PER_DAY)")
	flags.StringVar(&f.out, "out", "", "output file (default the archive name)")
	flags.BoolVar(&f.upload, "upload", false, "store the archive in the configured blob store instead of a file")
	cmd.MarkFlagsMutuallyExclusive("month", "year", "start")
	cmd.MarkFlagsRequiredTogether("start", "end")
	cmd.MarkFlagsOneRequired("month", "year", "start")
	return cmd
}

func (f generateFlags) period() (period.Period, error) {
	switch {
	case f.month != "":
		t, err := time.Parse("2006-01", f.month)
		if err != nil {
			return period.Period{}, fmt.Errorf("%w: --month must be YYYY-MM, got %q", core.ErrInvalidPeriod, f.month)
		}
		return period.Month(t.Year(), int(t.Month()))
	case f.year != 0:
		return period.Year(f.year)
	case f.start != "":
		return period.ParseCustom(f.start, f.end)
	}
	return period.Period{}, errors.New("one of --month, --year or --start/--end is required")
}

func runGenerate(cmd *cobra.Command, f generateFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := f.period()
	if err != nil {
		return err
	}
	types, err := core.ParseDataTypes(f.types)
	if err != nil {
		return err
	}
	spec := jobs.Spec{
		Period:        p,
		Seed:          cfg.Seed,
		BatchesPerDay: cfg.BatchesPerDay,
		DataTypes:     types,
		ComplaintRate: cfg.ComplaintRate,
		CAPABaseCount: cfg.CAPABaseCount,
	}
	if cmd.Flags().Changed("seed") {
		spec.Seed = f.seed
	}
	if cmd.Flags().Changed("batches-per-day") {
		spec.BatchesPerDay = f.batchesPerDay
	}
	if err := period.ValidateBatchesPerDay(spec.BatchesPerDay); err != nil {
		return err
	}

	opts, err := generatorOptions(cfg, scenario.Default())
	if err != nil {
		return err
	}
	started := time.Now()
	ds, err := generator.New(append(opts, generator.WithSeed(spec.Seed))...).Generate(spec.Request())
	if err != nil {
		return err
	}
	data, err := export.Archive(ds, p.Prefix)
	if err != nil {
		return err
	}
	name := p.ArchiveName(cfg.ArchivePrefix)

	log.Info().
		Str("period", p.String()).
		Int64("seed", spec.Seed).
		Int("records", ds.Total()).
		Dur("elapsed", time.Since(started)).
		Msg("Dataset generated")

	if f.upload {
		return upload(cmd.Context(), cfg.Blob(), name, data)
	}

	out := f.out
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func upload(ctx context.Context, cfg blob.Config, name string, data []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := blob.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open archive store: %w", err)
	}
	key := jobs.ArchiveKey("cli-"+uuid.NewString(), name)
	info, err := store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/zip"})
	if err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	log.Info().
		Str("driver", string(store.Driver())).
		Str("key", info.Key).
		Int64("bytes", info.Size).
		Msg("Archive uploaded")
	return nil
}
