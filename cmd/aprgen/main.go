package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/config"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aprgen",
		Short:         "Synthetic pharmaceutical APR data generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(scenariosCmd())
	rootCmd.AddCommand(dataTypesCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig reads the configuration and sets up the global logger.
func loadConfig() (*config.Config, error) {
	setupLogging("info", "console")
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func setupLogging(level, format string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if strings.EqualFold(format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// generatorOptions applies the optional catalog overlay.
func generatorOptions(cfg *config.Config, scenarios *scenario.Table) ([]generator.Option, error) {
	opts := []generator.Option{generator.WithScenarios(scenarios)}
	if cfg.CatalogFile != "" {
		c, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogFile, err)
		}
		log.Info().Str("file", cfg.CatalogFile).Msg("Catalog overlay loaded")
		opts = append(opts, generator.WithCatalog(c))
	}
	return opts, nil
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the anomaly scenarios embedded in generated data",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range scenario.Default().Describe() {
				names := make([]string, len(info.DataTypesAffected))
				for i, dt := range info.DataTypesAffected {
					names[i] = string(dt)
				}
				fmt.Fprintf(out, "%-26s %s\n", info.Period, info.Scenario)
				fmt.Fprintf(out, "%-26s effects: %s\n", "", strings.Join(info.Effects, "; "))
				fmt.Fprintf(out, "%-26s affects: %s\n", "", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

func dataTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "data-types",
		Short: "List the datasets that can be generated",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, info := range core.DataTypeInfos() {
				fmt.Fprintf(out, "%-14s %-30s %3d columns  %s\n", info.ID, info.Name, info.Columns, info.Description)
			}
			return nil
		},
	}
}
