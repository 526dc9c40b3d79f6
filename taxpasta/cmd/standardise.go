package cmd

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Doomsbay/TaxPasta/taxpasta/config"
	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
	"github.com/Doomsbay/TaxPasta/taxpasta/table"
	"github.com/Doomsbay/TaxPasta/taxpasta/taxonomy"
)

type standardiseConfig struct {
	Settings config.Config
	Input    string
	Output   string
	Force    bool
}

func runStandardise(args []string) {
	fs := flag.NewFlagSet("standardise", flag.ExitOnError)
	flags, configPath := bindSettings(fs)
	input := fs.String("input", "", "Profile to standardise (may be gzipped)")
	output := fs.String("output", "", "Output path (.tsv, .tsv.gz, .arrow, .sqlite)")
	force := fs.Bool("force", false, "Overwrite an existing output")
	fs.StringVar(&flags.OutputFormat, "output-format", "", "Override the format implied by -output")
	fs.StringVar(&flags.Taxonomy, "taxonomy", "", "Directory with nodes.dmp and names.dmp")
	fs.BoolVar(&flags.AddName, "add-name", false, "Add the taxon name column")
	fs.BoolVar(&flags.AddRank, "add-rank", false, "Add the taxon rank column")
	fs.BoolVar(&flags.AddLineage, "add-lineage", false, "Add the name lineage column")
	fs.BoolVar(&flags.AddIDLineage, "add-id-lineage", false, "Add the identifier lineage column")
	fs.BoolVar(&flags.AddRankLineage, "add-rank-lineage", false, "Add the rank lineage column")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}

	settings, err := resolveSettings(fs, flags, *configPath)
	if err != nil {
		fatalf("standardise failed: %v", err)
	}
	setupLogging(settings.Level())

	if *input == "" || *output == "" {
		fatalf("input and output are required")
	}

	cfg := standardiseConfig{
		Settings: settings,
		Input:    *input,
		Output:   *output,
		Force:    *force,
	}
	if err := standardise(cfg, slog.Default()); err != nil {
		fatalf("standardise failed: %v", err)
	}
}

func standardise(cfg standardiseConfig, logger *slog.Logger) error {
	if !cfg.Force && fileExists(cfg.Output) {
		return fmt.Errorf("output %s exists; use -force to overwrite", cfg.Output)
	}
	format, err := profile.ParseFormat(cfg.Settings.Profiler)
	if err != nil {
		return err
	}
	outFormat, err := outputFormat(cfg.Output, cfg.Settings.OutputFormat)
	if err != nil {
		return err
	}

	var tax *taxonomy.Taxonomy
	if cfg.Settings.Taxonomy != "" {
		if tax, err = taxonomy.Load(cfg.Settings.Taxonomy); err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
	}
	extra, err := annotations(cfg.Settings, tax)
	if err != nil {
		return err
	}

	pipeline, err := profile.NewPipeline(format, logger)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Input); err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	p, err := pipeline.Run(table.FromPath(cfg.Input))
	if err != nil {
		return err
	}

	if err := writeProfile(cfg.Output, outFormat, p, extra); err != nil {
		return err
	}
	logger.Info("Standardised profile",
		slog.String("profiler", format.String()),
		slog.String("input", cfg.Input),
		slog.String("output", cfg.Output),
		slog.Int("rows", p.Len()))
	return nil
}
