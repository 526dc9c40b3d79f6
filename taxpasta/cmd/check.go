package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/Doomsbay/TaxPasta/taxpasta/batch"
	"github.com/Doomsbay/TaxPasta/taxpasta/config"
	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

type checkConfig struct {
	Settings    config.Config
	Samplesheet string
	Files       []string
	ReportPath  string
	Progress    bool
}

type checkEntry struct {
	Sample     string `json:"sample"`
	Path       string `json:"path"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	Count      int64  `json:"count"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type checkReport struct {
	RunID    string       `json:"run_id"`
	Profiler string       `json:"profiler"`
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Skipped  int          `json:"skipped"`
	Profiles []checkEntry `json:"profiles"`
}

var errCheckFailed = errors.New("some profiles failed")

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	flags, configPath := bindSettings(fs)
	fs.IntVar(&flags.Workers, "workers", flags.Workers, "Profiles standardised in parallel")
	fs.BoolVar(&flags.KeepGoing, "keep-going", false, "Check every profile even after a failure")
	samplesheet := fs.String("samplesheet", "", "TSV or ODS sheet with sample and profile columns")
	report := fs.String("report", "", "Optional JSON report output path")
	progressOn := fs.Bool("progress", true, "Show progress bar")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}

	settings, err := resolveSettings(fs, flags, *configPath)
	if err != nil {
		fatalf("check failed: %v", err)
	}
	setupLogging(settings.Level())

	if *samplesheet == "" && fs.NArg() == 0 {
		fatalf("a samplesheet or profile files are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := checkConfig{
		Settings:    settings,
		Samplesheet: *samplesheet,
		Files:       fs.Args(),
		ReportPath:  *report,
		Progress:    *progressOn,
	}
	if _, err := check(ctx, cfg, slog.Default()); err != nil {
		fatalf("check failed: %v", err)
	}
}

// check standardises every listed profile and reports the outcome. It
// returns errCheckFailed when any profile failed.
func check(ctx context.Context, cfg checkConfig, logger *slog.Logger) (checkReport, error) {
	format, err := profile.ParseFormat(cfg.Settings.Profiler)
	if err != nil {
		return checkReport{}, err
	}

	var samples []sample
	if cfg.Samplesheet != "" {
		if samples, err = readSamplesheet(cfg.Samplesheet); err != nil {
			return checkReport{}, err
		}
	}
	for _, path := range cfg.Files {
		samples = append(samples, sample{Name: sampleName(path), Path: path})
	}

	jobs := make([]batch.Job, len(samples))
	for i, s := range samples {
		jobs[i] = batch.Job{Name: s.Name, Format: format, Source: table.FromPath(s.Path)}
	}

	bar := newProgress(len(jobs), cfg.Progress, "check")
	results, runErr := batch.Run(ctx, jobs, batch.Options{
		Workers:   cfg.Settings.Workers,
		KeepGoing: cfg.Settings.KeepGoing,
		OnDone:    func(batch.Result) { bar.increment() },
		Logger:    logger,
	})
	bar.finish()

	rep := buildReport(format, results)
	if cfg.ReportPath != "" {
		if err := writeCheckReport(cfg.ReportPath, rep); err != nil {
			return rep, err
		}
	}

	var total int64
	for _, e := range rep.Profiles {
		total += e.Count
		if e.Status == "failed" {
			logger.Error("Profile failed", slog.String("sample", e.Sample), slog.String("kind", e.ErrorKind), slog.String("error", e.Error))
		}
	}
	logf("check: profiles=%d passed=%d failed=%d skipped=%d count=%s",
		rep.Total, rep.Passed, rep.Failed, rep.Skipped, humanize.Comma(total))

	if errors.Is(runErr, context.Canceled) {
		return rep, runErr
	}
	if rep.Failed > 0 {
		return rep, fmt.Errorf("%w: %d of %d", errCheckFailed, rep.Failed, rep.Total)
	}
	return rep, nil
}

func buildReport(format profile.Format, results []batch.Result) checkReport {
	rep := checkReport{
		RunID:    uuid.NewString(),
		Profiler: format.String(),
		Total:    len(results),
		Profiles: make([]checkEntry, len(results)),
	}
	for i, r := range results {
		e := checkEntry{
			Sample:     r.Job.Name,
			Path:       r.Job.Source.Path(),
			DurationMS: r.Duration.Milliseconds(),
		}
		switch {
		case r.Err == nil:
			e.Status = "ok"
			e.Rows = r.Profile.Len()
			e.Count = r.Profile.Total()
			rep.Passed++
		case errors.Is(r.Err, batch.ErrSkipped):
			e.Status = "skipped"
			rep.Skipped++
		default:
			e.Status = "failed"
			e.ErrorKind = profile.ErrorKind(r.Err)
			e.Error = r.Err.Error()
			rep.Failed++
		}
		rep.Profiles[i] = e
	}
	return rep
}

func writeCheckReport(path string, rep checkReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
