// Package config resolves run settings from defaults, the environment and an
// optional YAML file. Command line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
)

// Environment variables read by FromEnv.
const (
	EnvProfiler  = "TAXPASTA_PROFILER"
	EnvWorkers   = "TAXPASTA_WORKERS"
	EnvLogLevel  = "TAXPASTA_LOG_LEVEL"
	EnvKeepGoing = "TAXPASTA_KEEP_GOING"
	EnvTaxonomy  = "TAXPASTA_TAXONOMY"
	EnvColumns   = "TAXPASTA_ADD_COLUMNS"
)

// Output formats accepted in output_format. An empty value means "pick by
// output file extension".
var OutputFormats = []string{"tsv", "tsv.gz", "arrow", "sqlite"}

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the taxpasta commands.
type Config struct {
	Profiler     string `yaml:"profiler"`
	Workers      int    `yaml:"workers"`
	LogLevel     string `yaml:"log_level"`
	KeepGoing    bool   `yaml:"keep_going"`
	OutputFormat string `yaml:"output_format"`
	Taxonomy     string `yaml:"taxonomy"`

	AddName        bool `yaml:"add_name"`
	AddRank        bool `yaml:"add_rank"`
	AddLineage     bool `yaml:"add_lineage"`
	AddIDLineage   bool `yaml:"add_id_lineage"`
	AddRankLineage bool `yaml:"add_rank_lineage"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		LogLevel: "info",
	}
}

// FromEnv overlays TAXPASTA_* environment variables onto base.
// TAXPASTA_ADD_COLUMNS takes a comma-separated list such as "name,lineage".
func FromEnv(base Config) Config {
	c := base
	c.Profiler = GetEnvStr(EnvProfiler, c.Profiler)
	c.Workers = GetEnvInt(EnvWorkers, c.Workers)
	c.LogLevel = GetEnvStr(EnvLogLevel, c.LogLevel)
	c.KeepGoing = GetEnvBool(EnvKeepGoing, c.KeepGoing)
	c.Taxonomy = GetEnvStr(EnvTaxonomy, c.Taxonomy)
	for _, column := range ParseCommaSeparatedList(os.Getenv(EnvColumns)) {
		c.enableColumn(column)
	}
	return c
}

func (c *Config) enableColumn(name string) {
	switch strings.ToLower(name) {
	case "name":
		c.AddName = true
	case "rank":
		c.AddRank = true
	case "lineage":
		c.AddLineage = true
	case "id_lineage":
		c.AddIDLineage = true
	case "rank_lineage":
		c.AddRankLineage = true
	}
}

// Load reads a YAML file over base. Keys absent from the file keep the
// values of base; unknown keys are an error.
func Load(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("open config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f, base)
}

// Decode is Load over an open reader.
func Decode(r io.Reader, base Config) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	c := base
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return base, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Validate checks the settings that have a closed set of values.
func (c Config) Validate() error {
	var problems []string
	if c.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be >= 1, got %d", c.Workers))
	}
	if c.Profiler != "" {
		if _, err := profile.ParseFormat(c.Profiler); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if _, ok := ParseLogLevel(c.LogLevel); !ok {
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	if c.OutputFormat != "" && !slices.Contains(OutputFormats, c.OutputFormat) {
		problems = append(problems, fmt.Sprintf("unknown output format %q", c.OutputFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	level, _ := ParseLogLevel(c.LogLevel)
	return level
}

// Annotates reports whether any taxonomy column was requested.
func (c Config) Annotates() bool {
	return c.AddName || c.AddRank || c.AddLineage || c.AddIDLineage || c.AddRankLineage
}
