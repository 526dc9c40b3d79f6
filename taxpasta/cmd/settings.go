package cmd

import (
	"flag"
	"fmt"

	"github.com/Doomsbay/TaxPasta/taxpasta/config"
)

// bindSettings registers the flags shared by standardise and check. The
// returned values only count for flags the user actually set.
func bindSettings(fs *flag.FlagSet) (*config.Config, *string) {
	c := config.Default()
	fs.StringVar(&c.Profiler, "profiler", "", "Profiler that produced the input: "+formatList())
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	configPath := fs.String("config", "", "Optional YAML config file")
	return &c, configPath
}

// resolveSettings merges defaults, TAXPASTA_* variables, the config file and
// explicitly set flags, in increasing precedence.
func resolveSettings(fs *flag.FlagSet, flags *config.Config, configPath string) (config.Config, error) {
	c := config.FromEnv(config.Default())
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath, c); err != nil {
			return c, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profiler":
			c.Profiler = flags.Profiler
		case "log-level":
			c.LogLevel = flags.LogLevel
		case "workers":
			c.Workers = flags.Workers
		case "keep-going":
			c.KeepGoing = flags.KeepGoing
		case "output-format":
			c.OutputFormat = flags.OutputFormat
		case "taxonomy":
			c.Taxonomy = flags.Taxonomy
		case "add-name":
			c.AddName = flags.AddName
		case "add-rank":
			c.AddRank = flags.AddRank
		case "add-lineage":
			c.AddLineage = flags.AddLineage
		case "add-id-lineage":
			c.AddIDLineage = flags.AddIDLineage
		case "add-rank-lineage":
			c.AddRankLineage = flags.AddRankLineage
		}
	})

	if err := c.Validate(); err != nil {
		return c, err
	}
	if c.Profiler == "" {
		return c, fmt.Errorf("%w: profiler is required (%s)", config.ErrInvalidConfig, formatList())
	}
	return c, nil
}
