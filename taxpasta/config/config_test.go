package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvGetters(t *testing.T) {
	t.Setenv("TP_TEST_STR", "kaiju")
	t.Setenv("TP_TEST_INT", " 7 ")
	t.Setenv("TP_TEST_BAD_INT", "seven")
	t.Setenv("TP_TEST_BOOL", "Yes")
	t.Setenv("TP_TEST_LEVEL", "WARNING")

	assert.Equal(t, "kaiju", GetEnvStr("TP_TEST_STR", "x"))
	assert.Equal(t, "x", GetEnvStr("TP_TEST_UNSET", "x"))
	assert.Equal(t, 7, GetEnvInt("TP_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TP_TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("TP_TEST_BOOL", false))
	assert.Equal(t, slog.LevelWarn, GetEnvLogLevel("TP_TEST_LEVEL", slog.LevelInfo))
	assert.Equal(t, slog.LevelDebug, GetEnvLogLevel("TP_TEST_UNSET", slog.LevelDebug))
}

func TestParseCommaSeparatedList(t *testing.T) {
	assert.Equal(t, []string{"name", "lineage"}, ParseCommaSeparatedList(" name, ,lineage "))
	assert.Empty(t, ParseCommaSeparatedList(""))
}

func TestPrecedence(t *testing.T) {
	t.Setenv(EnvProfiler, "kraken2")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvColumns, "name,rank_lineage")

	c := FromEnv(Default())
	assert.Equal(t, "kraken2", c.Profiler)
	assert.Equal(t, 3, c.Workers)
	assert.True(t, c.AddName)
	assert.True(t, c.AddRankLineage)
	assert.False(t, c.AddLineage)

	c, err := Decode(strings.NewReader("profiler: bracken\nkeep_going: true\n"), c)
	require.NoError(t, err)
	assert.Equal(t, "bracken", c.Profiler, "file overrides environment")
	assert.Equal(t, 3, c.Workers, "absent keys keep the environment value")
	assert.True(t, c.KeepGoing)
	assert.True(t, c.Annotates())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxpasta.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiler: metaphlan
workers: 2
log_level: debug
output_format: arrow
taxonomy: /data/taxdump
add_lineage: true
`), 0o644))

	c, err := Load(path, Default())
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "metaphlan", c.Profiler)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, slog.LevelDebug, c.Level())
	assert.Equal(t, "arrow", c.OutputFormat)
	assert.Equal(t, "/data/taxdump", c.Taxonomy)
	assert.True(t, c.AddLineage)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), Default())
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Decode(strings.NewReader("profilr: kaiju\n"), Default())
	assert.ErrorContains(t, err, "profilr")

	c, err := Decode(strings.NewReader("  \n"), Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Workers = 0
	c.Profiler = "clark"
	c.LogLevel = "loud"
	c.OutputFormat = "xlsx"

	err := c.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, want := range []string{"workers", "clark", "loud", "xlsx"} {
		assert.ErrorContains(t, err, want)
	}
}
