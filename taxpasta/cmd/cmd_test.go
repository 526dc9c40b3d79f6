package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsbay/TaxPasta/taxpasta/config"
	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
)

var (
	profileData  = filepath.Join("..", "profile", "testdata")
	taxonomyData = filepath.Join("..", "taxonomy", "testdata")
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func settings(profiler string) config.Config {
	c := config.Default()
	c.Profiler = profiler
	c.Workers = 2
	return c
}

func TestOutputFormat(t *testing.T) {
	tests := map[string]string{
		"out.tsv":        "tsv",
		"out.TSV.gz":     "tsv.gz",
		"out.arrow":      "arrow",
		"out.sqlite":     "sqlite",
		"nested/out.txt": "tsv",
	}
	for path, want := range tests {
		got, err := outputFormat(path, "")
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	got, err := outputFormat("out.bin", "arrow")
	require.NoError(t, err)
	assert.Equal(t, "arrow", got)

	_, err = outputFormat("out.bin", "")
	assert.Error(t, err)
}

func TestStandardise_TSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "kraken2.tsv")
	cfg := standardiseConfig{
		Settings: settings("kraken2"),
		Input:    filepath.Join(profileData, "kraken2", "valid.txt"),
		Output:   out,
	}
	require.NoError(t, standardise(cfg, quiet()))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "taxonomy_id\tcount\n1\t0\n2\t5\n562\t60\n1423\t25\n0\t10\n", string(got))

	err = standardise(cfg, quiet())
	assert.ErrorContains(t, err, "-force")

	cfg.Force = true
	assert.NoError(t, standardise(cfg, quiet()))
}

func TestStandardise_GzipWithTaxonomy(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bracken.tsv.gz")
	s := settings("bracken")
	s.Taxonomy = taxonomyData
	s.AddName = true
	s.AddIDLineage = true
	cfg := standardiseConfig{
		Settings: s,
		Input:    filepath.Join(profileData, "bracken", "valid.tsv"),
		Output:   out,
	}
	require.NoError(t, standardise(cfg, quiet()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	gz, err := pgzip.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "taxonomy_id\tcount\tname\tid_lineage", lines[0])
	assert.Equal(t, "562\t120\tEscherichia coli\t131567;2;1224;561;562", lines[1])
	assert.Equal(t, "1423\t80\t\t", lines[2])
}

func TestStandardise_Arrow(t *testing.T) {
	out := filepath.Join(t.TempDir(), "metaphlan.arrow")
	cfg := standardiseConfig{
		Settings: settings("metaphlan"),
		Input:    filepath.Join(profileData, "metaphlan", "mpa_v4.tsv"),
		Output:   out,
	}
	require.NoError(t, standardise(cfg, quiet()))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer func() {
		_ = r.Close()
	}()

	require.Equal(t, 1, r.NumRecords())
	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.True(t, rec.Schema().Equal(profile.ArrowSchema()))
	assert.Equal(t, []int64{2, 1423, 0}, rec.Column(0).(*array.Int64).Int64Values())
	assert.Equal(t, []int64{95_000_000, 40_000_000, 45_000_000}, rec.Column(1).(*array.Int64).Int64Values())
}

func TestStandardise_SQLite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "kaiju.sqlite")
	s := settings("kaiju")
	s.Taxonomy = taxonomyData
	s.AddRank = true
	cfg := standardiseConfig{
		Settings: s,
		Input:    filepath.Join(profileData, "kaiju", "valid.tsv"),
		Output:   out,
	}
	require.NoError(t, standardise(cfg, quiet()))

	db, err := sql.Open("sqlite", out)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	var rank string
	require.NoError(t, db.QueryRow("SELECT count, rank FROM profile WHERE taxonomy_id = 562").Scan(&count, &rank))
	assert.Equal(t, int64(50), count)
	assert.Equal(t, "species", rank)

	require.NoError(t, db.QueryRow("SELECT SUM(count) FROM profile").Scan(&count))
	assert.Equal(t, int64(100), count)
}

func TestStandardise_Errors(t *testing.T) {
	dir := t.TempDir()

	err := standardise(standardiseConfig{
		Settings: settings("krakenuniq"),
		Input:    filepath.Join(profileData, "bracken", "valid.tsv"),
		Output:   filepath.Join(dir, "out.tsv"),
	}, quiet())
	assert.True(t, profile.IsPipelineError(err))
	_, statErr := os.Stat(filepath.Join(dir, "out.tsv"))
	assert.True(t, os.IsNotExist(statErr), "no output on failure")

	s := settings("bracken")
	s.AddLineage = true
	err = standardise(standardiseConfig{
		Settings: s,
		Input:    filepath.Join(profileData, "bracken", "valid.tsv"),
		Output:   filepath.Join(dir, "out.tsv"),
	}, quiet())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	err = standardise(standardiseConfig{
		Settings: settings("bracken"),
		Input:    filepath.Join(dir, "absent.tsv"),
		Output:   filepath.Join(dir, "out.tsv"),
	}, quiet())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeSheet(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "samples.tsv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSamplesheet(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir, "sample\tprofile\ns1\ta.tsv\ns2\t/abs/b.tsv\n")

	samples, err := readSamplesheet(path)
	require.NoError(t, err)
	assert.Equal(t, []sample{
		{Name: "s1", Path: filepath.Join(dir, "a.tsv")},
		{Name: "s2", Path: "/abs/b.tsv"},
	}, samples)

	_, err = readSamplesheet(writeSheet(t, dir, "name\tfile\ns1\ta.tsv\n"))
	assert.ErrorContains(t, err, "need columns")

	_, err = readSamplesheet(writeSheet(t, dir, "sample\tprofile\ns1\ta.tsv\ns1\tb.tsv\n"))
	assert.ErrorContains(t, err, "repeated")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(filepath.Join(profileData, "bracken"))
	require.NoError(t, err)
	sheet := writeSheet(t, dir, "sample\tprofile\n"+
		"good\t"+filepath.Join(abs, "valid.tsv")+"\n"+
		"bad\t"+filepath.Join(abs, "invalid.tsv")+"\n")
	reportPath := filepath.Join(dir, "reports", "check.json")

	s := settings("bracken")
	s.KeepGoing = true
	rep, err := check(context.Background(), checkConfig{
		Settings:    s,
		Samplesheet: sheet,
		Files:       []string{filepath.Join(profileData, "kaiju", "valid.tsv")},
		ReportPath:  reportPath,
	}, quiet())
	require.ErrorIs(t, err, errCheckFailed)

	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 2, rep.Failed)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "good", rep.Profiles[0].Sample)
	assert.Equal(t, int64(240), rep.Profiles[0].Count)
	assert.Equal(t, "schema", rep.Profiles[1].ErrorKind)
	assert.Equal(t, "valid", rep.Profiles[2].Sample)
	assert.NotEmpty(t, rep.Profiles[2].ErrorKind)

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var decoded checkReport
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rep, decoded)
}

func TestCheck_AllValid(t *testing.T) {
	rep, err := check(context.Background(), checkConfig{
		Settings: settings("metaphlan"),
		Files: []string{
			filepath.Join(profileData, "metaphlan", "mpa_v3.tsv"),
			filepath.Join(profileData, "metaphlan", "mpa_v4.tsv"),
		},
	}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Passed)
	assert.Equal(t, "mpa_v3", rep.Profiles[0].Sample)
}

func TestPrintFormats(t *testing.T) {
	var buf bytes.Buffer
	printFormats(&buf)
	assert.Equal(t, len(profile.Formats()), strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "krakenuniq\n")
	assert.Contains(t, formatList(), "metaphlan")
}

func TestWriteFile_FailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")
	failing := func(w io.Writer) error {
		_, _ = io.WriteString(w, "taxonomy_id\tcount\n562\t")
		return io.ErrShortWrite
	}

	err := writeFile(path, failing)
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.NoFileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))
	assert.Error(t, writeFile(path, failing))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "done\n")
		return err
	}))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))
}
