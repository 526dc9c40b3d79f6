package batch

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

func job(name string, f profile.Format, parts ...string) Job {
	path := filepath.Join(append([]string{"..", "profile", "testdata"}, parts...)...)
	return Job{Name: name, Format: f, Source: table.FromPath(path)}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_KeepGoingPreservesOrder(t *testing.T) {
	jobs := []Job{
		job("a", profile.Bracken, "bracken", "valid.tsv"),
		job("b", profile.Bracken, "bracken", "invalid.tsv"),
		job("c", profile.Kaiju, "kaiju", "valid.tsv"),
		job("d", profile.KrakenUniq, "kaiju", "valid.tsv"),
		job("e", profile.MetaPhlAn, "metaphlan", "mpa_v3.tsv"),
	}

	var done []string
	results, err := Run(context.Background(), jobs, Options{
		Workers:   3,
		KeepGoing: true,
		OnDone:    func(r Result) { done = append(done, r.Job.Name) },
		Logger:    quiet(),
	})
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, r := range results {
		assert.Equal(t, jobs[i].Name, r.Job.Name)
	}
	assert.NoError(t, results[0].Err)
	assert.Equal(t, int64(240), results[0].Profile.Total())
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.True(t, profile.IsPipelineError(results[3].Err))
	assert.NoError(t, results[4].Err)

	assert.Len(t, Failed(results), 2)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, done)
}

func TestRun_StopsOnFirstFailure(t *testing.T) {
	jobs := []Job{
		job("bad", profile.Bracken, "bracken", "invalid.tsv"),
		job("next", profile.Kaiju, "kaiju", "valid.tsv"),
		job("last", profile.Kaiju, "kaiju", "valid.tsv"),
	}

	results, err := Run(context.Background(), jobs, Options{Workers: 1, Logger: quiet()})

	var se *profile.SchemaValidationError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "bad")
	assert.ErrorAs(t, results[0].Err, &se)
	assert.ErrorIs(t, results[1].Err, ErrSkipped)
	assert.ErrorIs(t, results[2].Err, ErrSkipped)
	assert.Len(t, Failed(results), 1)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, []Job{job("a", profile.Kaiju, "kaiju", "valid.tsv")}, Options{Logger: quiet()})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrSkipped)
	assert.Nil(t, results[0].Profile)
}

func TestRun_Empty(t *testing.T) {
	results, err := Run(context.Background(), nil, Options{})
	assert.NoError(t, err)
	assert.Empty(t, results)
}
