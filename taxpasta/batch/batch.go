// Package batch standardises many profiles concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
	"github.com/Doomsbay/TaxPasta/taxpasta/table"
)

// ErrSkipped marks jobs that were never started because the run stopped.
var ErrSkipped = errors.New("job skipped")

// Job is one profile to standardise.
type Job struct {
	Name   string
	Format profile.Format
	Source table.Source
}

// Result is the outcome of one job. Exactly one of Profile and Err is set.
type Result struct {
	Job      Job
	Profile  *profile.StandardProfile
	Err      error
	Duration time.Duration
}

// Options tune Run.
type Options struct {
	// Workers bounds the number of pipelines in flight. Zero means NumCPU.
	Workers int
	// KeepGoing runs every job even after failures. Otherwise the first
	// failure stops scheduling and is returned by Run.
	KeepGoing bool
	// OnDone is called once per finished job, never concurrently.
	OnDone func(Result)
	Logger *slog.Logger
}

// Run executes jobs and returns their results in job order. Jobs that were
// never started carry ErrSkipped. The returned error is the first job
// failure when KeepGoing is off, or the context error when ctx ended first.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, len(jobs))
	started := make([]bool, len(jobs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: fmt.Errorf("%w: %w", ErrSkipped, err)}
				return nil
			}

			res := runJob(job, logger)
			results[i] = res
			if opts.OnDone != nil {
				mu.Lock()
				opts.OnDone(res)
				mu.Unlock()
			}
			if res.Err != nil {
				logger.Debug("Profile failed", slog.String("job", job.Name), slog.Any("error", res.Err))
				if !opts.KeepGoing {
					return fmt.Errorf("%s: %w", job.Name, res.Err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	for i := range jobs {
		if !started[i] {
			results[i] = Result{Job: jobs[i], Err: ErrSkipped}
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func runJob(job Job, logger *slog.Logger) Result {
	start := time.Now()
	res := Result{Job: job}
	p, err := profile.NewPipeline(job.Format, logger.With(slog.String("job", job.Name)))
	if err == nil {
		res.Profile, err = p.Run(job.Source)
	}
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// Failed returns the results that carry an error other than ErrSkipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil && !errors.Is(r.Err, ErrSkipped) {
			out = append(out, r)
		}
	}
	return out
}
