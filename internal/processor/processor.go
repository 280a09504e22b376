// Package processor discovers images, expands them into conversion jobs,
// runs the jobs on a bounded worker pool and aggregates the outcomes.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"imgconvert/internal/options"
)

// Run converts everything under root according to cfg.
//
// Fatal problems (missing input, an output directory that cannot be created)
// are returned before any job starts. Job failures are recorded in the
// report and never stop the batch. When ctx is cancelled or cfg.Timeout
// expires, no further jobs are dispatched; jobs already running stop at the
// codec's next checkpoint and are recorded as failed, undispatched jobs are
// recorded as skipped, and the context error is returned with the report.
func Run(ctx context.Context, root string, cfg options.Config, engine Codec, logger *log.Logger, updates chan<- ProgressUpdate) (Report, error) {
	var report Report
	cfg = cfg.Clone()

	disc, err := Discover(root)
	if err != nil {
		return report, err
	}
	report.Skipped = append(report.Skipped, disc.Skipped...)
	report.OutputDir = OutputRoot(disc, cfg)
	logger.Debug("discovered input", "root", root, "candidates", len(disc.Candidates), "skipped", len(disc.Skipped))

	var (
		jobs     []Job
		outcomes []Outcome
	)
	for _, c := range disc.Candidates {
		info, err := os.Stat(c.Path)
		if err != nil {
			outcomes = append(outcomes, Outcome{Job: Job{Source: c}, Err: err})
			continue
		}
		built, err := BuildJobs(c, cfg, report.OutputDir, engine)
		switch {
		case errors.Is(err, ErrUnsupportedFormat):
			report.Skipped = append(report.Skipped, Skipped{Path: c.Path, Reason: err.Error()})
		case err != nil:
			outcomes = append(outcomes, Outcome{Job: Job{Source: c}, Err: err})
		default:
			for i := range built {
				built[i].SourceSize = info.Size()
			}
			jobs = append(jobs, built...)
		}
	}

	jobs, collisions := claimOutputs(jobs, disc.Candidates)
	for _, s := range collisions {
		logger.Debug("skipping conflicting output", "file", filepath.Base(s.Path), "reason", s.Reason)
	}
	report.Skipped = append(report.Skipped, collisions...)

	if err := prepareOutputDirs(jobs); err != nil {
		return report, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	notify(updates, ProgressUpdate{TotalDelta: len(jobs) + len(outcomes)})
	for i := range outcomes {
		notify(updates, ProgressUpdate{DoneDelta: 1, FailedDelta: 1, Outcome: &outcomes[i]})
	}

	results := make(chan Outcome)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			outcomes = append(outcomes, res)
			update := ProgressUpdate{DoneDelta: 1, Outcome: &res}
			if res.OK() {
				update.BytesSavedDelta = res.OriginalSize - res.NewSize
				logger.Debug("converted", "file", filepath.Base(res.Job.Source.Path), "format", res.Job.Format,
					"bucket", res.Job.Bucket, "output", res.Job.OutputPath, "took", res.Duration.Round(time.Millisecond))
			} else {
				update.FailedDelta = 1
				logger.Debug("conversion failed", "file", filepath.Base(res.Job.Source.Path), "format", res.Job.Format, "err", res.Err)
			}
			notify(updates, update)
		}
	}()

	// Jobs that write over their own source run only after every other job
	// has finished reading it.
	rest, overwriting := splitOverwriting(jobs)
	jobs = append(rest, overwriting...)
	dispatched := 0
	for _, phase := range [][]Job{rest, overwriting} {
		n := runPhase(ctx, phase, cfg, engine, results)
		dispatched += n
		if n < len(phase) {
			break
		}
	}
	close(results)
	<-collectorDone

	for _, job := range jobs[dispatched:] {
		report.Skipped = append(report.Skipped, Skipped{
			Path:   job.Source.Path,
			Reason: fmt.Sprintf("cancelled before converting to %s", job.Format),
		})
	}

	report.Outcomes = outcomes
	report.Stats = Aggregate(outcomes, start, time.Now())
	report.Stats.Skipped = len(report.Skipped)

	if err := ctx.Err(); err != nil {
		if dispatched < len(jobs) {
			return report, fmt.Errorf("run stopped after %d of %d jobs: %w", dispatched, len(jobs), err)
		}
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

// runPhase converts jobs on a pool of cfg.Concurrency workers and returns
// how many were dispatched. It returns once every dispatched job has
// reported to results.
func runPhase(ctx context.Context, jobs []Job, cfg options.Config, engine Codec, results chan<- Outcome) int {
	if len(jobs) == 0 {
		return 0
	}

	jobCh := make(chan Job)
	workers := max(min(cfg.Concurrency, len(jobs)), 1)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobCh, results, cfg, engine)
		}()
	}

	dispatched := dispatch(ctx, jobs, jobCh)
	close(jobCh)
	wg.Wait()
	return dispatched
}

// dispatch feeds jobs to the pool until ctx is done and returns how many
// were handed out.
func dispatch(ctx context.Context, jobs []Job, jobCh chan<- Job) int {
	for i, job := range jobs {
		if ctx.Err() != nil {
			return i
		}
		select {
		case jobCh <- job:
		case <-ctx.Done():
			return i
		}
	}
	return len(jobs)
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Outcome, cfg options.Config, engine Codec) {
	for job := range jobs {
		results <- Execute(ctx, job, cfg, engine)
	}
}

// splitOverwriting separates the jobs that replace their own source,
// keeping the order within each group.
func splitOverwriting(jobs []Job) (rest, overwriting []Job) {
	rest = make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.OverwritesSource() {
			overwriting = append(overwriting, job)
		} else {
			rest = append(rest, job)
		}
	}
	return rest, overwriting
}

// claimOutputs keeps the first job for each destination. Later jobs aiming
// at the same path, or at another candidate's source file, are returned as
// skips instead of silently overwriting that file.
func claimOutputs(jobs []Job, candidates []Candidate) ([]Job, []Skipped) {
	sources := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		sources[c.Path] = true
	}

	owner := make(map[string]string, len(jobs))
	kept := jobs[:0]
	var skipped []Skipped
	for _, job := range jobs {
		if prev, ok := owner[job.OutputPath]; ok {
			skipped = append(skipped, Skipped{
				Path:   job.Source.Path,
				Reason: fmt.Sprintf("%s output collides with %s", job.Format, filepath.Base(prev)),
			})
			continue
		}
		if sources[job.OutputPath] && !job.OverwritesSource() {
			skipped = append(skipped, Skipped{
				Path:   job.Source.Path,
				Reason: fmt.Sprintf("%s output would overwrite source %s", job.Format, filepath.Base(job.OutputPath)),
			})
			continue
		}
		owner[job.OutputPath] = job.Source.Path
		kept = append(kept, job)
	}
	return kept, skipped
}

// prepareOutputDirs creates every destination directory up front so workers
// never race on mkdir.
func prepareOutputDirs(jobs []Job) error {
	seen := make(map[string]bool)
	var dirs []string
	for _, job := range jobs {
		dir := filepath.Dir(job.OutputPath)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "creating output directory", Path: dir, Err: err}
		}
	}
	return nil
}

func notify(updates chan<- ProgressUpdate, update ProgressUpdate) {
	if updates != nil {
		updates <- update
	}
}
