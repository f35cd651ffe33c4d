// Package scheduler fans composite-and-save work for a job's combinations
// out over a worker pool, behind a confirmation gate for large batches.
package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"iter"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"github.com/wb-go/wbf/retry"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// DefaultThreshold is the combination count above which a run must be confirmed.
const DefaultThreshold = 500

// Batch addresses the combinations of a job by index. Combinations are
// fetched one at a time, so a batch never has to be held in memory.
type Batch interface {
	Len() int
	At(i int) model.Combination
}

// compositor renders one combination.
type compositor interface {
	Composite(ctx context.Context, combo model.Combination) (*image.NRGBA, error)
}

// namer derives output filenames.
type namer interface {
	Name(template string, index int, combo model.Combination) string
}

// fileStorage persists encoded outputs.
type fileStorage interface {
	Save(ctx context.Context, dir, filename string, src io.Reader) (string, error)
}

// confirmer gates large batches.
type confirmer interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// Options tunes a Scheduler.
type Options struct {
	Workers   int            // <= 0 means runtime.NumCPU()
	Threshold int            // <= 0 means DefaultThreshold
	Retry     retry.Strategy // applied to every save
}

// Task is one planned unit of work.
type Task struct {
	Index       int
	Name        string
	Combination model.Combination
}

// Summary describes a finished run.
type Summary struct {
	RunID    uuid.UUID
	Job      string
	Total    int
	Written  int
	Failed   int
	Skipped  int // not started because the run was interrupted
	Aborted  bool
	Duration time.Duration
}

// Scheduler runs the composite → name → encode → save pipeline for every
// combination of a job. Tasks share no mutable state; a failed task is
// logged and recorded while its siblings keep running.
type Scheduler struct {
	compositor compositor
	namer      namer
	storage    fileStorage
	confirmer  confirmer
	opts       Options
	log        zerolog.Logger
}

// New creates a Scheduler.
func New(c compositor, n namer, s fileStorage, conf confirmer, opts Options, log zerolog.Logger) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Retry.Attempts < 1 {
		opts.Retry.Attempts = 1
	}

	return &Scheduler{
		compositor: c,
		namer:      n,
		storage:    s,
		confirmer:  conf,
		opts:       opts,
		log:        log,
	}
}

// Confirm asks whether a batch of count combinations may run. Counts up to
// the threshold pass without a prompt.
func (s *Scheduler) Confirm(ctx context.Context, job model.Job, count int) (bool, error) {
	if count <= s.opts.Threshold {
		return true, nil
	}

	ok, err := s.confirmer.Confirm(ctx,
		fmt.Sprintf("Job %q will render %d images into %s.", job.Name, count, job.OutputFolder),
		fmt.Sprintf("That is more than %d combinations.", s.opts.Threshold),
	)
	if err != nil {
		return false, fmt.Errorf("confirm batch: %w", err)
	}

	return ok, nil
}

// Plan names the combinations of batch lazily, in index order. Names that
// collide are reported, since the later image would overwrite the earlier one.
func (s *Scheduler) Plan(job model.Job, batch Batch) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		first := make(map[string]int)

		for i := range batch.Len() {
			combo := batch.At(i)
			name := s.namer.Name(job.OutputTemplate, i, combo)

			if prev, ok := first[name]; ok {
				s.log.Warn().
					Str("job", job.Name).
					Str("name", name).
					Int("index", i).
					Int("previous_index", prev).
					Msg("output name collides with an earlier combination")
			} else {
				first[name] = i
			}

			if !yield(Task{Index: i, Name: name, Combination: combo}) {
				return
			}
		}
	}
}

// Run executes every combination of batch and waits for all of them.
// Runs larger than the threshold ask for confirmation before anything is
// named or rendered; a refusal returns an aborted Summary and no error.
// Task failures and interruption are reported as a *BatchError after the
// started tasks finished.
func (s *Scheduler) Run(ctx context.Context, job model.Job, batch Batch) (Summary, error) {
	start := time.Now()
	total := batch.Len()
	summary := Summary{RunID: uuid.New(), Job: job.Name, Total: total}

	log := s.log.With().
		Str("run_id", summary.RunID.String()).
		Str("job", job.Name).
		Logger()

	ok, err := s.Confirm(ctx, job, total)
	if err != nil {
		return summary, err
	}
	if !ok {
		log.Warn().Int("combinations", total).Msg("batch declined, nothing rendered")
		summary.Aborted = true
		return summary, nil
	}

	workers := min(s.opts.Workers, max(total, 1))

	log.Info().
		Int("combinations", total).
		Int("workers", workers).
		Str("mode", string(job.Mode)).
		Msg("starting batch")

	var (
		mu         sync.Mutex
		failures   []TaskError
		written    atomic.Int64
		dispatched int
	)

	p := pool.New().WithMaxGoroutines(workers)

	for t := range s.Plan(job, batch) {
		if ctx.Err() != nil {
			break
		}
		dispatched++

		p.Go(func() {
			dst, err := s.process(context.WithoutCancel(ctx), job, t)
			if err != nil {
				log.Error().Err(err).Int("index", t.Index).Str("name", t.Name).Msg("combination failed")
				mu.Lock()
				failures = append(failures, TaskError{Index: t.Index, Name: t.Name, Err: err})
				mu.Unlock()
				return
			}

			written.Add(1)
			log.Debug().Int("index", t.Index).Str("path", dst).Msg("image written")
		})
	}
	p.Wait()

	summary.Written = int(written.Load())
	summary.Failed = len(failures)
	summary.Skipped = total - dispatched
	summary.Duration = time.Since(start)

	log.Info().
		Int("written", summary.Written).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("batch finished")

	if len(failures) > 0 || summary.Skipped > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })

		batchErr := &BatchError{Total: total, Failures: failures, Skipped: summary.Skipped}
		if summary.Skipped > 0 {
			batchErr.Cause = ctx.Err()
		}
		return summary, batchErr
	}

	return summary, nil
}

// process composites, encodes and saves one task. A started task is not
// interrupted by cancellation. Panics are turned into errors.
func (s *Scheduler) process(ctx context.Context, job model.Job, t Task) (string, error) {
	var (
		dst string
		err error
		pc  panics.Catcher
	)

	pc.Try(func() { dst, err = s.render(ctx, job, t) })

	if r := pc.Recovered(); r != nil {
		s.log.Debug().Str("stack", string(r.Stack)).Int("index", t.Index).Msg("recovered panic")
		return "", fmt.Errorf("panic: %v", r.Value)
	}

	return dst, err
}

func (s *Scheduler) render(ctx context.Context, job model.Job, t Task) (string, error) {
	img, err := s.compositor.Composite(ctx, t.Combination)
	if err != nil {
		return "", fmt.Errorf("composite: %w", err)
	}

	format, err := imaging.FormatFromFilename(t.Name)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	var dst string
	err = retry.Do(func() error {
		var saveErr error
		dst, saveErr = s.storage.Save(ctx, job.OutputFolder, t.Name, bytes.NewReader(buf.Bytes()))
		return saveErr
	}, s.opts.Retry)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}

	return dst, nil
}
