package mixer

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/thepixelmancer/image-mixer/internal/combine"
	"github.com/thepixelmancer/image-mixer/internal/model"
	"github.com/thepixelmancer/image-mixer/internal/scheduler"
)

// layerResolver defines the interface for turning layer declarations into variants.
type layerResolver interface {
	ResolveAll(specs []model.LayerSpec) ([][]model.Variant, error)
}

// batchScheduler defines the interface for executing combinations.
type batchScheduler interface {
	Plan(job model.Job, batch scheduler.Batch) iter.Seq[scheduler.Task]
	Run(ctx context.Context, job model.Job, batch scheduler.Batch) (scheduler.Summary, error)
}

// Service turns configured jobs into scheduled batches.
type Service struct {
	resolver  layerResolver
	scheduler batchScheduler
	log       zerolog.Logger
}

// NewService creates a new Service with the given resolver and scheduler.
func NewService(r layerResolver, s batchScheduler, log zerolog.Logger) *Service {
	return &Service{resolver: r, scheduler: s, log: log}
}

// Combinations resolves the job's layers and returns their combinations as
// an index-addressed sequence. Nothing is built until a combination is read.
func (s *Service) Combinations(job model.Job) (*combine.Sequence, error) {
	lists, err := s.resolver.ResolveAll(job.Layers)
	if err != nil {
		return nil, fmt.Errorf("job %s: resolve layers: %w", job.Name, err)
	}

	seq, err := combine.NewSequence(job.Mode, lists)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	ev := s.log.Debug().Str("job", job.Name)
	for i, l := range lists {
		ev = ev.Int(fmt.Sprintf("layer%d", i), len(l))
	}
	ev.Int("combinations", seq.Len()).Msg("layers resolved")

	return seq, nil
}

// Plan returns the combination count of job and its tasks in index order,
// without rendering. Tasks are named as they are read.
func (s *Service) Plan(job model.Job) (int, iter.Seq[scheduler.Task], error) {
	seq, err := s.Combinations(job)
	if err != nil {
		return 0, nil, err
	}
	return seq.Len(), s.scheduler.Plan(job, seq), nil
}

// Run renders every combination of job.
func (s *Service) Run(ctx context.Context, job model.Job) (scheduler.Summary, error) {
	seq, err := s.Combinations(job)
	if err != nil {
		return scheduler.Summary{Job: job.Name}, err
	}

	if seq.Len() == 0 {
		s.log.Warn().Str("job", job.Name).Msg("job has no combinations, nothing to render")
		return scheduler.Summary{Job: job.Name}, nil
	}

	summary, err := s.scheduler.Run(ctx, job, seq)
	if err != nil {
		return summary, fmt.Errorf("job %s: %w", job.Name, err)
	}

	return summary, nil
}

// RunAll runs jobs in order. Resolution and configuration errors stop the
// run immediately; batch failures are collected and later jobs still run.
// Interruption stops before the next job starts.
func (s *Service) RunAll(ctx context.Context, jobs []model.Job) ([]scheduler.Summary, error) {
	summaries := make([]scheduler.Summary, 0, len(jobs))
	var failed []error

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			failed = append(failed, err)
			break
		}

		summary, err := s.Run(ctx, job)
		summaries = append(summaries, summary)

		var batch *scheduler.BatchError
		switch {
		case err == nil:
		case errors.As(err, &batch):
			failed = append(failed, err)
		default:
			return summaries, errors.Join(append(failed, err)...)
		}
	}

	return summaries, errors.Join(failed...)
}
