package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/retry"

	"github.com/thepixelmancer/image-mixer/internal/config"
	"github.com/thepixelmancer/image-mixer/internal/logging"
	"github.com/thepixelmancer/image-mixer/internal/model"
	"github.com/thepixelmancer/image-mixer/internal/naming"
	"github.com/thepixelmancer/image-mixer/internal/processor"
	"github.com/thepixelmancer/image-mixer/internal/resolver"
	"github.com/thepixelmancer/image-mixer/internal/scheduler"
	"github.com/thepixelmancer/image-mixer/internal/service/mixer"
	"github.com/thepixelmancer/image-mixer/internal/storage/file"
	"github.com/thepixelmancer/image-mixer/internal/tui"
	"github.com/thepixelmancer/image-mixer/internal/variables"
)

type options struct {
	configPath string
	varsPath   string
	envFile    string
	workers    int
	workersSet bool
	yes        bool
	dryRun     bool
	jobs       []string
}

// gate returns the large batch confirmation for opts.
func gate(opts options) interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
} {
	if opts.yes {
		return tui.Assume(true)
	}
	return tui.NewConfirmer()
}

func newRootCmd(fsys afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "image-mixer",
		Short: "Render every combination of a set of image layers",
		Long: `image-mixer composites layered PNG assets into every combination
declared in its configuration.

Each entry of image_mixers names an output folder, a filename template
such as "{layer0}_{layer1}_{index:03d}.png", a combination mode
(cartesian or zip) and an ordered list of layers. Layer paths may be a
file, a directory of .png files, a list, "none", or a {name} placeholder
looked up in the variable table.

Batches larger than confirm_threshold ask for confirmation first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.workersSet = cmd.Flags().Changed("workers")
			return run(cmd.Context(), fsys, opts, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "configuration file")
	flags.StringVar(&opts.varsPath, "vars", "", "variable table (overrides the variables key)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers, 0 for one per CPU")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "skip the large batch confirmation")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print planned output names without rendering")
	flags.StringArrayVarP(&opts.jobs, "job", "j", nil, "run only the named mixer (repeatable)")

	return cmd
}

func run(ctx context.Context, fsys afero.Fs, opts options, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(fsys, opts.configPath)
	if err != nil {
		return err
	}
	if opts.varsPath != "" {
		cfg.Variables = opts.varsPath
	}
	if opts.workersSet {
		cfg.Workers = opts.workers
	}

	log, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	jobs, err := cfg.Jobs(log)
	if err != nil {
		return err
	}
	if jobs, err = config.Select(jobs, opts.jobs); err != nil {
		return err
	}

	table, err := variables.Load(fsys, cfg.Variables)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	// Retry strategy for output writes.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	storage := file.NewStorage(fsys)
	sched := scheduler.New(
		processor.New(storage),
		naming.New(log),
		storage,
		gate(opts),
		scheduler.Options{Workers: cfg.Workers, Threshold: cfg.ConfirmThreshold, Retry: strategy},
		log,
	)
	service := mixer.NewService(resolver.New(fsys, table), sched, log)

	if opts.dryRun {
		return plan(service, jobs, stdout)
	}

	summaries, err := service.RunAll(ctx, jobs)
	report(log, summaries)

	return err
}

// plan prints every job's planned outputs.
func plan(service *mixer.Service, jobs []model.Job, out io.Writer) error {
	for _, job := range jobs {
		count, tasks, err := service.Plan(job)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %d combinations (%s) -> %s\n", job.Name, count, job.Mode, job.OutputFolder)
		for t := range tasks {
			fmt.Fprintf(out, "  %6d  %s\n", t.Index, t.Name)
		}
	}
	return nil
}

func report(log zerolog.Logger, summaries []scheduler.Summary) {
	var written, failed, skipped, aborted int
	for _, s := range summaries {
		written += s.Written
		failed += s.Failed
		skipped += s.Skipped
		if s.Aborted {
			aborted++
		}
	}

	log.Info().
		Int("jobs", len(summaries)).
		Int("written", written).
		Int("failed", failed).
		Int("skipped", skipped).
		Int("declined", aborted).
		Msg("done")
}
