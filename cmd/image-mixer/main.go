package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/thepixelmancer/image-mixer/internal/model"
	"github.com/thepixelmancer/image-mixer/internal/scheduler"
)

// Exit statuses.
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitResolution    = 3
	exitBatch         = 4
)

func main() {
	// Context & signals: an interrupt stops workers from picking up new combinations.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "image-mixer:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var (
		batch    *scheduler.BatchError
		mismatch *model.ZipLengthMismatchError
	)

	switch {
	case errors.Is(err, model.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, model.ErrPathResolution), errors.As(err, &mismatch):
		return exitResolution
	case errors.As(err, &batch):
		return exitBatch
	default:
		return exitFailure
	}
}
