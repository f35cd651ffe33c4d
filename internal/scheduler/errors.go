package scheduler

import (
	"fmt"
	"strings"
)

// TaskError is the failure of one combination.
type TaskError struct {
	Index int
	Name  string
	Err   error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("combination %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

// BatchError aggregates every failed task of a run, ordered by index,
// plus the tasks that never started because the run was interrupted.
type BatchError struct {
	Total    int
	Failures []TaskError
	Skipped  int
	Cause    error // why tasks were skipped
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d combinations failed", len(e.Failures), e.Total)
	if e.Skipped > 0 {
		fmt.Fprintf(&b, ", %d not started", e.Skipped)
		if e.Cause != nil {
			fmt.Fprintf(&b, " (%v)", e.Cause)
		}
	}

	for i, f := range e.Failures {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Failures)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(f.Error())
	}

	return b.String()
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
