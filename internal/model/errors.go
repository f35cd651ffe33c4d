package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid or incomplete job configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrPathResolution marks a layer source that could not be resolved.
	ErrPathResolution = errors.New("path resolution error")
	// ErrBlankBase marks a base layer that resolved to a blank variant.
	ErrBlankBase = fmt.Errorf("%w: base layer must be a real image", ErrPathResolution)
)

// PathNotFoundError reports a layer path that does not exist or is neither
// a regular file nor a directory.
type PathNotFoundError struct {
	Path string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

func (e *PathNotFoundError) Unwrap() error {
	return ErrPathResolution
}

// UnresolvedVariableError reports a {name} placeholder missing from the
// variable table.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable: {%s}", e.Name)
}

func (e *UnresolvedVariableError) Unwrap() error {
	return ErrPathResolution
}

// ZipLengthMismatchError reports a layer whose variant count can neither be
// broadcast nor paired in zip mode.
type ZipLengthMismatchError struct {
	Layer    int
	Length   int
	Expected int
}

func (e *ZipLengthMismatchError) Error() string {
	return fmt.Sprintf("zip: layer %d has %d variants, want 1 or %d", e.Layer, e.Length, e.Expected)
}
