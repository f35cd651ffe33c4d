// Package resolver turns layer declarations into concrete image variants.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// ImageExt is the raster extension picked up from layer directories.
const ImageExt = ".png"

// maxIndirection bounds chains of placeholders that point at placeholders.
const maxIndirection = 8

// variableTable defines the lookup used for {name} placeholders.
type variableTable interface {
	Lookup(name string) (model.Source, bool)
}

// Resolver resolves LayerSpecs against a filesystem and a variable table.
// It holds no mutable state and may be shared.
type Resolver struct {
	fs   afero.Fs
	vars variableTable
}

// New creates a Resolver. vars may be nil when no table is configured.
func New(fsys afero.Fs, vars variableTable) *Resolver {
	return &Resolver{fs: fsys, vars: vars}
}

// ResolveAll resolves every layer in order. Errors name the failing layer.
// The base layer must not resolve to a blank variant.
func (r *Resolver) ResolveAll(specs []model.LayerSpec) ([][]model.Variant, error) {
	lists := make([][]model.Variant, len(specs))

	for i, spec := range specs {
		variants, err := r.Resolve(spec)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		lists[i] = variants
	}

	if len(lists) > 0 {
		for j, v := range lists[0] {
			if v.IsBlank() {
				return nil, fmt.Errorf("layer 0 variant %d: %w", j, model.ErrBlankBase)
			}
		}
	}

	return lists, nil
}

// Resolve returns the ordered variants of one layer. The result is
// deterministic for a given filesystem state.
func (r *Resolver) Resolve(spec model.LayerSpec) ([]model.Variant, error) {
	paths, err := r.source(spec.Source, 0)
	if err != nil {
		return nil, err
	}

	variants := make([]model.Variant, len(paths))
	for i, p := range paths {
		variants[i] = model.NewVariant(spec, p)
	}

	return variants, nil
}

// source expands a declared source into concrete paths; "" is a blank.
func (r *Resolver) source(src model.Source, depth int) ([]string, error) {
	switch src.Kind {
	case model.SourceBlank:
		return []string{""}, nil
	case model.SourceList:
		var paths []string
		for _, entry := range src.Entries {
			resolved, err := r.entry(entry, depth)
			if err != nil {
				return nil, err
			}
			paths = append(paths, resolved...)
		}
		return paths, nil
	}

	if name, ok := model.Placeholder(src.Path); ok {
		value, err := r.lookup(name, depth)
		if err != nil {
			return nil, err
		}
		return r.source(value, depth+1)
	}

	info, err := r.fs.Stat(src.Path)
	if err != nil {
		return nil, notFound(src.Path, err)
	}

	switch {
	case info.IsDir():
		return r.dir(src.Path)
	case info.Mode().IsRegular():
		return []string{src.Path}, nil
	default:
		return nil, &model.PathNotFoundError{Path: src.Path}
	}
}

// entry resolves one list entry: blank, placeholder, or an existing file.
func (r *Resolver) entry(entry string, depth int) ([]string, error) {
	if model.IsBlankMarker(entry) {
		return []string{""}, nil
	}

	if name, ok := model.Placeholder(entry); ok {
		value, err := r.lookup(name, depth)
		if err != nil {
			return nil, err
		}

		switch value.Kind {
		case model.SourceBlank:
			return []string{""}, nil
		case model.SourceList:
			return r.source(value, depth+1)
		default:
			return r.entry(value.Path, depth+1)
		}
	}

	info, err := r.fs.Stat(entry)
	if err != nil {
		return nil, notFound(entry, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &model.PathNotFoundError{Path: entry}
	}

	return []string{entry}, nil
}

func (r *Resolver) lookup(name string, depth int) (model.Source, error) {
	if depth >= maxIndirection {
		return model.Source{}, fmt.Errorf("%w: variable {%s} nests deeper than %d levels", model.ErrPathResolution, name, maxIndirection)
	}
	if r.vars == nil {
		return model.Source{}, &model.UnresolvedVariableError{Name: name}
	}

	value, ok := r.vars.Lookup(name)
	if !ok {
		return model.Source{}, &model.UnresolvedVariableError{Name: name}
	}

	return value, nil
}

// dir lists the images directly inside a directory in lexicographic order.
func (r *Resolver) dir(path string) ([]string, error) {
	infos, err := afero.ReadDir(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory %s: %v", model.ErrPathResolution, path, err)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ImageExt) {
			continue
		}
		names = append(names, info.Name())
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no %s images in directory %s", model.ErrPathResolution, ImageExt, path)
	}

	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(path, name)
	}

	return paths, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &model.PathNotFoundError{Path: path}
	}
	return fmt.Errorf("%w: stat %s: %v", model.ErrPathResolution, path, err)
}
