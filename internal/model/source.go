package model

import (
	"fmt"
	"strings"
)

// SourceKind tags the shape of a layer's path declaration.
type SourceKind int

const (
	SourceBlank SourceKind = iota
	SourcePath
	SourceList
)

// Source is the declared image source of a layer: blank, a single path
// (file, directory or {name} placeholder), or a list of entries.
// Blank list entries are stored as empty strings.
type Source struct {
	Kind    SourceKind
	Path    string
	Entries []string
}

// Blank returns the "skip this layer" source.
func Blank() Source {
	return Source{Kind: SourceBlank}
}

// PathSource returns a single-path source.
func PathSource(path string) Source {
	if IsBlankMarker(path) {
		return Blank()
	}
	return Source{Kind: SourcePath, Path: path}
}

// ListSource returns a list source.
func ListSource(entries ...string) Source {
	normalized := make([]string, len(entries))
	for i, e := range entries {
		if !IsBlankMarker(e) {
			normalized[i] = e
		}
	}
	return Source{Kind: SourceList, Entries: normalized}
}

// ParseSource converts a decoded configuration value (nil, string or list)
// into a Source.
func ParseSource(v any) (Source, error) {
	switch val := v.(type) {
	case nil:
		return Blank(), nil
	case string:
		return PathSource(val), nil
	case []string:
		return ListSource(val...), nil
	case []any:
		entries := make([]string, len(val))
		for i, item := range val {
			switch e := item.(type) {
			case nil:
			case string:
				entries[i] = e
			default:
				return Source{}, fmt.Errorf("%w: path entry %d has type %T, want string or null", ErrConfiguration, i, item)
			}
		}
		return ListSource(entries...), nil
	default:
		return Source{}, fmt.Errorf("%w: path has type %T, want string, list or null", ErrConfiguration, v)
	}
}

// IsBlankMarker reports whether s declares an empty layer.
func IsBlankMarker(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null")
}

// Placeholder returns the variable name of a "{name}" path and true,
// or "" and false when s is an ordinary path.
func Placeholder(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}

	name := s[1 : len(s)-1]
	if strings.ContainsAny(name, "{}") || strings.TrimSpace(name) == "" {
		return "", false
	}

	return strings.TrimSpace(name), true
}
