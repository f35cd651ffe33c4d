// Package naming derives output filenames from templates such as
// "{layer0}_{layer2}_{index:03d}.png".
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// DefaultExt is the fallback extension when a template has none.
const DefaultExt = "png"

// Namer applies output templates. Template problems never fail a run: an
// unknown key is stripped and retried once, and anything still unformattable
// falls back to image_<index>.<ext>. Safe for concurrent use.
type Namer struct {
	log zerolog.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// New creates a Namer that reports degraded templates to log.
func New(log zerolog.Logger) *Namer {
	return &Namer{log: log, warned: make(map[string]bool)}
}

// Values builds the substitution context of a combination: "index" plus
// "layer<i>" bound to each variant's base name, or "none" when blank.
func Values(index int, combo model.Combination) map[string]any {
	values := make(map[string]any, len(combo)+1)
	values["index"] = index
	for i, v := range combo {
		values[fmt.Sprintf("layer%d", i)] = v.Name()
	}
	return values
}

// Name returns the output filename for the combination at index.
func (n *Namer) Name(template string, index int, combo model.Combination) string {
	values := Values(index, combo)

	name, err := Format(template, values)
	if err == nil {
		return name
	}

	var missing *MissingKeyError
	if errors.As(err, &missing) {
		n.warnOnce(template+"\x00"+missing.Token, func(e *zerolog.Event) {
			e.Str("template", template).
				Str("placeholder", missing.Token).
				Msg("template references an unknown key, stripping placeholder")
		})

		stripped := strings.ReplaceAll(template, missing.Token, "")
		if name, err = Format(stripped, values); err == nil {
			return name
		}
	}

	fallback := fmt.Sprintf("image_%d.%s", index, Ext(template))
	n.warnOnce(template, func(e *zerolog.Event) {
		e.Err(err).
			Str("template", template).
			Str("fallback", fallback).
			Msg("template cannot be formatted, using fallback name")
	})

	return fallback
}

// warnOnce logs at warn level the first time key is seen and at debug level afterwards.
func (n *Namer) warnOnce(key string, fill func(e *zerolog.Event)) {
	n.mu.Lock()
	seen := n.warned[key]
	n.warned[key] = true
	n.mu.Unlock()

	if seen {
		fill(n.log.Debug())
		return
	}
	fill(n.log.Warn())
}

// Ext returns the template's lower-case extension without the dot,
// or DefaultExt when the template has none.
func Ext(template string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(template)), ".")
	if ext == "" || strings.ContainsAny(ext, "{}") {
		return DefaultExt
	}
	return ext
}
