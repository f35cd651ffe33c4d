// Package variables loads the named-variable table that substitutes image
// paths for {name} placeholders in layer declarations. The table is produced
// by external tooling; this package only reads it.
package variables

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// Table maps placeholder names to layer sources. It is read-only once
// loaded and safe for concurrent lookups.
type Table map[string]model.Source

// Lookup returns the source bound to name.
func (t Table) Lookup(name string) (model.Source, bool) {
	src, ok := t[name]
	return src, ok
}

// Names returns the bound names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a YAML or JSON document mapping names to a path, a list of
// paths, or null. An empty path yields an empty table.
func Load(fs afero.Fs, path string) (Table, error) {
	if path == "" {
		return Table{}, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open variables: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a variable table document.
func Decode(r io.Reader) (Table, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Table{}, nil
		}
		return nil, fmt.Errorf("decode variables: %w", err)
	}

	table := make(Table, len(raw))
	for name, v := range raw {
		src, err := model.ParseSource(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		table[name] = src
	}

	return table, nil
}
