package model

import (
	"image"
	"path/filepath"
	"strings"
)

// BlankName is the template value of a blank variant.
const BlankName = "none"

// Variant is one resolved, concrete instance of a LayerSpec.
// An empty Path marks a blank variant that contributes nothing.
type Variant struct {
	Path      string
	Offset    image.Point
	BlendMode string
	Anchor    Anchor
	Scale     Scale
	Resample  Resample
}

// NewVariant copies the placement rules of spec onto a variant for path.
func NewVariant(spec LayerSpec, path string) Variant {
	return Variant{
		Path:      path,
		Offset:    spec.Offset,
		BlendMode: spec.BlendMode,
		Anchor:    spec.Anchor,
		Scale:     spec.Scale,
		Resample:  spec.Resample,
	}
}

// IsBlank reports whether the variant is the "skip this layer" sentinel.
func (v Variant) IsBlank() bool {
	return v.Path == ""
}

// Name returns the file name without extension, or BlankName.
func (v Variant) Name() string {
	if v.IsBlank() {
		return BlankName
	}

	base := filepath.Base(v.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Combination holds exactly one variant per layer, in layer order.
// Position 0 is the base layer.
type Combination []Variant
