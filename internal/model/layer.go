package model

import (
	"fmt"
	"image"
	"strings"
)

// Anchor is a named reference point on the canvas used to position an overlay.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTopLeft
	AnchorTopCenter
	AnchorTopRight
	AnchorLeftCenter
	AnchorRightCenter
	AnchorBottomLeft
	AnchorBottomCenter
	AnchorBottomRight
)

var anchorNames = map[string]Anchor{
	"center":        AnchorCenter,
	"top_left":      AnchorTopLeft,
	"top_center":    AnchorTopCenter,
	"top_right":     AnchorTopRight,
	"left_center":   AnchorLeftCenter,
	"right_center":  AnchorRightCenter,
	"bottom_left":   AnchorBottomLeft,
	"bottom_center": AnchorBottomCenter,
	"bottom_right":  AnchorBottomRight,
}

// ParseAnchor maps a configured anchor name to an Anchor.
// Unknown names yield AnchorCenter and ok == false; an empty name is the default.
func ParseAnchor(name string) (a Anchor, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return AnchorCenter, true
	}

	a, ok = anchorNames[name]
	if !ok {
		return AnchorCenter, false
	}

	return a, true
}

// String returns the configuration name of the anchor.
func (a Anchor) String() string {
	for name, v := range anchorNames {
		if v == a {
			return name
		}
	}

	return "center"
}

// Position returns the top-left point at which an overlay of the given size
// lands on a canvas of the given size.
func (a Anchor) Position(canvas, overlay image.Point) image.Point {
	dx := canvas.X - overlay.X
	dy := canvas.Y - overlay.Y

	switch a {
	case AnchorTopLeft:
		return image.Pt(0, 0)
	case AnchorTopCenter:
		return image.Pt(floorDiv2(dx), 0)
	case AnchorTopRight:
		return image.Pt(dx, 0)
	case AnchorLeftCenter:
		return image.Pt(0, floorDiv2(dy))
	case AnchorRightCenter:
		return image.Pt(dx, floorDiv2(dy))
	case AnchorBottomLeft:
		return image.Pt(0, dy)
	case AnchorBottomCenter:
		return image.Pt(floorDiv2(dx), dy)
	case AnchorBottomRight:
		return image.Pt(dx, dy)
	default:
		return image.Pt(floorDiv2(dx), floorDiv2(dy))
	}
}

// floorDiv2 halves n rounding toward negative infinity, so overlays larger
// than the canvas are centred the same way on both axes.
func floorDiv2(n int) int {
	if n < 0 {
		return -((-n + 1) / 2)
	}
	return n / 2
}

// Resample names the filter kernel used when a layer is resized.
type Resample int

const (
	ResampleNearest Resample = iota
	ResampleBox
	ResampleBilinear
	ResampleHamming
	ResampleBicubic
	ResampleLanczos
)

var resampleNames = map[string]Resample{
	"nearest":  ResampleNearest,
	"box":      ResampleBox,
	"bilinear": ResampleBilinear,
	"linear":   ResampleBilinear,
	"hamming":  ResampleHamming,
	"bicubic":  ResampleBicubic,
	"cubic":    ResampleBicubic,
	"lanczos":  ResampleLanczos,
}

// ParseResample maps a configured kernel name to a Resample.
// Unknown names yield ResampleNearest and ok == false; an empty name is the default.
func ParseResample(name string) (r Resample, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ResampleNearest, true
	}

	r, ok = resampleNames[name]
	if !ok {
		return ResampleNearest, false
	}

	return r, true
}

// ScaleKind tags the variant held by a Scale.
type ScaleKind int

const (
	ScaleNone ScaleKind = iota
	ScaleUniform
	ScaleRatio
	ScaleAbsolute
)

// Scale describes how a layer image is resized before placement.
// The zero value keeps the image at its native resolution.
type Scale struct {
	Kind   ScaleKind
	X, Y   float64 // ratios for ScaleUniform (X only) and ScaleRatio
	Width  int     // target size for ScaleAbsolute
	Height int
}

// Uniform scales both dimensions by the same ratio.
func Uniform(ratio float64) Scale {
	return Scale{Kind: ScaleUniform, X: ratio, Y: ratio}
}

// Ratio scales width and height independently.
func Ratio(w, h float64) Scale {
	return Scale{Kind: ScaleRatio, X: w, Y: h}
}

// Absolute resizes to an explicit size.
func Absolute(w, h int) Scale {
	return Scale{Kind: ScaleAbsolute, Width: w, Height: h}
}

// IsSet reports whether the scale requests a resize.
func (s Scale) IsSet() bool {
	return s.Kind != ScaleNone
}

// Apply returns the target size for an image of size w x h.
// Products are truncated toward zero and never drop below one pixel.
func (s Scale) Apply(w, h int) (int, int) {
	switch s.Kind {
	case ScaleUniform, ScaleRatio:
		w = int(float64(w) * s.X)
		h = int(float64(h) * s.Y)
	case ScaleAbsolute:
		w, h = s.Width, s.Height
	}

	return max(w, 1), max(h, 1)
}

// String renders the scale for logs.
func (s Scale) String() string {
	switch s.Kind {
	case ScaleUniform:
		return fmt.Sprintf("uniform(%g)", s.X)
	case ScaleRatio:
		return fmt.Sprintf("ratio(%g,%g)", s.X, s.Y)
	case ScaleAbsolute:
		return fmt.Sprintf("absolute(%dx%d)", s.Width, s.Height)
	default:
		return "none"
	}
}

// LayerSpec is one declared image source plus its placement rules.
type LayerSpec struct {
	Source    Source
	Offset    image.Point
	BlendMode string // carried through, not used by compositing
	Anchor    Anchor
	Scale     Scale
	Resample  Resample
}
