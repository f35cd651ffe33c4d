package processor

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// fileStorage defines the interface for reading layer images.
type fileStorage interface {
	Load(ctx context.Context, path string) (io.ReadCloser, error)
}

// Processor composites combinations into single rasters.
// It keeps no per-call state, so one Processor serves every worker.
type Processor struct {
	fileStorage fileStorage
}

// New creates a new Processor reading images from fs.
func New(fs fileStorage) *Processor {
	return &Processor{fileStorage: fs}
}

// Composite renders a combination in layer order. The base layer becomes the
// canvas; every later non-blank layer is resized, anchored, offset and
// alpha-composited on top of it. The returned canvas belongs to the caller.
func (p *Processor) Composite(ctx context.Context, combo model.Combination) (*image.NRGBA, error) {
	if len(combo) == 0 {
		return nil, fmt.Errorf("empty combination")
	}

	base := combo[0]
	if base.IsBlank() {
		return nil, model.ErrBlankBase
	}

	canvas, err := p.open(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("base layer: %w", err)
	}

	for i, layer := range combo[1:] {
		if layer.IsBlank() {
			continue
		}

		overlay, err := p.open(ctx, layer)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}

		canvas = Blend(canvas, overlay, Placement(canvas, overlay, layer))
	}

	return canvas, nil
}

// open loads a variant's image with an alpha channel and applies its scale.
func (p *Processor) open(ctx context.Context, v model.Variant) (*image.NRGBA, error) {
	src, err := p.fileStorage.Load(ctx, v.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", v.Path, err)
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", v.Path, err)
	}

	return Scale(imaging.Clone(img), v.Scale, v.Resample), nil
}

// Scale resizes img per scale using the resample kernel.
// An unset scale returns img unchanged.
func Scale(img *image.NRGBA, scale model.Scale, resample model.Resample) *image.NRGBA {
	if !scale.IsSet() {
		return img
	}

	size := img.Bounds().Size()
	w, h := scale.Apply(size.X, size.Y)

	return imaging.Resize(img, w, h, Filter(resample))
}

// Placement returns where the overlay's top-left corner lands on the canvas:
// the anchor position plus the variant's pixel offset.
func Placement(canvas, overlay image.Image, v model.Variant) image.Point {
	pos := v.Anchor.Position(canvas.Bounds().Size(), overlay.Bounds().Size())
	return pos.Add(v.Offset)
}

// Blend alpha-composites overlay over canvas with its top-left corner at
// pos, working on non-premultiplied channels end to end. Parts of the
// overlay outside the canvas are clipped.
func Blend(canvas, overlay *image.NRGBA, pos image.Point) *image.NRGBA {
	return imaging.Overlay(canvas, overlay, pos, 1.0)
}
