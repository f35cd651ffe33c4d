package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepixelmancer/image-mixer/internal/model"
	"github.com/thepixelmancer/image-mixer/internal/storage/file"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func writePNG(t *testing.T, fs afero.Fs, path string, w, h int, c color.NRGBA) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, c), imaging.PNG))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func newProcessor(t *testing.T) (*Processor, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	writePNG(t, fs, "base.png", 100, 100, white)
	writePNG(t, fs, "red.png", 20, 20, red)
	writePNG(t, fs, "blue.png", 64, 64, blue)

	return New(file.NewStorage(fs)), fs
}

func layer(path string, anchor model.Anchor, offset image.Point) model.Variant {
	return model.Variant{Path: path, Anchor: anchor, Offset: offset}
}

// bbox returns the bounding box of pixels equal to c.
func bbox(img *image.NRGBA, c color.NRGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y) == c {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestCompositePlacement(t *testing.T) {
	p, _ := newProcessor(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		anchor model.Anchor
		offset image.Point
		want   image.Rectangle
	}{
		{"top left", model.AnchorTopLeft, image.Pt(0, 0), image.Rect(0, 0, 20, 20)},
		{"center", model.AnchorCenter, image.Pt(0, 0), image.Rect(40, 40, 60, 60)},
		{"center with offset", model.AnchorCenter, image.Pt(5, -5), image.Rect(45, 35, 65, 55)},
		{"bottom right", model.AnchorBottomRight, image.Pt(0, 0), image.Rect(80, 80, 100, 100)},
		{"clipped past the edge", model.AnchorBottomRight, image.Pt(10, 10), image.Rect(90, 90, 100, 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Composite(ctx, model.Combination{
				layer("base.png", model.AnchorCenter, image.Point{}),
				layer("red.png", tt.anchor, tt.offset),
			})
			require.NoError(t, err)

			assert.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())
			assert.Equal(t, tt.want, bbox(out, red))
		})
	}
}

func TestCompositeBlankLayerIsNoop(t *testing.T) {
	p, _ := newProcessor(t)
	ctx := context.Background()

	base := layer("base.png", model.AnchorCenter, image.Point{})
	overlay := layer("red.png", model.AnchorTopRight, image.Pt(-3, 4))
	blank := model.Variant{Anchor: model.AnchorCenter, Scale: model.Uniform(3)}

	with, err := p.Composite(ctx, model.Combination{base, blank, overlay, blank})
	require.NoError(t, err)
	without, err := p.Composite(ctx, model.Combination{base, overlay})
	require.NoError(t, err)

	assert.Equal(t, without.Pix, with.Pix)
}

func TestCompositeScalesOverlayAndBase(t *testing.T) {
	p, _ := newProcessor(t)

	blueHalf := layer("blue.png", model.AnchorTopLeft, image.Point{})
	blueHalf.Scale = model.Uniform(0.5)

	base := layer("base.png", model.AnchorCenter, image.Point{})
	base.Scale = model.Absolute(50, 40)

	out, err := p.Composite(context.Background(), model.Combination{base, blueHalf})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 50, 40), out.Bounds())
	assert.Equal(t, image.Rect(0, 0, 32, 32), bbox(out, blue))
}

func TestCompositeAlphaBlends(t *testing.T) {
	p, fs := newProcessor(t)
	writePNG(t, fs, "glass.png", 10, 10, color.NRGBA{R: 255, A: 128})
	writePNG(t, fs, "clear.png", 10, 10, color.NRGBA{G: 255, A: 0})

	out, err := p.Composite(context.Background(), model.Combination{
		layer("base.png", model.AnchorCenter, image.Point{}),
		layer("glass.png", model.AnchorTopLeft, image.Point{}),
		layer("clear.png", model.AnchorBottomRight, image.Point{}),
	})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 255, G: 127, B: 127, A: 255}, out.NRGBAAt(5, 5))

	// A fully transparent overlay leaves the canvas untouched.
	assert.Equal(t, white, out.NRGBAAt(95, 95))
}

func TestBlendIsExact(t *testing.T) {
	glass := color.NRGBA{R: 200, G: 10, B: 77, A: 100}

	tests := []struct {
		name   string
		canvas color.NRGBA
		want   color.NRGBA
	}{
		{"clear canvas keeps the overlay", color.NRGBA{}, glass},
		{"opaque canvas", white, color.NRGBA{R: 233, G: 158, B: 185, A: 255}},
		{"translucent canvas", color.NRGBA{R: 40, G: 80, B: 120, A: 128}, color.NRGBA{R: 129, G: 40, B: 95, A: 177}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Blend(imaging.New(1, 1, tt.canvas), imaging.New(1, 1, glass), image.Pt(0, 0))
			assert.Equal(t, tt.want, out.NRGBAAt(0, 0))
		})
	}
}

func TestCompositeKeepsPartialTransparency(t *testing.T) {
	p, fs := newProcessor(t)
	writePNG(t, fs, "clear.png", 1, 1, color.NRGBA{})
	writePNG(t, fs, "glass.png", 1, 1, color.NRGBA{R: 200, G: 10, B: 77, A: 100})

	out, err := p.Composite(context.Background(), model.Combination{
		layer("clear.png", model.AnchorCenter, image.Point{}),
		layer("glass.png", model.AnchorCenter, image.Point{}),
	})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 77, A: 100}, out.NRGBAAt(0, 0))
}

func TestScale(t *testing.T) {
	img := imaging.New(64, 64, red)

	assert.Same(t, img, Scale(img, model.Scale{}, model.ResampleNearest))
	assert.Equal(t, image.Pt(32, 32), Scale(img, model.Uniform(0.5), model.ResampleNearest).Bounds().Size())
	assert.Equal(t, image.Pt(128, 16), Scale(img, model.Ratio(2, 0.25), model.ResampleBilinear).Bounds().Size())
	assert.Equal(t, image.Pt(7, 9), Scale(img, model.Absolute(7, 9), model.ResampleLanczos).Bounds().Size())
}

func TestCompositeErrors(t *testing.T) {
	p, _ := newProcessor(t)
	ctx := context.Background()

	_, err := p.Composite(ctx, model.Combination{{}})
	assert.ErrorIs(t, err, model.ErrBlankBase)

	_, err = p.Composite(ctx, model.Combination{
		layer("base.png", model.AnchorCenter, image.Point{}),
		layer("gone.png", model.AnchorCenter, image.Point{}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer 1")

	_, err = p.Composite(ctx, nil)
	assert.Error(t, err)
}
