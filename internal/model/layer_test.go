package model

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchorPosition(t *testing.T) {
	canvas := image.Pt(100, 100)
	overlay := image.Pt(20, 20)

	tests := []struct {
		anchor Anchor
		want   image.Point
	}{
		{AnchorTopLeft, image.Pt(0, 0)},
		{AnchorTopCenter, image.Pt(40, 0)},
		{AnchorTopRight, image.Pt(80, 0)},
		{AnchorLeftCenter, image.Pt(0, 40)},
		{AnchorCenter, image.Pt(40, 40)},
		{AnchorRightCenter, image.Pt(80, 40)},
		{AnchorBottomLeft, image.Pt(0, 80)},
		{AnchorBottomCenter, image.Pt(40, 80)},
		{AnchorBottomRight, image.Pt(80, 80)},
	}

	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.anchor.Position(canvas, overlay))
		})
	}
}

func TestAnchorPositionFloorsOddAndOversized(t *testing.T) {
	assert.Equal(t, image.Pt(2, 2), AnchorCenter.Position(image.Pt(15, 15), image.Pt(10, 10)))
	// Overlay larger than canvas: (10-13)//2 == -2, as floor division.
	assert.Equal(t, image.Pt(-2, -2), AnchorCenter.Position(image.Pt(10, 10), image.Pt(13, 13)))
}

func TestParseAnchor(t *testing.T) {
	a, ok := ParseAnchor("Bottom_Right")
	assert.True(t, ok)
	assert.Equal(t, AnchorBottomRight, a)

	a, ok = ParseAnchor("")
	assert.True(t, ok)
	assert.Equal(t, AnchorCenter, a)

	a, ok = ParseAnchor("middle")
	assert.False(t, ok)
	assert.Equal(t, AnchorCenter, a)
}

func TestParseResample(t *testing.T) {
	r, ok := ParseResample("LANCZOS")
	assert.True(t, ok)
	assert.Equal(t, ResampleLanczos, r)

	r, ok = ParseResample("sinc")
	assert.False(t, ok)
	assert.Equal(t, ResampleNearest, r)
}

func TestScaleApply(t *testing.T) {
	tests := []struct {
		name  string
		scale Scale
		w, h  int
		wantW int
		wantH int
	}{
		{"none keeps size", Scale{}, 64, 48, 64, 48},
		{"uniform half", Uniform(0.5), 64, 64, 32, 32},
		{"uniform truncates", Uniform(1.5), 5, 3, 7, 4},
		{"ratio", Ratio(2, 0.25), 10, 10, 20, 2},
		{"absolute", Absolute(7, 9), 64, 64, 7, 9},
		{"never below one pixel", Uniform(0.01), 10, 10, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.scale.Apply(tt.w, tt.h)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
