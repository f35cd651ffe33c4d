package naming

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

func combo(paths ...string) model.Combination {
	c := make(model.Combination, len(paths))
	for i, p := range paths {
		c[i] = model.Variant{Path: p}
	}
	return c
}

func TestFormat(t *testing.T) {
	values := map[string]any{"index": 7, "layer0": "base", "layer1": "hat"}

	tests := []struct {
		tmpl string
		want string
	}{
		{"image_{index}.png", "image_7.png"},
		{"{layer0}_{layer1}.png", "base_hat.png"},
		{"{index:03d}.png", "007.png"},
		{"{index:4d}.png", "   7.png"},
		{"{layer1:5}|.png", "hat  |.png"},
		{"{{literal}}_{index}.png", "{literal}_7.png"},
		{"plain.png", "plain.png"},
	}

	for _, tt := range tests {
		t.Run(tt.tmpl, func(t *testing.T) {
			got, err := Format(tt.tmpl, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatErrors(t *testing.T) {
	values := map[string]any{"index": 1, "layer0": "base"}

	_, err := Format("{layer5}.png", values)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "layer5", missing.Key)
	assert.Equal(t, "{layer5}", missing.Token)

	for _, tmpl := range []string{"{index", "index}.png", "{}.png", "{layer0:03d}.png", "{index:>5}.png"} {
		_, err := Format(tmpl, values)
		assert.ErrorIs(t, err, errFormat, tmpl)
	}
}

func TestNameUsesLayerStems(t *testing.T) {
	n := New(zerolog.Nop())

	got := n.Name("{layer0}_{layer1}_{layer2}_{index}.png", 3, combo("RP/base.png", "", "hats/cap.png"))
	assert.Equal(t, "base_none_cap_3.png", got)
}

func TestNameStripsUnknownLayer(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf))

	got := n.Name("{layer0}_{layer5}_{index}.png", 2, combo("a.png", "b.png", "c.png"))
	assert.Equal(t, "a__2.png", got)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "{layer5}")
}

func TestNameFallsBack(t *testing.T) {
	n := New(zerolog.Nop())

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"two unknown keys", "{layer5}_{layer6}.png", "image_4.png"},
		{"malformed", "{index.png", "image_4.png"},
		{"keeps template extension", "{layer9}{oops}.tiff", "image_4.tiff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Name(tt.tmpl, 4, combo("a.png", "b.png", "c.png")))
		})
	}
}

func TestNameWarnsOncePerTemplate(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf).Level(zerolog.WarnLevel))

	for i := 0; i < 5; i++ {
		n.Name("{layer0}_{layer3}.png", i, combo("a.png"))
	}

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"level":"warn"`)))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "png", Ext("{index}.PNG"))
	assert.Equal(t, "tiff", Ext("out/{index}.tiff"))
	assert.Equal(t, DefaultExt, Ext("{index}"))
}
