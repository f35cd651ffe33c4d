package combine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// layers builds variant lists whose paths are "L<layer>V<variant>".
func layers(counts ...int) [][]model.Variant {
	lists := make([][]model.Variant, len(counts))
	for l, n := range counts {
		for v := 0; v < n; v++ {
			lists[l] = append(lists[l], model.Variant{Path: fmt.Sprintf("L%dV%d", l, v)})
		}
	}
	return lists
}

func key(c model.Combination) string {
	s := ""
	for _, v := range c {
		s += v.Path + "|"
	}
	return s
}

func TestCartesianCoversProduct(t *testing.T) {
	lists := layers(2, 3, 4)

	combos := Cartesian(lists)
	require.Len(t, combos, 2*3*4)

	seen := make(map[string]bool)
	for _, c := range combos {
		require.Len(t, c, 3)
		seen[key(c)] = true
	}
	assert.Len(t, seen, 24, "combinations must be unique")

	n, err := Count(model.ModeCartesian, lists)
	require.NoError(t, err)
	assert.Equal(t, 24, n)
}

func TestCartesianOrderLastLayerFastest(t *testing.T) {
	combos := Cartesian(layers(2, 2))

	got := make([]string, len(combos))
	for i, c := range combos {
		got[i] = key(c)
	}

	assert.Equal(t, []string{
		"L0V0|L1V0|",
		"L0V0|L1V1|",
		"L0V1|L1V0|",
		"L0V1|L1V1|",
	}, got)
}

func TestZipBroadcasts(t *testing.T) {
	combos, err := Zip(layers(1, 4, 1))
	require.NoError(t, err)
	require.Len(t, combos, 4)

	for i, c := range combos {
		assert.Equal(t, "L0V0", c[0].Path)
		assert.Equal(t, fmt.Sprintf("L1V%d", i), c[1].Path)
		assert.Equal(t, "L2V0", c[2].Path)
	}
}

func TestZipLengthMismatch(t *testing.T) {
	_, err := Zip(layers(2, 3))

	var mismatch *model.ZipLengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0, mismatch.Layer)
	assert.Equal(t, 2, mismatch.Length)
	assert.Equal(t, 3, mismatch.Expected)

	_, err = Count(model.ModeZip, layers(2, 3))
	assert.ErrorAs(t, err, &mismatch)
}

func TestGenerate(t *testing.T) {
	combos, err := Generate(model.ModeZip, layers(3, 3))
	require.NoError(t, err)
	assert.Len(t, combos, 3)

	combos, err = Generate(model.ModeCartesian, layers(3, 3))
	require.NoError(t, err)
	assert.Len(t, combos, 9)

	_, err = Generate(model.Mode("shuffle"), layers(1))
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestSequenceMatchesGenerate(t *testing.T) {
	for _, mode := range []model.Mode{model.ModeCartesian, model.ModeZip} {
		t.Run(string(mode), func(t *testing.T) {
			lists := layers(3, 1, 3)
			if mode == model.ModeCartesian {
				lists = layers(2, 3, 4)
			}

			seq, err := NewSequence(mode, lists)
			require.NoError(t, err)

			combos, err := Generate(mode, lists)
			require.NoError(t, err)
			require.Equal(t, len(combos), seq.Len())

			for i, c := range combos {
				assert.Equal(t, key(c), key(seq.At(i)), "index %d", i)
			}
		})
	}
}

func TestSequenceHugeProductIsNotBuilt(t *testing.T) {
	lists := layers(100, 100, 100, 100, 100, 100, 100)

	seq, err := NewSequence(model.ModeCartesian, lists)
	require.NoError(t, err)
	assert.Equal(t, 100_000_000_000_000, seq.Len())

	assert.Equal(t, "L0V0|L1V0|L2V0|L3V0|L4V0|L5V0|L6V0|", key(seq.At(0)))
	assert.Equal(t, "L0V99|L1V99|L2V99|L3V99|L4V99|L5V99|L6V99|", key(seq.At(seq.Len()-1)))
	assert.Equal(t, "L0V0|L1V0|L2V0|L3V0|L4V0|L5V1|L6V2|", key(seq.At(102)))

	assert.Panics(t, func() { seq.At(seq.Len()) })
}

func TestList(t *testing.T) {
	l := List(Cartesian(layers(2, 2)))

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, "L0V1|L1V0|", key(l.At(2)))
}
