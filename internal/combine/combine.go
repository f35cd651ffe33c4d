// Package combine expands per-layer variant lists into combinations.
package combine

import (
	"fmt"
	"math"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// Generate expands lists according to mode. Every combination is built,
// so callers handling user-sized batches should use NewSequence instead.
func Generate(mode model.Mode, lists [][]model.Variant) ([]model.Combination, error) {
	seq, err := NewSequence(mode, lists)
	if err != nil {
		return nil, err
	}
	return seq.All(), nil
}

// Count returns how many combinations Generate would produce, without
// building them. Cartesian counts that overflow int are reported as errors.
func Count(mode model.Mode, lists [][]model.Variant) (int, error) {
	switch mode {
	case model.ModeCartesian:
		if len(lists) == 0 {
			return 0, nil
		}
		n := 1
		for _, l := range lists {
			if len(l) == 0 {
				return 0, nil
			}
			if n > math.MaxInt/len(l) {
				return 0, fmt.Errorf("%w: cartesian product is too large", model.ErrConfiguration)
			}
			n *= len(l)
		}
		return n, nil
	case model.ModeZip:
		return zipLength(lists)
	default:
		return 0, fmt.Errorf("%w: unknown combination_mode %q", model.ErrConfiguration, mode)
	}
}

// Cartesian returns the full cross product in standard product order:
// the last layer varies fastest. A product too large to count yields nil.
func Cartesian(lists [][]model.Variant) []model.Combination {
	seq, err := NewSequence(model.ModeCartesian, lists)
	if err != nil {
		return nil
	}
	return seq.All()
}

// Zip pairs variants positionally. Single-variant layers are broadcast to the
// longest list; any other length mismatch is a ZipLengthMismatchError.
func Zip(lists [][]model.Variant) ([]model.Combination, error) {
	seq, err := NewSequence(model.ModeZip, lists)
	if err != nil {
		return nil, err
	}
	return seq.All(), nil
}

func zipLength(lists [][]model.Variant) (int, error) {
	longest := 0
	for _, l := range lists {
		longest = max(longest, len(l))
	}

	for layer, l := range lists {
		if len(l) != 1 && len(l) != longest {
			return 0, &model.ZipLengthMismatchError{Layer: layer, Length: len(l), Expected: longest}
		}
	}

	return longest, nil
}
