package combine

import (
	"fmt"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// Sequence addresses the combinations of a set of layer lists by index
// without materializing them. It is read-only and safe for concurrent use.
type Sequence struct {
	mode  model.Mode
	lists [][]model.Variant
	n     int
}

// NewSequence validates lists for mode and counts the combinations.
func NewSequence(mode model.Mode, lists [][]model.Variant) (*Sequence, error) {
	n, err := Count(mode, lists)
	if err != nil {
		return nil, err
	}
	return &Sequence{mode: mode, lists: lists, n: n}, nil
}

// Len returns the number of combinations.
func (s *Sequence) Len() int {
	return s.n
}

// At returns the combination at index i. Cartesian indexes are decoded in
// mixed radix with the last layer as the least significant digit.
func (s *Sequence) At(i int) model.Combination {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("combine: index %d out of range [0, %d)", i, s.n))
	}

	combo := make(model.Combination, len(s.lists))

	if s.mode == model.ModeZip {
		for layer, l := range s.lists {
			if len(l) == 1 {
				combo[layer] = l[0]
			} else {
				combo[layer] = l[i]
			}
		}
		return combo
	}

	for layer := len(s.lists) - 1; layer >= 0; layer-- {
		l := s.lists[layer]
		combo[layer] = l[i%len(l)]
		i /= len(l)
	}
	return combo
}

// All builds every combination in order.
func (s *Sequence) All() []model.Combination {
	if s.n == 0 {
		return nil
	}

	combos := make([]model.Combination, s.n)
	for i := range combos {
		combos[i] = s.At(i)
	}
	return combos
}

// List adapts already built combinations to the Len/At shape of Sequence.
type List []model.Combination

// Len returns the number of combinations.
func (l List) Len() int {
	return len(l)
}

// At returns the combination at index i.
func (l List) At(i int) model.Combination {
	return l[i]
}
