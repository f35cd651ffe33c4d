package processor

import (
	"github.com/disintegration/imaging"

	"github.com/thepixelmancer/image-mixer/internal/model"
)

// Filter maps a resample kernel to its imaging filter.
func Filter(r model.Resample) imaging.ResampleFilter {
	switch r {
	case model.ResampleBox:
		return imaging.Box
	case model.ResampleBilinear:
		return imaging.Linear
	case model.ResampleHamming:
		return imaging.Hamming
	case model.ResampleBicubic:
		return imaging.CatmullRom
	case model.ResampleLanczos:
		return imaging.Lanczos
	default:
		return imaging.NearestNeighbor
	}
}
