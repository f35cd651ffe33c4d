package model

import (
	"fmt"
	"strings"
)

// Mode selects how per-layer variant lists are expanded into combinations.
type Mode string

const (
	ModeCartesian Mode = "cartesian"
	ModeZip       Mode = "zip"
)

// DefaultTemplate is used when a job does not set an output template.
const DefaultTemplate = "image_{index}.png"

// ParseMode validates a configured combination mode. Empty means cartesian.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeCartesian, nil
	case ModeCartesian, ModeZip:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown combination_mode %q (want %q or %q)", ErrConfiguration, s, ModeCartesian, ModeZip)
	}
}

// Job is one unit of mixer configuration.
type Job struct {
	Name           string
	OutputFolder   string
	OutputTemplate string
	Mode           Mode
	Layers         []LayerSpec
}
