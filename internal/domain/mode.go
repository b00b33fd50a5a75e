package domain

import (
	"fmt"
	"strings"
)

// TopicalMode scopes prompt construction, local rule selection and
// follow-up suggestions. It is set by the user, never inferred.
type TopicalMode string

const (
	ModeGeneral       TopicalMode = "general"
	ModeCropAnalysis  TopicalMode = "crop-analysis"
	ModeWeather       TopicalMode = "weather"
	ModeMarket        TopicalMode = "market"
	ModeSensors       TopicalMode = "sensors"
	ModePestDetection TopicalMode = "pest-detection"
)

// AllModes lists the modes in display order.
var AllModes = []TopicalMode{
	ModeGeneral,
	ModeCropAnalysis,
	ModeWeather,
	ModeMarket,
	ModeSensors,
	ModePestDetection,
}

// ValidModes is the canonical set of accepted mode strings.
var ValidModes = map[TopicalMode]bool{
	ModeGeneral:       true,
	ModeCropAnalysis:  true,
	ModeWeather:       true,
	ModeMarket:        true,
	ModeSensors:       true,
	ModePestDetection: true,
}

// ParseMode converts user input into a TopicalMode. Empty input yields
// ModeGeneral.
func ParseMode(s string) (TopicalMode, error) {
	m := TopicalMode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeGeneral, nil
	}
	if !ValidModes[m] {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Label returns a human-readable name for the mode.
func (m TopicalMode) Label() string {
	switch m {
	case ModeGeneral:
		return "General"
	case ModeCropAnalysis:
		return "Crop Analysis"
	case ModeWeather:
		return "Weather"
	case ModeMarket:
		return "Market"
	case ModeSensors:
		return "Sensors"
	case ModePestDetection:
		return "Pest Detection"
	default:
		return string(m)
	}
}

func (m TopicalMode) String() string { return string(m) }

// Valid reports whether m is one of AllModes.
func (m TopicalMode) Valid() bool { return ValidModes[m] }
