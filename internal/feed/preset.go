package feed

import "fmt"

// Preset names one of the fixed volatility regimes.
type Preset string

const (
	PresetLow    Preset = "low"
	PresetMedium Preset = "medium"
	PresetHigh   Preset = "high"
)

// VolatilityConfig holds the annualized parameters of the price process.
type VolatilityConfig struct {
	Sigma float64 // annualized volatility
	Mu    float64 // annualized drift
}

var presets = map[Preset]VolatilityConfig{
	PresetLow:    {Sigma: 0.15, Mu: 0},
	PresetMedium: {Sigma: 0.30, Mu: 0},
	PresetHigh:   {Sigma: 0.50, Mu: 0},
}

// Volatility returns the parameters for p, or false if p is not a known preset.
func Volatility(p Preset) (VolatilityConfig, bool) {
	v, ok := presets[p]
	return v, ok
}

// ParsePreset converts a config string into a Preset.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := presets[p]; !ok {
		return "", fmt.Errorf("unknown volatility preset %q, must be one of: low, medium, high", s)
	}
	return p, nil
}
