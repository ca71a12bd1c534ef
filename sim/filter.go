package sim

import "math"

// RCFilter is a one-pole low-pass, the model of the analog RC network that
// turns the PWM carrier into a smooth voltage.
type RCFilter struct {
	alpha float64
	y     float64
}

// NewRCFilter builds a filter with the given cutoff, stepped at sampleHz.
func NewRCFilter(cutoffHz, sampleHz float64) *RCFilter {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / sampleHz
	return &RCFilter{alpha: dt / (rc + dt)}
}

// Step feeds one input sample and returns the filtered output.
func (f *RCFilter) Step(x float64) float64 {
	f.y += f.alpha * (x - f.y)
	return f.y
}
