// Package synth holds the pure waveform maths: the phase → duty mapping
// evaluated once per control-loop iteration, and the frequency → wrap-period
// conversion used to program the phase timer.
package synth

import (
	"math"

	"tonegen-go/x/mathx"
)

const (
	// MaxDuty is the full-scale value of the 8-bit PWM compare register.
	MaxDuty = 255

	// The duty scale is derived from the output voltage range rather than
	// embedded as a bare 255/5 literal: full scale spans the supply rail,
	// and the sine is centred on the mid rail.
	supplyVolts = 5.0
	midVolts    = supplyVolts / 2
	dutyPerVolt = float64(MaxDuty) / supplyVolts

	// DefaultTickRate is the phase timer rate the generators are tuned
	// for: a 1 MHz tick (e.g. an 8 MHz clock behind a /8 prescaler).
	DefaultTickRate uint32 = 1_000_000

	// MaxWrap is the largest programmable wrap period (16-bit register).
	MaxWrap = math.MaxUint16
)

// Sample maps a phase counter reading to the instantaneous PWM duty value:
//
//	duty = round(dutyPerVolt · (midVolts + midVolts·sin(2π·phase/wrap)))
//
// wrap must be non-zero; callers obtain it from WrapTicks, which never
// returns 0. phase is reduced modulo wrap, so phase==wrap yields the same
// sample as phase==0 (the counter wraps cleanly).
func Sample(phase, wrap uint16) uint8 {
	angle := 2 * math.Pi * float64(phase%wrap) / float64(wrap)
	volts := midVolts + midVolts*math.Sin(angle)
	return uint8(math.Round(volts * dutyPerVolt))
}

// WrapTicks converts a target frequency to a phase timer wrap period,
// rounding to the nearest tick and clamping to the 16-bit register range.
// freqHz==0 is coerced to 1 so the division stays defined; true silence is
// gated at the carrier, not encoded as a zero period.
func WrapTicks(tickRate, freqHz uint32) uint16 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint16(mathx.Clamp(mathx.RoundDiv(tickRate, freqHz), 1, MaxWrap))
}

// MinFreqHz is the lowest frequency representable without clamping: the
// wrap register is 16 bits, so anything below tickRate/65535 saturates.
func MinFreqHz(tickRate uint32) uint32 {
	return mathx.CeilDiv(tickRate, uint32(MaxWrap))
}
