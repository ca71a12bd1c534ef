// services/tone/selector.go
package tone

import (
	"tonegen-go/synth"
)

// Selector maps three raw switch lines to a frequency and programs the
// phase timer accordingly. It is stateless apart from the table: every
// read is an instantaneous level sample with no debounce, no hysteresis
// and no edge memory, so a bouncing contact yields a rapidly changing
// code and the output audibly glitches between frequencies until the
// contact settles.
type Selector struct {
	clock PhaseClock
	pins  [3]InputPin
	table synth.Table
}

func NewSelector(clock PhaseClock, pins [3]InputPin, table synth.Table) *Selector {
	return &Selector{clock: clock, pins: pins, table: table}
}

// ReadCode concatenates the three switch levels, bit i = level of switch i.
func (s *Selector) ReadCode() synth.Code {
	return synth.CodeFromBits(s.pins[0].Get(), s.pins[1].Get(), s.pins[2].Get())
}

// Lookup returns the table frequency for a code.
func (s *Selector) Lookup(code synth.Code) uint32 {
	return s.table.Lookup(code)
}

// Apply programs the wrap period for a code's frequency. The phase counter
// keeps running across the change.
func (s *Selector) Apply(code synth.Code) (freqHz uint32, wrap uint16) {
	freqHz = s.table.Lookup(code)
	wrap = synth.WrapTicks(s.clock.TickRate(), freqHz)
	s.clock.SetWrap(wrap)
	return freqHz, wrap
}
