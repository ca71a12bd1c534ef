// services/tone/hw.go
package tone

import "io"

// -----------------------------------------------------------------------------
// Hardware contracts
// -----------------------------------------------------------------------------

// PhaseClock is a free-running compare-match timer: the count advances
// autonomously at TickRate and resets to zero at the programmed wrap period.
// Software only ever reads the count; SetWrap reprograms the comparator
// without resetting the running count, which is what makes live frequency
// changes glitch-light (the change lands at the next wrap, at the cost of a
// partial final cycle at the old period). SetWrap with 0 ticks is a caller
// contract violation, never checked at this level.
type PhaseClock interface {
	TickRate() uint32
	SetWrap(ticks uint16)
	Wrap() uint16
	Count() uint16
	Start()
	Stop() // count is stale afterwards, not reset
}

// Carrier is the PWM output timer: a fixed high-frequency carrier whose
// duty compare register is rewritten once per loop iteration. SetDuty is
// hardware-buffered and takes effect at the next carrier cycle boundary.
// Stopped means the pin sits at its idle level, not mid-scale.
type Carrier interface {
	Configure() error
	SetDuty(v uint8)
	Start()
	Stop()
}

// InputPin is one switch line, sampled instantaneously. No debounce: a
// bouncing contact is the caller's problem, per the selector contract.
type InputPin interface {
	Get() bool
}

// Rig bundles the hardware a generator runs against. Debug, when non-nil,
// receives one-shot diagnostics (the computed wrap period at startup).
type Rig struct {
	Clock    PhaseClock
	Out      Carrier
	Switches [3]InputPin
	Debug    io.Writer
}
