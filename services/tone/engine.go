// services/tone/engine.go
package tone

import (
	"context"
	"io"

	"tonegen-go/errcode"
	"tonegen-go/synth"
	"tonegen-go/types"
	"tonegen-go/x/conv"
)

// Engine owns one iteration of the synthesis loop: sample the selection
// (switched mode), read the phase counter, compute the duty value, write
// the carrier compare register. All hardware access happens on the single
// goroutine that calls Step; the only concurrency is the counter advancing
// in hardware, which Step treats as a read-only snapshot.
type Engine struct {
	clock PhaseClock
	out   Carrier
	sel   *Selector // nil in fixed mode
	debug io.Writer

	code   synth.Code
	freqHz uint32
	wrap   uint16
	silent bool

	onChange func(types.ToneValue)
}

// NewFixed builds a variant-1 engine: one programmed frequency, running
// until the context handed to Run is cancelled.
func NewFixed(clock PhaseClock, out Carrier, freqHz uint32) *Engine {
	return &Engine{clock: clock, out: out, freqHz: freqHz}
}

// NewSwitched builds a variant-2 engine: the selection code is re-sampled
// from the switches on every iteration.
func NewSwitched(clock PhaseClock, out Carrier, sel *Selector) *Engine {
	return &Engine{clock: clock, out: out, sel: sel}
}

// WithDebug attaches a one-shot diagnostic sink; the computed wrap period
// is written there once during Init.
func (e *Engine) WithDebug(w io.Writer) *Engine {
	e.debug = w
	return e
}

// OnChange registers a hook invoked (from the loop goroutine) whenever the
// selection, frequency or wrap period changes.
func (e *Engine) OnChange(fn func(types.ToneValue)) { e.onChange = fn }

// Init configures both timers and opens the actuation path once. In
// switched mode the current switch code decides the initial state, so a
// generator powered up with no switch pressed starts silent.
func (e *Engine) Init() error {
	if e.sel == nil && e.freqHz == 0 {
		return errcode.InvalidParams
	}
	if err := e.out.Configure(); err != nil {
		return err
	}

	if e.sel != nil {
		e.code = e.sel.ReadCode()
		e.freqHz, e.wrap = e.sel.Apply(e.code)
		e.silent = e.code == synth.CodeSilence
	} else {
		e.wrap = synth.WrapTicks(e.clock.TickRate(), e.freqHz)
		e.clock.SetWrap(e.wrap)
	}

	e.clock.Start()
	if !e.silent {
		e.out.Start()
	}

	e.emitWrapDebug()
	e.notify()
	return nil
}

// Step performs one control-loop iteration.
func (e *Engine) Step() {
	if e.sel != nil {
		if code := e.sel.ReadCode(); code != e.code {
			e.apply(code)
		}
		if e.silent {
			return
		}
	}
	e.out.SetDuty(synth.Sample(e.clock.Count(), e.wrap))
}

// apply switches to a new selection. The phase counter keeps running; only
// the wrap comparator and the carrier gate change.
func (e *Engine) apply(code synth.Code) {
	e.code = code
	e.freqHz, e.wrap = e.sel.Apply(code)

	wasSilent := e.silent
	e.silent = code == synth.CodeSilence
	switch {
	case e.silent && !wasSilent:
		e.out.Stop()
	case !e.silent && wasSilent:
		e.out.Start()
	}
	e.notify()
}

// Retune reprograms a fixed-mode engine to a new frequency, live.
func (e *Engine) Retune(freqHz uint32) error {
	if e.sel != nil {
		return errcode.Unsupported
	}
	if freqHz == 0 {
		return errcode.InvalidParams
	}
	e.freqHz = freqHz
	e.wrap = synth.WrapTicks(e.clock.TickRate(), freqHz)
	e.clock.SetWrap(e.wrap)
	e.notify()
	return nil
}

// Stop powers down both timers. The phase count is stale afterwards and
// the output pin rests at its idle level.
func (e *Engine) Stop() {
	e.out.Stop()
	e.clock.Stop()
	e.silent = true
}

// Run steps until ctx is cancelled, then stops both timers. The context is
// the explicit, externally-cleared run flag of the fixed variant.
func (e *Engine) Run(ctx context.Context) {
	for ctx.Err() == nil {
		e.Step()
	}
	e.Stop()
}

// Value reports the current selection for publication.
func (e *Engine) Value() types.ToneValue {
	return types.ToneValue{
		Code:      uint8(e.code),
		FreqHz:    e.freqHz,
		WrapTicks: e.wrap,
		Silent:    e.silent,
	}
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange(e.Value())
	}
}

// emitWrapDebug writes "wrap_ticks N" to the debug sink, allocation-light
// so it is safe on MCU builds.
func (e *Engine) emitWrapDebug() {
	if e.debug == nil {
		return
	}
	var num [20]byte
	line := append([]byte("wrap_ticks "), conv.Utoa(num[:], uint64(e.wrap))...)
	line = append(line, '\n')
	_, _ = e.debug.Write(line)
}
