package sim

import (
	"sync"
	"sync/atomic"
)

// Carrier records duty writes in place of a PWM output timer. The carrier
// waveform itself is not modelled; what matters to callers is the sequence
// of compare-register writes and the gate state. Safe for concurrent use:
// tests poke at it while the synthesis loop runs.
type Carrier struct {
	mu         sync.Mutex
	configured bool
	running    bool
	duty       uint8

	traceOn bool
	trace   []uint8
}

func NewCarrier() *Carrier { return &Carrier{} }

// WithTrace makes every duty write append to an in-memory trace.
func (c *Carrier) WithTrace() *Carrier {
	c.mu.Lock()
	c.traceOn = true
	c.mu.Unlock()
	return c
}

func (c *Carrier) Configure() error {
	c.mu.Lock()
	c.configured = true
	c.mu.Unlock()
	return nil
}

func (c *Carrier) SetDuty(v uint8) {
	c.mu.Lock()
	c.duty = v
	if c.traceOn {
		c.trace = append(c.trace, v)
	}
	c.mu.Unlock()
}

func (c *Carrier) Start() {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
}

func (c *Carrier) Stop() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *Carrier) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

func (c *Carrier) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Carrier) Duty() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duty
}

// Trace returns a copy of the duty write history.
func (c *Carrier) Trace() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.trace...)
}

// Output is the filtered-average level on the pin as a fraction of the
// supply: duty/full-scale while the carrier runs, the idle level (0) while
// it is stopped.
func (c *Carrier) Output() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return 0
	}
	return float64(c.duty) / 255
}

// Pin is a settable digital input level, standing in for one switch line.
type Pin struct {
	level atomic.Bool
}

func (p *Pin) Set(level bool) { p.level.Store(level) }
func (p *Pin) Get() bool      { return p.level.Load() }
