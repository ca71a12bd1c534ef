package sim

// Clock is a manually advanced phase timer. It satisfies the tone service's
// PhaseClock contract while leaving the passage of time to the caller.
type Clock struct {
	tickRate uint32
	running  bool
	ctr      Counter
}

// NewClock creates a stopped clock ticking (when advanced) at tickRate Hz.
func NewClock(tickRate uint32) *Clock {
	return &Clock{tickRate: tickRate}
}

func (c *Clock) TickRate() uint32 { return c.tickRate }

// SetWrap programs the wrap period without resetting the running count.
func (c *Clock) SetWrap(ticks uint16) { c.ctr.SetWrap(ticks) }

func (c *Clock) Wrap() uint16 { return c.ctr.Wrap() }

// Count returns the counter snapshot. After Stop the value is stale, not
// reset; that mirrors the hardware contract.
func (c *Clock) Count() uint16 { return c.ctr.Count() }

func (c *Clock) Start() { c.running = true }
func (c *Clock) Stop()  { c.running = false }

// Advance plays n ticks into the counter. Ignored while stopped.
func (c *Clock) Advance(n uint32) {
	if c.running {
		c.ctr.Advance(n)
	}
}
