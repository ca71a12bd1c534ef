// services/tone/clock.go
package tone

import (
	"time"

	"tonegen-go/sim"
)

// tickerClock derives phase ticks from the wall clock: elapsed time since
// the last read is converted to ticks at the configured rate and played
// into a compare-match counter. Wrap semantics (no reset on period change,
// partial final cycle) come from the counter model; only the time source
// is real. Used by both the host rig and the RP2 rig, where the phase
// timer is emulated on top of the microsecond timebase.
type tickerClock struct {
	tickRate uint32
	running  bool
	last     time.Time
	accNs    uint64 // sub-tick remainder, scaled by tickRate
	ctr      sim.Counter
}

func newTickerClock(tickRate uint32) *tickerClock {
	return &tickerClock{tickRate: tickRate}
}

func (c *tickerClock) TickRate() uint32 { return c.tickRate }

func (c *tickerClock) SetWrap(ticks uint16) { c.ctr.SetWrap(ticks) }
func (c *tickerClock) Wrap() uint16         { return c.ctr.Wrap() }

func (c *tickerClock) Count() uint16 {
	c.sync()
	return c.ctr.Count()
}

func (c *tickerClock) Start() {
	if c.running {
		return
	}
	c.running = true
	c.last = time.Now()
}

func (c *tickerClock) Stop() {
	c.sync()
	c.running = false
}

func (c *tickerClock) sync() {
	if !c.running {
		return
	}
	now := time.Now()
	elapsed := now.Sub(c.last)
	c.last = now
	c.accNs += uint64(elapsed.Nanoseconds()) * uint64(c.tickRate)
	ticks := c.accNs / 1_000_000_000
	c.accNs %= 1_000_000_000
	c.ctr.Advance(uint32(ticks))
}
