// Package sim provides stepped, deterministic models of the timer hardware
// the tone generator drives: the free-running phase counter, the PWM carrier
// output, switch input pins and an output reconstruction filter. Tests and
// the host renderer advance these models manually, one batch of ticks at a
// time, instead of waiting on real time.
package sim

// Counter models a compare-match ("CTC") counter: it increments once per
// tick and resets to zero when the count reaches the wrap value, so the
// count stays in [0, wrap). Changing the wrap does not touch the running
// count; if the count already sits at or beyond a newly shrunk wrap, the
// counter runs through the 16-bit overflow first and finishes one partial
// cycle at the stale phase before the new period takes effect.
type Counter struct {
	count uint32 // always < 1<<16
	wrap  uint32 // comparator, 1..65535
}

// SetWrap programs the comparator. ticks must be non-zero; that is a caller
// contract enforced upstream by the wrap-period computation, not checked here.
func (c *Counter) SetWrap(ticks uint16) {
	c.wrap = uint32(ticks)
}

// Wrap returns the programmed comparator value.
func (c *Counter) Wrap() uint16 { return uint16(c.wrap) }

// Count returns the current count.
func (c *Counter) Count() uint16 { return uint16(c.count) }

// Advance steps the counter by n ticks.
func (c *Counter) Advance(n uint32) {
	if c.wrap == 0 {
		return // unconfigured; nothing sensible to count towards
	}
	for n > 0 {
		boundary := c.wrap
		if c.count >= c.wrap {
			// Shrunk wrap below the live count: run through overflow.
			boundary = 1 << 16
		}
		remain := boundary - c.count
		if n < remain {
			c.count += n
			return
		}
		n -= remain
		c.count = 0
	}
}
