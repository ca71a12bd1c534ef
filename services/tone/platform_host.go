// services/tone/platform_host.go
//go:build !rp2040 && !rp2350

package tone

import (
	"os"

	"tonegen-go/sim"
	"tonegen-go/types"
)

// openPlatformRig builds the host rig: a wall-clock phase timer, a
// recording carrier and latched fake switches. There is no audio path on
// the host; use cmd/tone-render to hear or inspect the output.
func openPlatformRig(cfg types.ToneConfig) (Rig, error) {
	return Rig{
		Clock:    newTickerClock(cfg.TickRateHz),
		Out:      sim.NewCarrier(),
		Switches: [3]InputPin{&sim.Pin{}, &sim.Pin{}, &sim.Pin{}},
		Debug:    os.Stdout,
	}, nil
}
