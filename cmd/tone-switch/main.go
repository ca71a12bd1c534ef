package main

import (
	"context"
	"time"

	"tonegen-go/bus"
	"tonegen-go/services/tone"
	"tonegen-go/types"
)

// Switch-selected generator: three switches on GPIO16..18 form a 3-bit
// pitch code, code 0 is silence. The selection is re-sampled continuously,
// so chords of switch changes retune the output live.

const outPin = 15

var switchPins = [3]int{16, 17, 18}

func main() {
	time.Sleep(3 * time.Second) // let USB serial enumerate
	ctx := context.Background()

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(4)
	svcConn := b.NewConnection("tone")
	uiConn := b.NewConnection("ui")

	// Echo every selection change so a serial console shows which pitch
	// the switches currently encode.
	mon := uiConn.Subscribe(bus.T("tone", "value"))
	go func() {
		for m := range mon.Channel() {
			v, ok := m.Payload.(types.ToneValue)
			if !ok {
				continue
			}
			if v.Silent {
				println("[monitor] code", v.Code, "silent")
			} else {
				println("[monitor] code", v.Code, "freq", v.FreqHz, "wrap", v.WrapTicks)
			}
		}
	}()

	println("[main] starting tone.Run ...")
	go tone.Run(ctx, svcConn)

	cfg := types.ToneConfig{
		Mode:       types.ModeSwitched,
		OutPin:     outPin,
		SwitchPins: switchPins,
	}
	println("[main] publishing config/tone ...")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "tone"), cfg, true))

	select {}
}
