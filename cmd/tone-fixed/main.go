package main

import (
	"context"
	"time"

	"tonegen-go/bus"
	"tonegen-go/services/tone"
	"tonegen-go/types"
)

// Single-frequency generator: one PWM pin, one programmed pitch, running
// until power-off. On a Pico this drives GPIO15 through an RC low-pass.

const (
	outPin = 15
	freqHz = 600
)

func main() {
	time.Sleep(3 * time.Second) // let USB serial enumerate
	ctx := context.Background()

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(4)
	svcConn := b.NewConnection("tone")
	uiConn := b.NewConnection("ui")

	println("[main] subscribing to tone/# for diagnostics ...")
	mon := uiConn.Subscribe(bus.T("tone", "#"))
	go func() {
		for m := range mon.Channel() {
			println("[monitor] <-", m.Topic.String())
		}
	}()

	println("[main] starting tone.Run ...")
	go tone.Run(ctx, svcConn)

	cfg := types.ToneConfig{
		Mode:        types.ModeFixed,
		FixedFreqHz: freqHz,
		OutPin:      outPin,
	}
	println("[main] publishing config/tone ...")
	uiConn.Publish(uiConn.NewMessage(bus.T("config", "tone"), cfg, true))

	readNow := bus.T("tone", "control", "read_now")
	for {
		time.Sleep(5 * time.Second)
		if _, err := uiConn.RequestWait(ctx, uiConn.NewMessage(readNow, nil, false)); err != nil {
			println("[main] read_now error:", err.Error())
		}
	}
}
