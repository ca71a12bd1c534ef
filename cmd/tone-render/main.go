// tone-render runs the generator against the simulated rig and renders the
// filtered output to a WAV file, optionally playing it back. Useful for
// checking a pitch table by ear before flashing hardware.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"tonegen-go/services/tone"
	"tonegen-go/sim"
	"tonegen-go/synth"
)

func main() {
	var (
		freqHz   = flag.Uint("freq", 600, "frequency in Hz (fixed mode)")
		code     = flag.Int("code", -1, "pitch table code 0..7 (overrides -freq)")
		duration = flag.Duration("dur", 2*time.Second, "render length")
		rate     = flag.Int("rate", 44100, "output sample rate")
		tickRate = flag.Uint("tick", synth.DefaultTickRate, "phase timer tick rate in Hz")
		cutoff   = flag.Float64("cutoff", 2000, "RC low-pass cutoff in Hz")
		outPath  = flag.String("o", "tone.wav", "output WAV path")
		play     = flag.Bool("play", false, "play the rendered tone")
	)
	flag.Parse()

	if err := run(*freqHz, *code, *duration, *rate, *tickRate, *cutoff, *outPath, *play); err != nil {
		fmt.Fprintln(os.Stderr, "tone-render:", err)
		os.Exit(1)
	}
}

func run(freqHz uint, code int, dur time.Duration, rate int, tickRate uint, cutoff float64, outPath string, play bool) error {
	clk := sim.NewClock(uint32(tickRate))
	car := sim.NewCarrier()

	var eng *tone.Engine
	switch {
	case code >= 0:
		if code > 7 {
			return fmt.Errorf("code %d out of range 0..7", code)
		}
		pins := [3]*sim.Pin{{}, {}, {}}
		pins[0].Set(code&1 != 0)
		pins[1].Set(code&2 != 0)
		pins[2].Set(code&4 != 0)
		sel := tone.NewSelector(clk, [3]tone.InputPin{pins[0], pins[1], pins[2]}, synth.Pitches)
		eng = tone.NewSwitched(clk, car, sel)
	default:
		eng = tone.NewFixed(clk, car, uint32(freqHz))
	}
	if err := eng.Init(); err != nil {
		return err
	}

	samples := renderPCM(eng, clk, car, dur, rate, uint32(tickRate), cutoff)

	if err := writeWAV(outPath, samples, rate); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d samples at %d Hz\n", outPath, len(samples), rate)

	if play {
		return playback(samples, rate)
	}
	return nil
}

// renderPCM steps the generator one audio sample at a time. The carrier is
// modelled at its per-period average (the duty fraction); the RC filter then
// smooths the steps between duty updates, matching what the analog network
// does to the real PWM output.
func renderPCM(eng *tone.Engine, clk *sim.Clock, car *sim.Carrier, dur time.Duration, rate int, tickRate uint32, cutoff float64) []int16 {
	n := int(float64(rate) * dur.Seconds())
	lp := sim.NewRCFilter(cutoff, float64(rate))
	out := make([]int16, n)

	// Fractional tick accumulator keeps the simulated timer honest when
	// tickRate is not a multiple of the audio rate.
	var acc uint64
	for i := 0; i < n; i++ {
		acc += uint64(tickRate)
		ticks := uint32(acc / uint64(rate))
		acc %= uint64(rate)

		clk.Advance(ticks)
		eng.Step()

		// Output is the duty fraction 0..1; centre it and leave headroom.
		v := lp.Step(car.Output())
		out[i] = int16((v - 0.5) * 2 * 0.8 * 32767)
	}
	eng.Stop()
	return out
}

func writeWAV(path string, samples []int16, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func playback(samples []int16, rate int) error {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return err
	}
	<-ready

	p := ctx.NewPlayer(bytes.NewReader(pcm))
	p.Play()
	for p.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}
	return p.Close()
}
