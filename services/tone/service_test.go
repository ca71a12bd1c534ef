package tone

import (
	"context"
	"io"
	"testing"
	"time"

	"tonegen-go/bus"
	"tonegen-go/sim"
	"tonegen-go/synth"
	"tonegen-go/types"
)

const waitFor = 2 * time.Second

type harness struct {
	t      *testing.T
	bus    *bus.Bus
	client *bus.Connection

	clk  *sim.Clock
	car  *sim.Carrier
	pins [3]*sim.Pin

	cancel context.CancelFunc
	done   chan struct{}
}

// newHarness starts the service on its own connection with sim hardware
// injected through the rig opener, then hands the test a client connection.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:    t,
		bus:  bus.NewBus(16),
		car:  sim.NewCarrier(),
		pins: [3]*sim.Pin{{}, {}, {}},
		done: make(chan struct{}),
	}
	h.client = h.bus.NewConnection("test-client")

	open := func(cfg types.ToneConfig) (Rig, error) {
		h.clk = sim.NewClock(cfg.TickRateHz)
		return Rig{
			Clock:    h.clk,
			Out:      h.car,
			Switches: [3]InputPin{h.pins[0], h.pins[1], h.pins[2]},
			Debug:    io.Discard,
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		RunWithOpener(ctx, h.bus.NewConnection("svc-tone"), open)
	}()

	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) waitState(sub *bus.Subscription, level string) types.ToneState {
	h.t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case m := <-sub.Channel():
			st, ok := m.Payload.(types.ToneState)
			if ok && st.Level == level {
				return st
			}
		case <-deadline:
			h.t.Fatalf("no %q state within %v", level, waitFor)
		}
	}
}

func (h *harness) waitValue(sub *bus.Subscription, match func(types.ToneValue) bool) types.ToneValue {
	h.t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case m := <-sub.Channel():
			v, ok := m.Payload.(types.ToneValue)
			if ok && match(v) {
				return v
			}
		case <-deadline:
			h.t.Fatalf("no matching value within %v", waitFor)
		}
	}
}

func (h *harness) configure(cfg types.ToneConfig) {
	h.client.Publish(h.client.NewMessage(bus.T("config", "tone"), cfg, true))
}

func (h *harness) control(verb string, payload any) *bus.Message {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	rep, err := h.client.RequestWait(ctx,
		h.client.NewMessage(bus.T("tone", "control", verb), payload, false))
	if err != nil {
		h.t.Fatalf("control %s: %v", verb, err)
	}
	return rep
}

func TestService_IdleUntilConfigured(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.waitState(states, "idle")

	rep := h.control(ctrlReadNow, nil)
	er, ok := rep.Payload.(types.ErrorReply)
	if !ok || er.Error != "not_ready" {
		t.Fatalf("control before config: reply = %#v, want not_ready", rep.Payload)
	}
}

func TestService_FixedRoundTrip(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.waitState(states, "idle")

	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 600, OutPin: 15})
	h.waitState(states, "running")

	// Info and value are retained, so a late subscriber still sees them.
	infos := h.client.Subscribe(bus.T("tone", "info"))
	select {
	case m := <-infos.Channel():
		info := m.Payload.(types.ToneInfo)
		if info.Mode != types.ModeFixed || info.TickRateHz != synth.DefaultTickRate {
			t.Errorf("info = %+v", info)
		}
	case <-time.After(waitFor):
		t.Fatal("no retained info")
	}

	values := h.client.Subscribe(bus.T("tone", "value"))
	v := h.waitValue(values, func(v types.ToneValue) bool { return v.FreqHz == 600 })
	if want := synth.WrapTicks(synth.DefaultTickRate, 600); v.WrapTicks != want {
		t.Errorf("wrap = %d, want %d", v.WrapTicks, want)
	}
	if v.Silent {
		t.Error("fixed generator reported silent")
	}
	if !h.car.Running() {
		t.Error("carrier not running")
	}
}

func TestService_SetFreq(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 600})
	h.waitState(states, "running")

	rep := h.control(ctrlSetFreq, types.ToneSet{FreqHz: 880})
	if okr, ok := rep.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("set_freq reply = %#v", rep.Payload)
	}

	values := h.client.Subscribe(bus.T("tone", "value"))
	v := h.waitValue(values, func(v types.ToneValue) bool { return v.FreqHz == 880 })
	if want := synth.WrapTicks(synth.DefaultTickRate, 880); v.WrapTicks != want {
		t.Errorf("wrap = %d, want %d", v.WrapTicks, want)
	}
}

func TestService_SetFreqRejectedInSwitchedMode(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeSwitched, SwitchPins: [3]int{16, 17, 18}})
	h.waitState(states, "running")

	rep := h.control(ctrlSetFreq, types.ToneSet{FreqHz: 880})
	er, ok := rep.Payload.(types.ErrorReply)
	if !ok || er.Error != "unsupported" {
		t.Fatalf("reply = %#v, want unsupported", rep.Payload)
	}
}

func TestService_SwitchedFollowsPins(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeSwitched, SwitchPins: [3]int{16, 17, 18}})
	h.waitState(states, "running")

	values := h.client.Subscribe(bus.T("tone", "value"))
	h.waitValue(values, func(v types.ToneValue) bool { return v.Silent })

	// 0b011 selects entry 3.
	h.pins[0].Set(true)
	h.pins[1].Set(true)
	v := h.waitValue(values, func(v types.ToneValue) bool { return v.Code == 3 })
	if v.FreqHz != synth.Pitches[3] || v.Silent {
		t.Errorf("value = %+v, want %d Hz audible", v, synth.Pitches[3])
	}

	h.pins[0].Set(false)
	h.pins[1].Set(false)
	h.waitValue(values, func(v types.ToneValue) bool { return v.Silent && v.Code == 0 })
	if h.car.Running() {
		t.Error("carrier still running after release")
	}
}

func TestService_SelectCode(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 600})
	h.waitState(states, "running")

	rep := h.control(ctrlSelect, types.ToneSelect{Code: 6})
	if okr, ok := rep.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("select reply = %#v", rep.Payload)
	}
	values := h.client.Subscribe(bus.T("tone", "value"))
	h.waitValue(values, func(v types.ToneValue) bool { return v.FreqHz == synth.Pitches[6] })

	rep = h.control(ctrlSelect, types.ToneSelect{Code: 0})
	er, ok := rep.Payload.(types.ErrorReply)
	if !ok || er.Error != "invalid_params" {
		t.Fatalf("select silence reply = %#v, want invalid_params", rep.Payload)
	}
}

func TestService_StartReplaysConfig(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 600})
	h.waitState(states, "running")

	h.control(ctrlStop, nil)
	h.waitState(states, "stopped")
	if h.car.Running() {
		t.Fatal("carrier running after stop")
	}

	rep := h.control(ctrlStart, nil)
	if okr, ok := rep.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("start reply = %#v", rep.Payload)
	}
	h.waitState(states, "running")
	if !h.car.Running() {
		t.Error("carrier not running after start")
	}
}

func TestService_StopVerb(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 440})
	h.waitState(states, "running")

	rep := h.control(ctrlStop, nil)
	if okr, ok := rep.Payload.(types.OKReply); !ok || !okr.OK {
		t.Fatalf("stop reply = %#v", rep.Payload)
	}
	st := h.waitState(states, "stopped")
	if st.Status != "requested" {
		t.Errorf("stop status = %q", st.Status)
	}
	if h.car.Running() {
		t.Error("carrier still running after stop")
	}
}

func TestService_UnknownVerb(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.configure(types.ToneConfig{Mode: types.ModeFixed, FixedFreqHz: 440})
	h.waitState(states, "running")

	rep := h.control("transpose", nil)
	er, ok := rep.Payload.(types.ErrorReply)
	if !ok || er.Error != "unsupported" {
		t.Fatalf("reply = %#v, want unsupported", rep.Payload)
	}
}

func TestService_BadConfigStaysIdle(t *testing.T) {
	h := newHarness(t)
	states := h.client.Subscribe(bus.T("tone", "state"))
	h.waitState(states, "idle")

	h.configure(types.ToneConfig{Mode: "warble"})
	st := h.waitState(states, "idle")
	if st.Status != "invalid_params" {
		t.Errorf("status = %q, want invalid_params", st.Status)
	}

	h.configure(types.ToneConfig{Mode: types.ModeFixed}) // missing frequency
	st = h.waitState(states, "idle")
	if st.Status != "invalid_params" {
		t.Errorf("status = %q, want invalid_params", st.Status)
	}
}
