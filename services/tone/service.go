// services/tone/service.go
package tone

import (
	"context"

	"tonegen-go/bus"
	"tonegen-go/errcode"
	"tonegen-go/synth"
	"tonegen-go/types"
	"tonegen-go/x/timex"
)

const (
	eventQueueLen = 16
	cmdQueueLen   = 4
)

// Run attaches the tone service to the bus, opening hardware through the
// platform rig for the current build target. Configuration arrives as a
// retained types.ToneConfig on config/tone; state, info and the current
// selection are published retained under tone/.
func Run(ctx context.Context, conn *bus.Connection) {
	RunWithOpener(ctx, conn, openPlatformRig)
}

// RunWithOpener is Run with an injectable rig opener, for host-side tests.
func RunWithOpener(ctx context.Context, conn *bus.Connection, open func(types.ToneConfig) (Rig, error)) {
	s := &service{
		conn:   conn,
		open:   open,
		events: make(chan types.ToneValue, eventQueueLen),
		cmds:   make(chan func(*Engine), cmdQueueLen),
	}
	s.loop(ctx)
}

type service struct {
	conn *bus.Connection
	open func(types.ToneConfig) (Rig, error)

	// Selection changes funnel through events so all bus publication
	// happens on the service goroutine.
	events chan types.ToneValue

	// Control verbs execute on the engine goroutine; every closure runs
	// between two loop iterations, never concurrently with Step.
	cmds chan func(*Engine)

	eng       *Engine
	engCancel context.CancelFunc
	engDone   chan struct{}

	// Last config that produced a running engine; the start verb replays it.
	lastCfg *types.ToneConfig
}

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig())
	ctrlSub := s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.pubState("idle", "awaiting_config")

	for {
		select {
		case <-ctx.Done():
			s.stopEngine()
			s.pubState("stopped", "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(types.ToneConfig)
			if !ok {
				continue
			}
			s.applyConfig(ctx, cfg)

		case m := <-ctrlSub.Channel():
			s.handleControl(ctx, m)

		case v := <-s.events:
			s.conn.Publish(s.conn.NewMessage(topicValue(), v, true))
		}
	}
}

func (s *service) applyConfig(ctx context.Context, cfg types.ToneConfig) {
	// Reconfiguration replaces the running generator.
	s.stopEngine()

	if cfg.TickRateHz == 0 {
		cfg.TickRateHz = synth.DefaultTickRate
	}

	rig, err := s.open(cfg)
	if err != nil {
		s.pubState("idle", string(errcode.Of(err)))
		return
	}

	var eng *Engine
	switch cfg.Mode {
	case types.ModeFixed:
		if cfg.FixedFreqHz == 0 {
			s.pubState("idle", string(errcode.InvalidParams))
			return
		}
		eng = NewFixed(rig.Clock, rig.Out, cfg.FixedFreqHz).WithDebug(rig.Debug)
	case types.ModeSwitched:
		sel := NewSelector(rig.Clock, rig.Switches, synth.Pitches)
		eng = NewSwitched(rig.Clock, rig.Out, sel)
	default:
		s.pubState("idle", string(errcode.InvalidParams))
		return
	}
	eng.OnChange(s.emit)

	if err := eng.Init(); err != nil {
		s.pubState("idle", string(errcode.Of(err)))
		return
	}

	s.conn.Publish(s.conn.NewMessage(topicInfo(), types.ToneInfo{
		Mode:       cfg.Mode,
		TickRateHz: cfg.TickRateHz,
		CarrierHz:  cfg.CarrierHz,
		OutPin:     cfg.OutPin,
		SwitchPins: cfg.SwitchPins,
	}, true))

	engCtx, cancel := context.WithCancel(ctx)
	s.eng = eng
	s.engCancel = cancel
	s.engDone = make(chan struct{})
	go s.engineLoop(engCtx, eng)

	s.lastCfg = &cfg
	s.pubState("running", "")
}

// engineLoop is the tight synthesis poll loop: one Step per pass, with
// control closures slotted between iterations.
func (s *service) engineLoop(ctx context.Context, e *Engine) {
	defer close(s.engDone)
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return
		case cmd := <-s.cmds:
			cmd(e)
		default:
			e.Step()
		}
	}
}

func (s *service) stopEngine() {
	if s.engCancel == nil {
		return
	}
	s.engCancel()
	<-s.engDone
	s.engCancel = nil
	s.eng = nil
}

func (s *service) handleControl(ctx context.Context, m *bus.Message) {
	verb := m.Topic[len(m.Topic)-1]

	switch verb {
	case ctrlStop:
		s.stopEngine()
		s.pubState("stopped", "requested")
		s.conn.Reply(m, types.OKReply{OK: true}, false)
		return

	case ctrlStart:
		if s.eng != nil {
			s.conn.Reply(m, types.OKReply{OK: true}, false)
			return
		}
		if s.lastCfg == nil {
			s.replyErr(m, errcode.NotReady)
			return
		}
		s.applyConfig(ctx, *s.lastCfg)
		if s.eng == nil {
			s.replyErr(m, errcode.Error)
			return
		}
		s.conn.Reply(m, types.OKReply{OK: true}, false)
		return
	}

	if s.eng == nil {
		s.replyErr(m, errcode.NotReady)
		return
	}

	switch verb {
	case ctrlSetFreq:
		p, ok := m.Payload.(types.ToneSet)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		s.enqueue(m, func(e *Engine) {
			if err := e.Retune(p.FreqHz); err != nil {
				s.replyErr(m, errcode.Of(err))
				return
			}
			s.conn.Reply(m, types.OKReply{OK: true}, false)
		})

	case ctrlSelect:
		// Retune a fixed generator to a table pitch by code. Switched
		// generators own their selection through the switches; Retune
		// rejects them.
		p, ok := m.Payload.(types.ToneSelect)
		if !ok {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		code := synth.NewCode(p.Code)
		if code == synth.CodeSilence {
			s.replyErr(m, errcode.InvalidParams)
			return
		}
		s.enqueue(m, func(e *Engine) {
			if err := e.Retune(synth.Pitches.Lookup(code)); err != nil {
				s.replyErr(m, errcode.Of(err))
				return
			}
			s.conn.Reply(m, types.OKReply{OK: true}, false)
		})

	case ctrlReadNow:
		s.enqueue(m, func(e *Engine) {
			s.emit(e.Value())
			s.conn.Reply(m, types.OKReply{OK: true}, false)
		})

	default:
		s.replyErr(m, errcode.Unsupported)
	}
}

// enqueue hands a closure to the engine goroutine without blocking the
// service loop.
func (s *service) enqueue(m *bus.Message, cmd func(*Engine)) {
	select {
	case s.cmds <- cmd:
	default:
		s.replyErr(m, errcode.Busy)
	}
}

// emit forwards a selection change for publication; non-blocking, drops
// under pressure.
func (s *service) emit(v types.ToneValue) {
	select {
	case s.events <- v:
	default:
	}
}

func (s *service) replyErr(m *bus.Message, c errcode.Code) {
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(c)}, false)
}

func (s *service) pubState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(topicState(), types.ToneState{
		Level:  level,
		Status: status,
		TSms:   timex.NowMs(),
	}, true))
}
