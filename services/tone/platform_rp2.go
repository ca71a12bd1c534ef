// services/tone/platform_rp2.go
//go:build rp2040 || rp2350

package tone

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	tonedrv "tinygo.org/x/drivers/tone"

	"tonegen-go/errcode"
	"tonegen-go/types"
	"tonegen-go/x/timex"
)

// The carrier sits well above audio so the external RC filter can
// reconstruct a smooth waveform.
const defaultCarrierHz = 62500

const debugBaud = 115200

// openPlatformRig claims the PWM slice for the output pin, configures the
// switch inputs with pulldowns (switches are active-high) and routes debug
// output to UART0.
func openPlatformRig(cfg types.ToneConfig) (Rig, error) {
	pin := machine.Pin(cfg.OutPin)
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return Rig{}, errcode.UnknownPin
	}
	pwm := pwmBySlice(slice)
	if pwm == nil {
		return Rig{}, errcode.UnknownPin
	}

	carrierHz := cfg.CarrierHz
	if carrierHz == 0 {
		carrierHz = defaultCarrierHz
	}

	var sw [3]InputPin
	for i, n := range cfg.SwitchPins {
		p := machine.Pin(n)
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		sw[i] = rp2Pin{p: p}
	}

	dbg := uartx.UART0
	_ = dbg.Configure(uartx.UARTConfig{BaudRate: debugBaud})

	return Rig{
		Clock:    newTickerClock(cfg.TickRateHz),
		Out:      &rp2Carrier{pwm: pwm, pin: pin, periodNs: timex.PeriodFromHz(carrierHz)},
		Switches: sw,
		Debug:    dbg,
	}, nil
}

// ---- GPIO ----

type rp2Pin struct {
	p machine.Pin
}

func (r rp2Pin) Get() bool { return r.p.Get() }

// ---- PWM carrier ----

// rp2Carrier drives one PWM channel in its hardware fast-PWM equivalent:
// fixed carrier period, duty compare rewritten per loop iteration. The
// slice's compare register is double-buffered by the hardware, so writes
// land at the next carrier cycle boundary.
type rp2Carrier struct {
	pwm      tonedrv.PWM
	pin      machine.Pin
	ch       uint8
	periodNs uint64
	duty     uint8
	running  bool
}

func (c *rp2Carrier) Configure() error {
	if err := c.pwm.Configure(machine.PWMConfig{Period: c.periodNs}); err != nil {
		return err
	}
	ch, err := c.pwm.Channel(c.pin)
	if err != nil {
		return err
	}
	c.ch = ch
	return nil
}

func (c *rp2Carrier) SetDuty(v uint8) {
	c.duty = v
	if !c.running {
		return
	}
	// Scale the 8-bit duty onto whatever top the slice settled on.
	c.pwm.Set(c.ch, uint32(v)*c.pwm.Top()/255)
}

func (c *rp2Carrier) Start() {
	c.running = true
	c.SetDuty(c.duty)
}

// Stop parks the pin at its idle (low) level rather than mid-scale.
func (c *rp2Carrier) Stop() {
	c.running = false
	c.pwm.Set(c.ch, 0)
}

func pwmBySlice(n uint8) tonedrv.PWM {
	switch n {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return nil
	}
}
