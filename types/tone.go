package types

// ------------------------
// Tone generator
// ------------------------

// Run modes for the tone service.
const (
	ModeFixed    = "fixed"    // single programmed frequency
	ModeSwitched = "switched" // frequency chosen by the switch code each loop
)

type ToneConfig struct {
	Mode        string `json:"mode"`                   // "fixed" or "switched"
	TickRateHz  uint32 `json:"tick_rate_hz,omitempty"` // phase timer tick rate; 0 => service default
	CarrierHz   uint32 `json:"carrier_hz,omitempty"`   // PWM carrier; 0 => platform default
	FixedFreqHz uint32 `json:"fixed_freq_hz,omitempty"`
	OutPin      int    `json:"out_pin"`
	SwitchPins  [3]int `json:"switch_pins,omitempty"` // bit i read from SwitchPins[i]
}

// ToneInfo is the retained capability description.
type ToneInfo struct {
	Mode       string `json:"mode"`
	TickRateHz uint32 `json:"tick_rate_hz"`
	CarrierHz  uint32 `json:"carrier_hz"`
	OutPin     int    `json:"out_pin"`
	SwitchPins [3]int `json:"switch_pins,omitempty"`
}

// ToneValue is published (retained) whenever the selection changes.
type ToneValue struct {
	Code      uint8  `json:"code"`    // 3-bit selection, 0 = silence
	FreqHz    uint32 `json:"freq_hz"` // table entry for Code (placeholder for 0)
	WrapTicks uint16 `json:"wrap_ticks"`
	Silent    bool   `json:"silent"`
}

// ToneSelect sets the selection code from software ("select" verb).
type ToneSelect struct {
	Code uint8 `json:"code"` // masked to 0..7
}

// ToneSet retunes a fixed-mode generator ("set_freq" verb).
type ToneSet struct {
	FreqHz uint32 `json:"freq_hz"` // > 0
}

// ------------------------
// Switch bank
// ------------------------

// SwitchValue is the raw 3-bit level snapshot, no debounce.
type SwitchValue struct {
	Code uint8 `json:"code"`
}

// ------------------------
// Service state (retained)
// ------------------------

type ToneState struct {
	Level  string `json:"level"`  // "idle", "running", "stopped"
	Status string `json:"status"` // freeform short code
	TSms   int64  `json:"ts_ms"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
