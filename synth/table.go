package synth

// Code is a 3-bit frequency selection, one bit per switch line.
// Constructors mask to the 0..7 domain, so a Code can never index
// outside the table.
type Code uint8

// CodeSilence is the reserved "no sound" selection.
const CodeSilence Code = 0

// NewCode masks an arbitrary byte to the 3-bit selection domain.
func NewCode(v uint8) Code { return Code(v & 0x07) }

// CodeFromBits concatenates three switch levels, bit i = level of switch i.
func CodeFromBits(b0, b1, b2 bool) Code {
	var c Code
	if b0 {
		c |= 1
	}
	if b1 {
		c |= 2
	}
	if b2 {
		c |= 4
	}
	return c
}

// Table maps every selection code to a frequency in Hz. Entry 0 belongs to
// the silence code: it carries a non-zero placeholder so the wrap-period
// computation stays defined, but the carrier is gated off while it is
// selected, so the placeholder is never audible.
type Table [8]uint32

// SilencePlaceholderHz keeps Table[0] non-zero.
const SilencePlaceholderHz uint32 = 1

// Pitches is the stock table: silence followed by the C major scale
// C4 through B4.
var Pitches = Table{
	SilencePlaceholderHz,
	262, // C4
	294, // D4
	330, // E4
	349, // F4
	392, // G4
	440, // A4
	494, // B4
}

// Lookup returns the frequency for a code. Total over 0..7: the index is
// re-masked, so there is no out-of-range branch to fall through.
func (t Table) Lookup(c Code) uint32 { return t[c&0x07] }
