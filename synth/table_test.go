package synth

import "testing"

func TestLookup_TotalOverDomain(t *testing.T) {
	for code := uint8(0); code < 8; code++ {
		got := Pitches.Lookup(Code(code))
		if got == 0 {
			t.Errorf("code %d maps to zero frequency", code)
		}
	}
}

func TestLookup_SilenceEntry(t *testing.T) {
	if got := Pitches.Lookup(CodeSilence); got != SilencePlaceholderHz {
		t.Errorf("silence entry = %d, want placeholder %d", got, SilencePlaceholderHz)
	}
}

func TestNewCode_Masks(t *testing.T) {
	for v := 0; v < 256; v++ {
		c := NewCode(uint8(v))
		if c > 7 {
			t.Fatalf("NewCode(%d) = %d, outside 3-bit domain", v, c)
		}
		if c != Code(uint8(v)&0x07) {
			t.Fatalf("NewCode(%d) = %d, want %d", v, c, uint8(v)&0x07)
		}
	}
}

func TestCodeFromBits(t *testing.T) {
	cases := []struct {
		b0, b1, b2 bool
		want       Code
	}{
		{false, false, false, 0},
		{true, false, false, 1},
		{false, true, false, 2},
		{true, true, false, 3}, // 0b011
		{false, false, true, 4},
		{true, true, true, 7},
	}
	for _, c := range cases {
		if got := CodeFromBits(c.b0, c.b1, c.b2); got != c.want {
			t.Errorf("CodeFromBits(%v,%v,%v) = %d, want %d", c.b0, c.b1, c.b2, got, c.want)
		}
	}
}

func TestCode011_SelectsThirdPitch(t *testing.T) {
	code := CodeFromBits(true, true, false)
	if got, want := Pitches.Lookup(code), Pitches[3]; got != want {
		t.Errorf("code 0b011 -> %d Hz, want table entry 3 = %d Hz", got, want)
	}
}
