package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %d", got)
	}
	// swapped bounds
	if got := Clamp(11, 10, 0); got != 10 {
		t.Errorf("Clamp(11,10,0) = %d", got)
	}
}

func TestRoundDiv(t *testing.T) {
	cases := []struct{ a, b, want uint32 }{
		{1000000, 600, 1667},
		{1000000, 100, 10000},
		{1000000, 440, 2273},
		{10, 4, 3},  // 2.5 rounds up
		{9, 4, 2},   // 2.25 rounds down
		{7, 0, 0},   // guarded
	}
	for _, c := range cases {
		if got := RoundDiv(c.a, c.b); got != c.want {
			t.Errorf("RoundDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	if got := CeilDiv(uint32(1000000), 65535); got != 16 {
		t.Errorf("CeilDiv(1e6,65535) = %d, want 16", got)
	}
	if got := CeilDiv(uint32(10), 5); got != 2 {
		t.Errorf("CeilDiv(10,5) = %d, want 2", got)
	}
}
