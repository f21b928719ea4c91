package mathx

import "testing"

func TestClampSwapsBounds(t *testing.T) {
	if got := Clamp(5, 10, 0); got != 5 {
		t.Errorf("Clamp(5,10,0) = %d, want 5", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Errorf("Clamp(-3,0,10) = %d, want 0", got)
	}
	if got := Clamp(42, 0, 10); got != 10 {
		t.Errorf("Clamp(42,0,10) = %d, want 10", got)
	}
}

func TestBetween(t *testing.T) {
	if !Between(int16(0), int16(-9000), int16(9000)) {
		t.Error("0 should be inside [-9000,9000]")
	}
	if Between(uint16(801), uint16(100), uint16(800)) {
		t.Error("801 should be outside [100,800]")
	}
	if !Between(7, 10, 5) {
		t.Error("Between must be order-insensitive")
	}
}

func TestRoundDiv(t *testing.T) {
	cases := []struct {
		n, d, want int64
	}{
		{10, 3, 3},
		{11, 3, 4},
		{-10, 3, -3},
		{-11, 3, -4},
		{10, -3, -3},
		{-11, -3, 4},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := RoundDiv(c.n, c.d); got != c.want {
			t.Errorf("RoundDiv(%d,%d) = %d, want %d", c.n, c.d, got, c.want)
		}
	}
}
