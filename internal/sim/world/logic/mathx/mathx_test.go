package mathx

import "testing"

func TestFloorDivAndMod(t *testing.T) {
	cases := []struct{ a, b, q, m int }{
		{7, 16, 0, 7},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.q {
			t.Fatalf("FloorDiv(%d,%d): got %d want %d", c.a, c.b, got, c.q)
		}
		if got := Mod(c.a, c.b); got != c.m {
			t.Fatalf("Mod(%d,%d): got %d want %d", c.a, c.b, got, c.m)
		}
	}
}

func TestManhattan(t *testing.T) {
	if got := Manhattan(2, 2, 6, 2); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := Manhattan(6, 2, 2, 6); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestHash2Deterministic(t *testing.T) {
	if Hash2(42, 3, -7) != Hash2(42, 3, -7) {
		t.Fatalf("hash not deterministic")
	}
	if Hash2(42, 3, -7) == Hash2(42, -7, 3) {
		t.Fatalf("expected swapped coordinates to hash differently")
	}
	if Hash2(1, 0, 0) == Hash2(2, 0, 0) {
		t.Fatalf("expected seed to affect hash")
	}
}
