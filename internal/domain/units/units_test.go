package units

import (
	"math"
	"testing"
)

func TestConvert_IdentityForEveryUnit(t *testing.T) {
	for _, u := range All {
		for _, q := range []float64{0, 1, 12.5, 1e6} {
			if got := Convert(q, u, u); got != q {
				t.Fatalf("Convert(%v, %s, %s) = %v, want %v", q, u, u, got, q)
			}
		}
	}
}

func TestConvert_RoundTripRegisteredPairs(t *testing.T) {
	pairs := [][2]Unit{{Kilo, Gram}, {Liter, Milliliter}, {Meter, Centimeter}}
	for _, p := range pairs {
		for _, q := range []float64{0.25, 3, 1234.5} {
			there := Convert(q, p[0], p[1])
			back := Convert(there, p[1], p[0])
			if math.Abs(back-q) > 1e-9 {
				t.Fatalf("%s->%s->%s: got %v, want %v", p[0], p[1], p[0], back, q)
			}
		}
	}
}

func TestConvert_Factors(t *testing.T) {
	tests := []struct {
		qty      float64
		from, to Unit
		want     float64
	}{
		{2, Kilo, Gram, 2000},
		{500, Gram, Kilo, 0.5},
		{1.5, Liter, Milliliter, 1500},
		{250, Milliliter, Liter, 0.25},
		{3, Meter, Centimeter, 300},
		{50, Centimeter, Meter, 0.5},
	}
	for _, tt := range tests {
		if got := Convert(tt.qty, tt.from, tt.to); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("Convert(%v, %s, %s) = %v, want %v", tt.qty, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvert_UnregisteredPairPassesThrough(t *testing.T) {
	if got := Convert(7, Gram, Liter); got != 7 {
		t.Fatalf("cross-group conversion = %v, want 7", got)
	}
	if got := Convert(7, Piece, Kilo); got != 7 {
		t.Fatalf("piece->kilo = %v, want 7", got)
	}
	if Convertible(Gram, Liter) {
		t.Fatalf("gramo->litro must not be reported convertible")
	}
}

func TestCompatible(t *testing.T) {
	got := Compatible(Kilo)
	if len(got) != 2 || got[0] != Gram || got[1] != Kilo {
		t.Fatalf("Compatible(kilo) = %v", got)
	}
	if got := Compatible(Piece); len(got) != 1 || got[0] != Piece {
		t.Fatalf("Compatible(unidad) = %v", got)
	}
	if got := Compatible(Unit("taza")); len(got) != 1 || got[0] != "taza" {
		t.Fatalf("Compatible(unknown) = %v", got)
	}
}
