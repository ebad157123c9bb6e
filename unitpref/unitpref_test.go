package unitpref

import (
	"math/big"
	"testing"
)

func TestMultiplier(t *testing.T) {
	mm := []string{"X", "ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi", "Yi"}

	x := uint64(1)
	for i, s := range mm {
		m, n := Multiplier(s, true)
		if i == 0 {
			if m != 1 || n != 0 {
				t.Fatalf("Unknown char not detected")
			}
		} else if i <= 6 {
			x *= 1024
			if m != x || n != 2 {
				t.Fatalf("%s: got (%d, %d), want (%d, 2)", s, m, n, x)
			}
		} else {
			if m != 0 || n != 2 {
				t.Fatalf("%s: overflow not detected", s)
			}
		}
	}

	if m, n := Multiplier("K", false); m != 1000 || n != 1 {
		t.Fatalf("K = (%d, %d)", m, n)
	}
	if m, n := Multiplier("Mi", false); m != 1000000 || n != 1 {
		t.Fatalf("Mi without binary = (%d, %d)", m, n)
	}
}

func TestMultiplierBigInt(t *testing.T) {
	m, n := MultiplierBigInt("YiB", true)
	want := new(big.Int).Exp(big.NewInt(1024), big.NewInt(8), nil)
	if m.Cmp(want) != 0 || n != 2 {
		t.Fatalf("Yi = (%v, %d), want (%v, 2)", m, n, want)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"4096", 4096},
		{"16k", 16000},
		{"16Ki", 16384},
		{"16KiB", 16384},
		{"64Mi", 64 << 20},
		{" 2G ", 2000000000},
		{"100B", 100},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseSize(%q) = (%d, %v), want %d", tt.in, got, err, tt.want)
		}
	}

	for _, s := range []string{"", "Mi", "-1", "12x", "1.5M", "16EiB", "99999999999999999999"} {
		if _, err := ParseSize(s); err == nil {
			t.Errorf("ParseSize(%q) succeeded", s)
		}
	}
}
