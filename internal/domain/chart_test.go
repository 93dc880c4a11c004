package domain

import "testing"

func TestNormalizeCents(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"negative", -0.5, 0},
		{"fraction", 0.48, 48},
		{"fraction upper bound", 1, 100},
		{"already cents", 48, 48},
		{"just above one", 1.5, 1.5},
		{"hundred", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCents(tt.in); got != tt.want {
				t.Fatalf("NormalizeCents(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
