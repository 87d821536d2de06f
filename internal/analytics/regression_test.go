package analytics

import (
	"math"
	"testing"
)

func TestPolyfitRecoversQuadratic(t *testing.T) {
	// y = 2x^2 + 3x + 1, exact fit expected.
	xs := []float64{0, 1, 2, 3, 4}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 2*x*x + 3*x + 1
	}

	coeffs, err := polyfit(xs, ys, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 3, 2}
	for i, w := range want {
		if math.Abs(coeffs[i]-w) > 1e-9 {
			t.Fatalf("coefficient %d: expected %v, got %v", i, w, coeffs[i])
		}
	}

	if got := polyval(coeffs, 5); math.Abs(got-66) > 1e-9 {
		t.Fatalf("polyval(5): expected 66, got %v", got)
	}
}
