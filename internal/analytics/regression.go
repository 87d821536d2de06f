package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// polyfit computes least-squares polynomial coefficients (ascending degree)
// for the points (xs, ys).
func polyfit(xs, ys []float64, degree int) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("polyfit: mismatched lengths %d != %d", len(xs), len(ys))
	}
	if len(xs) < degree+1 {
		return nil, fmt.Errorf("polyfit: need at least %d points, got %d", degree+1, len(xs))
	}

	a := mat.NewDense(len(xs), degree+1, nil)
	for i, x := range xs {
		for j := 0; j <= degree; j++ {
			a.Set(i, j, math.Pow(x, float64(j)))
		}
	}
	b := mat.NewVecDense(len(ys), ys)

	var qr mat.QR
	qr.Factorize(a)

	coeffs := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(coeffs, false, b); err != nil {
		return nil, fmt.Errorf("polyfit solve: %w", err)
	}

	out := make([]float64, degree+1)
	for i := range out {
		out[i] = coeffs.AtVec(i)
	}
	return out, nil
}

// polyval evaluates the polynomial with ascending-degree coefficients at x.
func polyval(coeffs []float64, x float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}
