// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"math"

	"github.com/graphmetrics/quantile-sketches/internal/quad"
)

// binomial returns C(n, k) for small non-negative n, k.
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result = result * float64(n-i) / float64(i+1)
	}
	return result
}

// momentsToY converts monomial moments of X (muX[i] = E[X^i]) into
// monomial moments of Y = (2X-(a+b))/(b-a) via binomial expansion of
// (cX+d)^i, c = 2/(b-a), d = -(a+b)/(b-a).
func momentsToY(muX []float64, a, b float64) []float64 {
	k := len(muX)
	c := 2 / (b - a)
	d := -(a + b) / (b - a)
	muY := make([]float64, k)
	for i := 0; i < k; i++ {
		var s float64
		for p := 0; p <= i; p++ {
			s += binomial(i, p) * math.Pow(c, float64(p)) * math.Pow(d, float64(i-p)) * muX[p]
		}
		muY[i] = s
	}
	return muY
}

// momentsToChebyshev converts monomial moments of X on support [a,b] into
// moments in the Chebyshev basis (mu_cheb[j] = E[T_j(Y)]), the conditioned
// representation MaxEntropySolver's Newton iteration runs against.
func momentsToChebyshev(muX []float64, a, b float64) []float64 {
	muY := momentsToY(muX, a, b)
	coeffs := quad.ChebyshevMonomialCoeffs(len(muX))
	muCheb := make([]float64, len(muX))
	for j, cj := range coeffs {
		var s float64
		for i, c := range cj {
			s += c * muY[i]
		}
		muCheb[j] = s
	}
	return muCheb
}
