// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"math"

	"github.com/graphmetrics/quantile-sketches/internal/quad"
)

const (
	cdfQuadOrder  = 64
	cdfRootEps    = 1e-6
	cdfMaxBisect  = 100
	cdfMaxNewton  = 50
	cdfDerivFloor = 1e-300
)

// cdfInverter evaluates and inverts the reconstructed maximum-entropy
// density f(y;lambda) = exp(sum_j lambda_j T_j(y)) on y in [-1, 1], using
// cumulative Gauss-Legendre quadrature for F and a safeguarded
// bisection/Newton hybrid for F^-1 (spec §4.6).
type cdfInverter struct {
	lambda []float64
	a, b   float64 // x-domain support the y-domain density maps back onto
	norm   float64 // integral of f over y in [-1,1] (about 2/(b-a), since the
	// solver normalizes f over x); dividing by it makes F(1) = 1
}

func newCDFInverter(lambda []float64, a, b float64) *cdfInverter {
	inv := &cdfInverter{lambda: lambda, a: a, b: b, norm: 1}
	inv.norm = quad.Integrate(cdfQuadOrder, -1, 1, inv.densityY)
	if inv.norm <= 0 {
		inv.norm = 1
	}
	return inv
}

func (inv *cdfInverter) densityY(y float64) float64 {
	basis := quad.ChebyshevBasis(len(inv.lambda), y)
	return densityFromBasis(inv.lambda, basis)
}

// cdfY returns F(y) = integral_{-1}^{y} f(t)/norm dt for y in [-1,1].
func (inv *cdfInverter) cdfY(y float64) float64 {
	if y <= -1 {
		return 0
	}
	if y >= 1 {
		return 1
	}
	return quad.Integrate(cdfQuadOrder, -1, y, inv.densityY) / inv.norm
}

// quantileY inverts cdfY for q in [0,1] via bisection bracketed on
// [-1,1], refined by safeguarded Newton steps using the density itself as
// the derivative of the CDF.
func (inv *cdfInverter) quantileY(q float64) float64 {
	if q <= 0 {
		return -1
	}
	if q >= 1 {
		return 1
	}

	lo, hi := -1.0, 1.0
	y := 2*q - 1 // linear initial guess

	for iter := 0; iter < cdfMaxBisect+cdfMaxNewton; iter++ {
		fy := inv.cdfY(y) - q
		if math.Abs(fy) < cdfRootEps {
			return y
		}
		if fy > 0 {
			hi = y
		} else {
			lo = y
		}

		deriv := inv.densityY(y) / inv.norm
		var next float64
		useNewton := deriv > cdfDerivFloor
		if useNewton {
			next = y - fy/deriv
		}
		if !useNewton || next <= lo || next >= hi || math.IsNaN(next) {
			next = (lo + hi) / 2
		}
		y = next
	}
	return y
}

// Quantile returns the x-domain value at cumulative probability q,
// mapping the y-domain root back through the caller's support [a,b].
func (inv *cdfInverter) Quantile(q float64) float64 {
	y := inv.quantileY(q)
	return quad.FromUnitInterval(y, inv.a, inv.b)
}

// CDF returns the cumulative probability at x-domain value v.
func (inv *cdfInverter) CDF(v float64) float64 {
	y := quad.ToUnitInterval(v, inv.a, inv.b)
	if y < -1 {
		y = -1
	}
	if y > 1 {
		y = 1
	}
	return inv.cdfY(y)
}
