// Unless explicitly stated otherwise all files in this repository are
// licensed under the Apache License 2.0.
// Copyright 2024 GraphMetrics

package msketch

import (
	"fmt"
	"math"

	"github.com/graphmetrics/quantile-sketches/internal/quad"
	"github.com/graphmetrics/quantile-sketches/qerr"
)

const (
	epsSolve      = 1e-9
	maxNewtonIter = 200
	// ridge is a small Tikhonov regularizer added to the Hessian's
	// diagonal: at high k the Gram matrix of Chebyshev basis functions
	// can be near-singular in early Newton iterations (before lambda
	// has settled), and an unregularized solve occasionally returns a
	// wild step that overflows the next exp() evaluation.
	ridge = 1e-10
)

// densityFromBasis evaluates exp(sum_j lambda_j T_j(y)) given precomputed
// basis values at y.
func densityFromBasis(lambda, basis []float64) float64 {
	var s float64
	for j, l := range lambda {
		s += l * basis[j]
	}
	return math.Exp(s)
}

// maxEntropySolve minimizes the dual objective
// G(lambda) = integral f(x;lambda) dx - sum_j lambda_j*mu_j (spec §4.5) by
// damped (backtracking) Newton iteration, using an order-point
// Gauss-Legendre rule over y in [-1,1]: the integrals are taken directly in
// y, since T_j is defined there, and the constant factor dx = (b-a)/2 dy is
// applied to each quadrature weight here.
func maxEntropySolve(muCheb []float64, a, b float64) ([]float64, error) {
	k := len(muCheb)
	if b <= a {
		return nil, fmt.Errorf("msketch: degenerate support [%v,%v]: %w", a, b, qerr.ErrInvalidConfig)
	}

	order := 4 * k
	if order < 16 {
		order = 16
	}
	rule := quad.GaussLegendre(order)
	half := (b - a) / 2

	basisAtNode := make([][]float64, len(rule.Nodes))
	for i, y := range rule.Nodes {
		basisAtNode[i] = quad.ChebyshevBasis(k, y)
	}

	lambda := make([]float64, k)
	lambda[0] = -math.Log(b - a) // uniform-density starting point

	grad := make([]float64, k)
	hess := make([][]float64, k)
	for i := range hess {
		hess[i] = make([]float64, k)
	}

	evalGradHess := func(l []float64) float64 {
		for j := range grad {
			grad[j] = 0
		}
		for i := range hess {
			for j := range hess[i] {
				hess[i][j] = 0
			}
		}
		for nIdx, w := range rule.Weights {
			basis := basisAtNode[nIdx]
			fy := densityFromBasis(l, basis)
			wq := w * half * fy
			for j := 0; j < k; j++ {
				grad[j] += wq * basis[j]
				for m := j; m < k; m++ {
					hess[j][m] += wq * basis[j] * basis[m]
				}
			}
		}
		for j := 0; j < k; j++ {
			for m := 0; m < j; m++ {
				hess[j][m] = hess[m][j]
			}
			hess[j][j] += ridge
			grad[j] -= muCheb[j]
		}
		var normInf float64
		for _, g := range grad {
			if math.Abs(g) > normInf {
				normInf = math.Abs(g)
			}
		}
		return normInf
	}

	gradNorm := evalGradHess(lambda)
	for iter := 0; iter < maxNewtonIter; iter++ {
		if gradNorm < epsSolve {
			return lambda, nil
		}

		delta, ok := solveLinear(hess, grad)
		if !ok {
			return nil, qerr.ErrNumericNonConvergence
		}

		step := 1.0
		accepted := false
		for attempt := 0; attempt < 30; attempt++ {
			candidate := make([]float64, k)
			finite := true
			for j := range candidate {
				candidate[j] = lambda[j] - step*delta[j]
				if math.IsNaN(candidate[j]) || math.IsInf(candidate[j], 0) {
					finite = false
				}
			}
			if finite {
				candNorm := evalGradHess(candidate)
				if candNorm < gradNorm || attempt == 29 {
					lambda = candidate
					gradNorm = candNorm
					accepted = true
					break
				}
			}
			step /= 2
		}
		if !accepted {
			return nil, qerr.ErrNumericNonConvergence
		}
	}
	return nil, qerr.ErrNumericNonConvergence
}

// solveWithFallback runs maxEntropySolve and, on non-convergence, retries
// with progressively smaller k by dropping the highest moments (spec
// §4.5), down to the minimum k=4.
func solveWithFallback(muCheb []float64, a, b float64) ([]float64, error) {
	k := len(muCheb)
	var lastErr error
	for k >= 4 {
		lambda, err := maxEntropySolve(muCheb[:k], a, b)
		if err == nil {
			return lambda, nil
		}
		lastErr = err
		k--
	}
	if lastErr == nil {
		lastErr = qerr.ErrNumericNonConvergence
	}
	return nil, lastErr
}
