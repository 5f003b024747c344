// Package quad provides the Gauss-Legendre quadrature nodes/weights and the
// Chebyshev polynomial basis shared by MaxEntropySolver and CDFInverter
// (the "shared numeric helpers" component of the moment sketch).
//
// Both tables depend only on an integer order and are immutable once built;
// Gauss-Legendre rules are memoized in a map keyed directly by the order,
// so repeated quantile solves reuse them instead of recomputing the roots.
package quad

import (
	"math"
	"sync"
)

// Rule holds Gauss-Legendre nodes and weights on the reference interval
// [-1, 1]. Integrating a function g over [a, b] is
//
//	sum_i weight_i * g(Nodes[i]*(b-a)/2 + (a+b)/2) * (b-a)/2
type Rule struct {
	Nodes   []float64
	Weights []float64
}

var (
	ruleCacheMu sync.RWMutex
	ruleCache   = map[int]Rule{}
)

// GaussLegendre returns the n-point Gauss-Legendre quadrature rule on
// [-1, 1], computed by Newton iteration on the Legendre polynomial P_n and
// cached by n.
func GaussLegendre(n int) Rule {
	if n < 1 {
		n = 1
	}

	ruleCacheMu.RLock()
	if r, ok := ruleCache[n]; ok {
		ruleCacheMu.RUnlock()
		return r
	}
	ruleCacheMu.RUnlock()

	r := computeGaussLegendre(n)

	ruleCacheMu.Lock()
	ruleCache[n] = r
	ruleCacheMu.Unlock()
	return r
}

// computeGaussLegendre implements the classic Newton-on-Legendre-roots
// algorithm (e.g. Numerical Recipes' gauleg), exploiting the symmetry of
// the roots about 0.
func computeGaussLegendre(n int) Rule {
	nodes := make([]float64, n)
	weights := make([]float64, n)

	m := (n + 1) / 2
	for i := 0; i < m; i++ {
		// Initial guess for the i-th root (0-indexed from the high end).
		z := math.Cos(math.Pi * (float64(i+1) - 0.25) / (float64(n) + 0.5))
		var z1, pp float64
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1.0, 0.0
			for j := 0; j < n; j++ {
				p2 := p1
				p1 = p0
				p0 = ((2*float64(j)+1)*z*p1 - float64(j)*p2) / (float64(j) + 1)
			}
			// p0 now holds P_n(z); derivative via the standard recurrence.
			pp = float64(n) * (z*p0 - p1) / (z*z - 1)
			z1 = z
			z = z1 - p0/pp
			if math.Abs(z-z1) < 1e-15 {
				break
			}
		}
		nodes[i] = -z
		nodes[n-1-i] = z
		w := 2 / ((1 - z*z) * pp * pp)
		weights[i] = w
		weights[n-1-i] = w
	}
	return Rule{Nodes: nodes, Weights: weights}
}

// Integrate evaluates the integral of f over [a, b] using an n-point
// Gauss-Legendre rule.
func Integrate(n int, a, b float64, f func(float64) float64) float64 {
	rule := GaussLegendre(n)
	half := (b - a) / 2
	mid := (a + b) / 2
	var sum float64
	for i, x := range rule.Nodes {
		sum += rule.Weights[i] * f(x*half+mid)
	}
	return sum * half
}

// ChebyshevBasis evaluates T_0(y)...T_{k-1}(y), the first k Chebyshev
// polynomials of the first kind, at y via the three-term recurrence
// T_0=1, T_1=y, T_j = 2y*T_{j-1} - T_{j-2}. y is expected in [-1, 1] but the
// recurrence is stable (if slowly growing) outside that range too.
func ChebyshevBasis(k int, y float64) []float64 {
	basis := make([]float64, k)
	if k == 0 {
		return basis
	}
	basis[0] = 1
	if k == 1 {
		return basis
	}
	basis[1] = y
	for j := 2; j < k; j++ {
		basis[j] = 2*y*basis[j-1] - basis[j-2]
	}
	return basis
}

// ToUnitInterval maps x in [a, b] onto y in [-1, 1].
func ToUnitInterval(x, a, b float64) float64 {
	if b == a {
		return 0
	}
	return (2*x - (a + b)) / (b - a)
}

// FromUnitInterval maps y in [-1, 1] back onto x in [a, b].
func FromUnitInterval(y, a, b float64) float64 {
	return (y*(b-a) + (a + b)) / 2
}

// ChebyshevMonomialCoeffs returns, for j=0..k-1, the coefficients of T_j
// expressed in the monomial basis: T_j(y) = sum_i coeffs[j][i] * y^i.
// Built from the same three-term recurrence as ChebyshevBasis, but on
// polynomial coefficient vectors instead of point evaluations, so that
// moments can be changed from the monomial to the Chebyshev basis by a
// fixed linear transform (the "Chebyshev-basis conditioning" of spec
// §4.4/§4.5).
func ChebyshevMonomialCoeffs(k int) [][]float64 {
	coeffs := make([][]float64, k)
	if k > 0 {
		coeffs[0] = []float64{1}
	}
	if k > 1 {
		coeffs[1] = []float64{0, 1}
	}
	for j := 2; j < k; j++ {
		prev := coeffs[j-1]
		prev2 := coeffs[j-2]
		cur := make([]float64, j+1)
		for i, c := range prev {
			cur[i+1] += 2 * c
		}
		for i, c := range prev2 {
			cur[i] -= c
		}
		coeffs[j] = cur
	}
	return coeffs
}
