// Package numdiff estimates derivatives of vector functions by finite differences.
// It is used to audit analytic derivative tensors, so the estimates favour
// accuracy over evaluation count.
package numdiff

import (
	"errors"
	"math"
)

// Scheme selects the finite difference stencil.
type Scheme int

const (
	// Forward uses the first order one-sided difference.
	Forward Scheme = iota
	// Central uses the second order central difference, falling back to a
	// second order one-sided difference when a bound is too close.
	Central
)

// Bound is a closed interval [lower, upper] on one variable. NaN means unbounded.
type Bound [2]float64

// Jacobian estimates the M×N Jacobian of Func at a point.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type Jacobian struct {
	N, M int
	// Func evaluates the function at an n-vector x into an m-vector y.
	// It must not retain x, which is perturbed in place.
	Func func(x, y []float64)
	// Finite difference stencil.
	Scheme Scheme
	// Optional bounds the perturbed points must stay within.
	Bounds []Bound
	// Relative step: h = RelStep·|x|. When both RelStep and AbsStep are zero
	// the step is chosen from machine precision and max(1, |x|).
	RelStep float64
	// Absolute step, adjusted to fit the bounds. Its sign is ignored by Central.
	AbsStep float64
	// ColMajor stores each column ∂y/∂xᵢ contiguously instead of each row.
	ColMajor bool
	scratch
}

type scratch struct {
	f0, f1, f2 []float64
	h          []float64
	oneSide    []bool
}

// Validate checks the configuration against x0 and the output buffer and
// prepares the internal storage.
func (jc *Jacobian) Validate(x0, jac []float64) error {
	switch {
	case jc.N <= 0 || jc.M <= 0:
		return errors.New("negative dimensions")
	case jc.Scheme != Forward && jc.Scheme != Central:
		return errors.New("unknown scheme")
	case jc.Func == nil:
		return errors.New("function is required")
	case len(x0) != jc.N:
		return errors.New("invalid x0 dimensions")
	case len(jac) != jc.N*jc.M:
		return errors.New("invalid jacobian dimensions")
	case jc.Bounds != nil && len(jc.Bounds) != jc.N:
		return errors.New("invalid bound dimension")
	}

	for i, b := range jc.Bounds {
		lo, up := lower(b), upper(b)
		if lo > up {
			return errors.New("invalid bound range")
		}
		if x0[i] < lo || x0[i] > up {
			return errors.New("x0 violates bound constraints")
		}
	}

	if len(jc.f0) != jc.M {
		jc.f0 = make([]float64, jc.M)
		jc.f1 = make([]float64, jc.M)
		jc.f2 = make([]float64, jc.M)
	}
	if len(jc.h) != jc.N {
		jc.h = make([]float64, jc.N)
		jc.oneSide = make([]bool, jc.N)
	}
	return nil
}

// Eval stores the Jacobian estimate at x0 into jac. Entry (row j, column i)
// lives at jac[j*N+i], or jac[i*M+j] when ColMajor is set. x0 is restored
// before return.
func (jc *Jacobian) Eval(x0, jac []float64) error {
	if err := jc.Validate(x0, jac); err != nil {
		return err
	}
	jc.initialSteps(x0)
	jc.fitBounds(x0)
	if jc.Scheme == Central {
		jc.central(x0, jac)
	} else {
		jc.forward(x0, jac)
	}
	return nil
}

func (jc *Jacobian) store(jac []float64, i int, col func(j int) float64) {
	n, m := jc.N, jc.M
	if jc.ColMajor {
		c := jac[i*m : (i+1)*m]
		for j := range c {
			c[j] = col(j)
		}
		return
	}
	for j := 0; j < m; j++ {
		jac[j*n+i] = col(j)
	}
}

func (jc *Jacobian) forward(x0, jac []float64) {
	f0, f1 := jc.f0, jc.f1
	jc.Func(x0, f0)
	for i, h := range jc.h {
		xi := x0[i]
		x0[i] = xi + h
		jc.Func(x0, f1)
		x0[i] = xi
		d := 1 / h
		jc.store(jac, i, func(j int) float64 { return (f1[j] - f0[j]) * d })
	}
}

func (jc *Jacobian) central(x0, jac []float64) {
	f0, f1, f2 := jc.f0, jc.f1, jc.f2
	jc.Func(x0, f0)
	for i, h := range jc.h {
		xi := x0[i]
		d := 1 / (2 * h)
		if jc.oneSide[i] {
			x0[i] = xi + h
			jc.Func(x0, f1)
			x0[i] = xi + 2*h
			jc.Func(x0, f2)
			jc.store(jac, i, func(j int) float64 { return (4*f1[j] - 3*f0[j] - f2[j]) * d })
		} else {
			x0[i] = xi - h
			jc.Func(x0, f1)
			x0[i] = xi + h
			jc.Func(x0, f2)
			jc.store(jac, i, func(j int) float64 { return (f2[j] - f1[j]) * d })
		}
		x0[i] = xi
	}
}

func lower(b Bound) float64 {
	if math.IsNaN(b[0]) {
		return math.Inf(-1)
	}
	return b[0]
}

func upper(b Bound) float64 {
	if math.IsNaN(b[1]) {
		return math.Inf(1)
	}
	return b[1]
}
