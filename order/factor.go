// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// factor is a factorization of the ordering Hessian ∂²G/∂s².
// Cholesky is attempted first; an indefinite Hessian falls back to LU.
type factor struct {
	chol       mat.Cholesky
	lu         mat.LU
	indefinite bool
	ok         bool
}

// factorize reports whether h is nonsingular.
func (f *factor) factorize(h *mat.SymDense) bool {
	f.indefinite = false
	if f.ok = f.chol.Factorize(h); f.ok {
		return true
	}
	f.indefinite = true
	f.lu.Factorize(h)
	f.ok = !math.IsInf(f.lu.Cond(), 1)
	return f.ok
}

// solveVec stores H⁻¹b into dst.
func (f *factor) solveVec(dst *mat.VecDense, b mat.Vector) error {
	if !f.ok {
		return errSingular
	}
	var err error
	if f.indefinite {
		err = f.lu.SolveVecTo(dst, false, b)
	} else {
		err = f.chol.SolveVecTo(dst, b)
	}
	return tolerate(err)
}

// solve stores H⁻¹B into dst.
func (f *factor) solve(dst *mat.Dense, b mat.Matrix) error {
	if !f.ok {
		return errSingular
	}
	var err error
	if f.indefinite {
		err = f.lu.SolveTo(dst, false, b)
	} else {
		err = f.chol.SolveTo(dst, b)
	}
	return tolerate(err)
}

var errSingular = errors.New("singular hessian")

// tolerate drops ill-conditioning warnings: the solution is still computed,
// and Hessians near a clamped site fraction carry 1/ε entries.
func tolerate(err error) error {
	var c mat.Condition
	if errors.As(err, &c) && !math.IsInf(float64(c), 1) {
		return nil
	}
	return err
}
