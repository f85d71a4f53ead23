// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

import (
	"math"
	"slices"

	"github.com/curioloop/thermix/phase"
	"gonum.org/v1/gonum/floats"
)

// driver runs one equilibration solve and stores it into the workspace cache.
type driver struct {
	solver    *Solver
	workspace *Workspace
	t, p      float64
	r         []float64
}

// evaluate computes G and its derivatives up to order at (s, r, t, p).
func (d *driver) evaluate(s []float64, order int) {
	o, w := d.solver, d.workspace
	z := w.z
	copy(z, s)
	copy(z[o.ns:], d.r)
	z[o.ns+o.nr] = d.t
	z[o.ns+o.nr+1] = d.p
	o.model.Eval(z, order, w.tay)
}

// loadHessian copies the ordering block of the evaluated Hessian and gradient.
func (d *driver) loadHessian() {
	o, w := d.solver, d.workspace
	tay, ns := w.tay, o.ns
	for i := 0; i < ns; i++ {
		w.grad.SetVec(i, tay.G[i])
		for j := i; j < ns; j++ {
			w.hess.SetSym(i, j, tay.At2(i, j))
		}
	}
}

// initialGuess scales the previous converged state, or the model start when
// there is none, and projects it into the bounds.
func (d *driver) initialGuess(s []float64) {
	o, w := d.solver, d.workspace
	warm := w.valid && w.status == Converged && !slices.Contains(w.s, zero)
	if warm {
		copy(s, w.s)
	} else {
		o.model.Start(d.r, s)
	}
	floats.Scale(startScale, s)
	clamp(s, w.bnd)
}

// newtonStep performs s ← 𝐏(s - λH⁻¹g) and returns the largest component change.
func (d *driver) newtonStep(s []float64) (float64, Status) {
	o, w := d.solver, d.workspace
	if !w.fac.factorize(w.hess) {
		return math.Inf(1), Singular
	}
	if err := w.fac.solveVec(w.step, w.grad); err != nil {
		return math.Inf(1), Singular
	}
	step := w.step.RawVector().Data
	for _, v := range step {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1), Singular
		}
	}
	// an indefinite Hessian may point the Newton step uphill
	if w.fac.indefinite && floats.Dot(step, w.grad.RawVector().Data) < zero {
		floats.Scale(-1, step)
	}
	copy(w.prev, s)
	floats.AddScaled(s, -o.stop.Damping, step)
	clamp(s, w.bnd)
	return floats.Distance(s, w.prev, math.Inf(1)), Converged
}

// mainLoop iterates until the step tolerance or the iteration cap is reached,
// then evaluates and factorizes the Hessian at the final state.
func (d *driver) mainLoop() {
	o, w := d.solver, d.workspace
	log := &o.logger

	s := make([]float64, o.ns)
	o.model.Bounds(d.r, w.bnd)
	d.initialGuess(s)

	status, iter := IterLimit, 0
	for iter < o.stop.MaxIterations {
		d.evaluate(s, 2)
		d.loadHessian()

		ds, st := d.newtonStep(s)
		if st == Singular {
			status = Singular
			break
		}
		iter++

		if log.Enable(phase.LogTrace) {
			log.Log("  iter %4d  max|ds| = %10.3e  s = %v\n", iter, ds, s)
		}
		if ds <= o.tol {
			status = Converged
			break
		}
	}

	// cache the state, its Hessian and factorization
	d.evaluate(s, 2)
	d.loadHessian()
	if !w.fac.factorize(w.hess) && status == Converged {
		status = Singular
	}

	w.valid = true
	w.t, w.p = d.t, d.p
	copy(w.r, d.r)
	copy(w.s, s)
	w.status, w.iter = status, iter
	w.resid = projGradNorm(s, w.tay.G, w.bnd)

	d.printExit()
}

// printExit logs the outcome of the solve.
func (d *driver) printExit() {
	o, w := d.solver, d.workspace
	log := &o.logger

	if w.status != Converged && log.Enable(phase.LogLast) {
		log.Log("order: %v after %d iterations\n", w.status, w.iter)
		log.Log("  t = %g  p = %g\n", d.t, d.p)
		log.Log("  r = %v\n", d.r)
		log.Log("  s = %v\n", w.s)
		log.Log("  |proj g| = %.3e\n", w.resid)
	}
	if log.Enable(phase.LogEval) {
		log.Print("%4d %10.3e %10.3e  %v\n", w.iter, w.resid, d.t, w.status)
	}
}
