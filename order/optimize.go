// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package order solves for the internal equilibrium ordering state s* of a
// solution phase, the point where ∂G/∂s vanishes at fixed (r, t, p), and
// propagates that implicit solution into total derivatives of G with respect
// to u = (r, t, p) up to third order.
//
// A Solver is immutable and may be shared. The most recent solution and its
// Hessian factorization live in a Workspace, which is owned by one goroutine.
package order

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/curioloop/thermix/gibbs"
	"github.com/curioloop/thermix/phase"
	"gonum.org/v1/gonum/mat"
)

// Bound represents the closed interval an ordering variable is clamped into.
type Bound struct {
	Lower, Upper float64
}

// Model is a free-energy expression set over z = (s, r, t, p).
type Model interface {
	// Dims returns the number of ordering and compositional variables.
	Dims() (ns, nr int)
	// Eval fills d with G and its derivatives up to order at z.
	Eval(z []float64, order int, d *gibbs.Taylor)
	// Bounds stores the admissible interval of every ordering variable at r.
	Bounds(r []float64, b []Bound)
	// Start stores the initial ordering state used without a previous solution.
	Start(r, s []float64)
}

// Termination specifies the stopping criteria for the Newton iteration.
type Termination struct {
	// The iteration stops unconverged when the number of iterations exceeds limit.
	// Zero selects 100.
	MaxIterations int
	// The iteration converges when the ordering step satisfied:
	//   𝚖𝚊𝚡ᵢ |sᵢ₊ₖ₊₁ - sᵢ₊ₖ| ≤ 𝚝𝚘𝚕 × 𝚎𝚙𝚜𝚖𝚌𝚑
	// Zero selects 10.
	StepTolerance float64
	// Fraction of the Newton step taken every iteration, in (0, 1]. Zero selects 1.
	Damping float64
}

// Problem specifies the equilibration problem.
type Problem struct {
	Model Model       // Free-energy expression set
	Stop  Termination // Stop condition
}

// New creates a new equilibration solver for the given problem.
func (p *Problem) New(logger *phase.Logger) (solver *Solver, err error) {

	stop := p.Stop
	if stop.MaxIterations == 0 {
		stop.MaxIterations = 100
	}
	if stop.StepTolerance == 0 {
		stop.StepTolerance = ten
	}
	if stop.Damping == 0 {
		stop.Damping = one
	}

	var ns, nr int
	if p.Model != nil {
		ns, nr = p.Model.Dims()
	}

	switch {
	case p.Model == nil:
		err = errors.New("free-energy model is required")
	case ns <= 0:
		err = errors.New("number of ordering variables must greater than 0")
	case nr < 0:
		err = errors.New("number of compositional variables must not less than 0")
	case stop.MaxIterations < 0:
		err = errors.New("max iteration must greater than 0")
	case math.IsNaN(stop.StepTolerance) || stop.StepTolerance < zero:
		err = errors.New("step tolerance must not less than 0")
	case !(stop.Damping > zero && stop.Damping <= one):
		err = fmt.Errorf("damping %g out of range (0, 1]", stop.Damping)
	}

	if err != nil {
		return
	}

	solver = &Solver{
		model:  p.Model,
		ns:     ns,
		nr:     nr,
		stop:   stop,
		tol:    stop.StepTolerance * eps,
		logger: phase.Resolve(logger),
	}
	return
}

// Solver equilibrates the ordering state with a projected Newton method.
type Solver struct {
	model  Model
	ns, nr int
	stop   Termination
	tol    float64
	logger phase.Logger
}

// Dims returns the number of ordering and compositional variables.
func (o *Solver) Dims() (ns, nr int) {
	return o.ns, o.nr
}

// Termination returns the stopping criteria with defaults applied.
func (o *Solver) Termination() Termination {
	return o.stop
}

// Workspace holds the cache of the most recent solve and the scratch storage
// of the iteration. The cache is keyed by the exact (t, p, r) of that solve.
type Workspace struct {
	ns, nr int

	// cache entry
	valid  bool
	t, p   float64
	r      []float64 // nr
	s      []float64 // ns
	hess   *mat.SymDense
	fac    factor
	status Status
	iter   int
	resid  float64

	// scratch
	z    []float64 // ns + nr + 2
	prev []float64 // ns
	bnd  []Bound   // ns
	grad *mat.VecDense
	step *mat.VecDense
	tay  *gibbs.Taylor
}

// Result contains the final result of an equilibration solve.
type Result struct {
	OK       bool      // Whether the iteration converged.
	S        []float64 // Ordering state, a copy owned by the caller.
	Residual float64   // Infinity norm of the projected gradient ∂G/∂s.
	Summary            // Solve summary.
}

// Summary contains a summary of an equilibration solve.
type Summary struct {
	Status     Status // Final status.
	NumIter    int    // Number of Newton iterations performed.
	Cached     bool   // Whether the result was served from the workspace cache.
	Indefinite bool   // Whether the final Hessian was not positive definite.
}

// Init allocate the workspace for the solver.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one solver.
func (o *Solver) Init() *Workspace {
	ns, nr := o.ns, o.nr
	nz := ns + nr + 2
	return &Workspace{
		ns: ns, nr: nr,
		r:    make([]float64, nr),
		s:    make([]float64, ns),
		hess: mat.NewSymDense(ns, nil),
		z:    make([]float64, nz),
		prev: make([]float64, ns),
		bnd:  make([]Bound, ns),
		grad: mat.NewVecDense(ns, nil),
		step: mat.NewVecDense(ns, nil),
		tay:  gibbs.NewTaylor(nz),
	}
}

// Solve returns the equilibrium ordering state at (t, p, r).
// An exact repeat of the previous (t, p, r) on w returns the cached solution.
func (o *Solver) Solve(t, p float64, r []float64, w *Workspace) *Result {

	if len(r) != o.nr {
		panic("composition dimension not match model")
	}
	if w.ns != o.ns || w.nr != o.nr {
		panic("workspace dimension not match solver")
	}

	if w.valid && w.t == t && w.p == p && slices.Equal(w.r, r) {
		if o.logger.Enable(phase.LogEval) {
			o.logger.Log("order: cache hit at t=%g p=%g\n", t, p)
		}
		return w.result(true)
	}

	if !domainOK(t, p, r) {
		o.model.Start(r, w.prev)
		if o.logger.Enable(phase.LogLast) {
			o.logger.Log("order: %v\n  t = %g  p = %g\n  r = %v\n", BadInput, t, p, r)
		}
		return &Result{
			S:        slices.Clone(w.prev),
			Residual: math.NaN(),
			Summary:  Summary{Status: BadInput},
		}
	}

	d := driver{solver: o, workspace: w, t: t, p: p, r: r}
	d.mainLoop()
	return w.result(false)
}

func (w *Workspace) result(cached bool) *Result {
	return &Result{
		OK:       w.status == Converged,
		S:        slices.Clone(w.s),
		Residual: w.resid,
		Summary: Summary{
			Status:     w.status,
			NumIter:    w.iter,
			Cached:     cached,
			Indefinite: w.fac.indefinite,
		},
	}
}

// Hessian returns a copy of ∂²G/∂s² at the cached solution, or nil if the
// workspace holds none.
func (w *Workspace) Hessian() *mat.SymDense {
	if !w.valid {
		return nil
	}
	h := mat.NewSymDense(w.ns, nil)
	h.CopySym(w.hess)
	return h
}

// Reset drops the cached solution.
func (w *Workspace) Reset() {
	w.valid = false
}

func domainOK(t, p float64, r []float64) bool {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if !finite(t) || !finite(p) || t <= zero || p <= zero {
		return false
	}
	sum := zero
	for _, v := range r {
		if !finite(v) || v < zero || v > one {
			return false
		}
		sum += v
	}
	return sum <= one+simplexSlack
}

