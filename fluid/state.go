// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"math"

	"github.com/curioloop/thermix/phase"
)

// Summary reports the volume solves behind a state.
type Summary struct {
	Status  Status
	NumIter int  // fixed-point iterations over every solve
	Cached  bool // served from the workspace cache
}

// State is the equation-of-state solution at (t, p, x) with its first and
// second derivatives with respect to u = (r, t, p).
//
//	DV[i]                   dv/duᵢ
//	D2V[i*3+j]              d²v/duᵢduⱼ
//	DLnPhi[k*3+i]           d ln φₖ/duᵢ
//	D2LnPhi[(k*3+i)*3+j]    d² ln φₖ/duᵢduⱼ
type State struct {
	T, P, X float64

	V       float64 // molar volume in J/bar
	Z       float64
	LnPhi   [na]float64
	DV      [nu]float64
	D2V     [nu * nu]float64
	DLnPhi  [na * nu]float64
	D2LnPhi [na * nu * nu]float64

	Summary Summary
}

// merge folds the summary of another solve the result depends on into s.
// The first failure is kept.
func (s *Summary) merge(o Summary) {
	s.NumIter += o.NumIter
	s.Cached = s.Cached && o.Cached
	if s.Status == Converged {
		s.Status = o.Status
	}
}

// seedPairs are the (E1, E2) directions evaluated for a state. Together
// they cover every first and second partial in u.
var seedPairs = [...][2]int{
	{ut, ut}, {ut, up}, {up, up},
	{ur, ur}, {ur, ut}, {ur, up},
}

func seeded(val float64, k int, pair [2]int) number {
	n := number{Real: val}
	if k == pair[0] {
		n.E1mag = 1
	}
	if k == pair[1] {
		n.E2mag = 1
	}
	return n
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finite reports whether the volume and every fugacity coefficient of s
// and their derivatives are finite.
func (s *State) finite() bool {
	if !finite(s.V) || s.V <= 0 || !finite(s.Z) {
		return false
	}
	for _, l := range s.LnPhi {
		if !finite(l) {
			return false
		}
	}
	for _, d := range s.DV {
		if !finite(d) {
			return false
		}
	}
	for _, d := range s.DLnPhi {
		if !finite(d) {
			return false
		}
	}
	return true
}

func domainOK(t, p, x float64) bool {
	return finite(t) && finite(p) && t > 0 && p > 0 && x >= 0 && x <= 1
}

// solveVolumes runs every fixed-point solve the state at (t, p, x) needs.
func (ph *Phase) solveVolumes(t, p, x float64) (vol volumes, total Summary) {
	tt, xx := constant(t), constant(x)
	lo := coeffsAt(&lowP, tt, xx)

	record := func(s solution) float64 {
		total.NumIter += s.iter
		if s.status != Converged {
			if total.Status == Converged {
				total.Status = s.status
			}
			ph.logFailure(s, t, p, x)
		}
		return s.v
	}

	if p <= boundary {
		vol.v = record(fixedPoint(lo, t, p, ph.maxIter))
		return
	}
	hi := coeffsAt(&highP, tt, xx)
	vol.high = true
	vol.low = record(fixedPoint(lo, t, boundary, ph.maxIter))
	vol.ref = record(fixedPoint(hi, t, boundary, ph.maxIter))
	vol.v = record(fixedPoint(hi, t, p, ph.maxIter))
	return
}

func (ph *Phase) logFailure(s solution, t, p, x float64) {
	log := &ph.logger
	if log.Enable(phase.LogLast) {
		log.Log("fluid: %v after %d iterations\n", s.status, s.iter)
		log.Log("  t = %g  p = %g  x = %g\n", t, p, x)
		log.Log("  v = %g  |dv|/v = %.3e\n", s.v, s.resid)
	}
}

// evaluate solves the state at (t, p, x) and differentiates it along every
// seed pair.
func (ph *Phase) evaluate(t, p, x float64) *State {
	st := &State{T: t, P: p, X: x}
	vol, total := ph.solveVolumes(t, p, x)
	st.Summary = total

	in := [nu]float64{ur: x, ut: t, up: p}
	for n, pair := range seedPairs {
		var u [nu]number
		for k := range u {
			u[k] = seeded(in[k], k, pair)
		}
		v, z, lnPhi := eosAt(u[ut], u[up], u[ur], &vol)
		if n == 0 {
			st.V, st.Z = v.Real, z.Real
			for k := range lnPhi {
				st.LnPhi[k] = lnPhi[k].Real
			}
		}

		a, b := pair[0], pair[1]
		st.DV[a], st.DV[b] = v.E1mag, v.E2mag
		st.D2V[a*nu+b], st.D2V[b*nu+a] = v.E1E2mag, v.E1E2mag
		for k, l := range lnPhi {
			st.DLnPhi[k*nu+a], st.DLnPhi[k*nu+b] = l.E1mag, l.E2mag
			st.D2LnPhi[(k*nu+a)*nu+b], st.D2LnPhi[(k*nu+b)*nu+a] = l.E1E2mag, l.E1E2mag
		}
	}

	if log := &ph.logger; log.Enable(phase.LogEval) {
		log.Print("%4d %10.3e %10.3e %10.3e  %v\n", total.NumIter, t, p, st.V, total.Status)
	}
	return st
}

// State returns the equation-of-state solution of the mixture at (t, p, r).
// A state is returned even when a volume solve stops at the iteration cap;
// Summary.Status reports it.
func (w *Workspace) State(t, p float64, r []float64) (*State, error) {
	if len(r) != nr {
		panic("bound check error")
	}
	st, err := w.state(t, p, r[0])
	if err != nil {
		return nil, err
	}
	cp := *st
	return &cp, nil
}

func (w *Workspace) state(t, p, x float64) (*State, error) {
	if !domainOK(t, p, x) {
		w.last = Summary{Status: BadInput}
		return nil, phase.ErrDomain
	}
	if m := w.mix; m != nil && m.T == t && m.P == p && m.X == x {
		w.last = m.Summary
		w.last.Cached = true
		return m, nil
	}
	w.mix = w.ph.evaluate(t, p, x)
	w.last = w.mix.Summary
	return w.mix, nil
}

// Pure returns the states of pure H2O and pure CO2 at (t, p).
func (w *Workspace) Pure(t, p float64) ([na]State, error) {
	pure, err := w.pureStates(t, p)
	if err != nil {
		return [na]State{}, err
	}
	w.last = pure[h2o].Summary
	w.last.merge(pure[co2].Summary)
	return *pure, nil
}

func (w *Workspace) pureStates(t, p float64) (*[na]State, error) {
	if !domainOK(t, p, 0) {
		w.last = Summary{Status: BadInput}
		return nil, phase.ErrDomain
	}
	if w.pure != nil && w.pure[h2o].T == t && w.pure[h2o].P == p {
		for i := range w.pure {
			w.pure[i].Summary.Cached = true
		}
		return w.pure, nil
	}
	w.pure = &[na]State{
		h2o: *w.ph.evaluate(t, p, 0),
		co2: *w.ph.evaluate(t, p, 1),
	}
	return w.pure, nil
}
