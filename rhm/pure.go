// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"math"

	"github.com/curioloop/thermix/gibbs"
	"github.com/curioloop/thermix/order"
	"github.com/curioloop/thermix/phase"
)

// Pure holds the properties of the endmembers in canonical order.
// The ordered endmembers (ilmenite, geikielite, pyrophanite) each carry one
// ordering parameter with
//
//	G(s) = h(1 - s²) + Gas·t·[(1+s)ln(1+s) + (1-s)ln(1-s) - 2 ln 2]
//
// while hematite is the zero reference.
type Pure struct {
	S       [ns]float64 // ordering state of il, gk, py
	DSDT    [ns]float64
	D2SDT2  [ns]float64
	G       [na]float64
	H       [na]float64
	Entropy [na]float64
	Cp      [na]float64
	DCpDT   [na]float64
	V       [na]float64
	DVDT    [na]float64
	DVDP    [na]float64
	D2VDT2  [na]float64
	D2VDTDP [na]float64
	D2VDP2  [na]float64
	Summary order.Summary
}

// pureSite maps an endmember to the ordering parameter of its pure state,
// or -1 for hematite.
var pureSite = [na]int{gk: 1, hm: -1, il: 0, py: 2}

// pureCache stores the last pure solve, keyed by the exact (t, p).
type pureCache struct {
	valid bool
	t, p  float64
	res   Pure
}

// pureTerms holds the derivatives of the single-site ordering energy.
type pureTerms struct {
	g, gs, gss, gsss, gst, gsst, entropy float64
}

func pureAt(t, s float64) pureTerms {
	lp, lm := math.Log1p(s), math.Log1p(-s)
	mix := (1+s)*lp + (1-s)*lm - 2*math.Ln2
	h := hil // all three ordering enthalpies coincide
	return pureTerms{
		g:       h*(1-s*s) + Gas*t*mix,
		gs:      Gas*t*(lp-lm) - 2*h*s,
		gss:     Gas*t*(1/(1+s)+1/(1-s)) - 2*h,
		gsss:    -Gas * t * (1/((1+s)*(1+s)) - 1/((1-s)*(1-s))),
		gst:     Gas * (lp - lm),
		gsst:    Gas * (1/(1+s) + 1/(1-s)),
		entropy: -Gas * mix,
	}
}

// solvePure equilibrates the three pure ordering parameters with a diagonal
// Newton iteration started from 0.9 and clamped into [ε, 1-ε].
func (w *Workspace) solvePure(t, p float64) *Pure {
	c := &w.pure
	if c.valid && c.t == t && c.p == p {
		res := c.res
		res.Summary.Cached = true
		return &res
	}

	stop := w.ph.stop
	tol := stop.StepTolerance * gibbs.Epsilon
	s := [ns]float64{0.9, 0.9, 0.9}
	status, iter := order.IterLimit, 0
	for iter < stop.MaxIterations {
		ds := 0.0
		for i := range s {
			pt := pureAt(t, s[i])
			next := s[i] - stop.Damping*pt.gs/pt.gss
			next = min(max(next, gibbs.Epsilon), 1-gibbs.Epsilon)
			ds = max(ds, math.Abs(next-s[i]))
			s[i] = next
		}
		iter++
		if ds <= tol {
			status = order.Converged
			break
		}
	}
	if status != order.Converged && w.ph.logger.Enable(phase.LogLast) {
		w.ph.logger.Log("rhm: pure endmembers %v\n  t = %g  p = %g  s = %v\n", status, t, p, s)
	}

	res := Pure{S: s, Summary: order.Summary{Status: status, NumIter: iter}}
	for i, si := range s {
		pt := pureAt(t, si)
		st := -pt.gst / pt.gss
		stt := -(2*pt.gsst*st + pt.gsss*st*st) / pt.gss
		res.DSDT[i], res.D2SDT2[i] = st, stt
	}
	for k, i := range pureSite {
		if i < 0 {
			continue
		}
		pt := pureAt(t, s[i])
		st, stt := res.DSDT[i], res.D2SDT2[i]
		d2gdt2 := 2*pt.gst*st + pt.gss*st*st
		res.G[k] = pt.g
		res.Entropy[k] = pt.entropy
		res.H[k] = pt.g + t*pt.entropy
		res.Cp[k] = -t * d2gdt2
		res.DCpDT[k] = -t*(3*pt.gst*stt+3*pt.gss*st*stt+3*pt.gsst*st*st+pt.gsss*st*st*st) - d2gdt2
	}

	c.valid, c.t, c.p, c.res = true, t, p, res
	return &res
}

// Pure returns the endmember properties at (t, p).
func (w *Workspace) Pure(t, p float64) (*Pure, error) {
	if !finite(t) || !finite(p) || t <= 0 || p <= 0 {
		return nil, phase.ErrDomain
	}
	return w.solvePure(t, p), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
