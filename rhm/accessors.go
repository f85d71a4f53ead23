// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"math"

	"github.com/curioloop/thermix/order"
	"github.com/curioloop/thermix/phase"
)

// Index of t and p in u = (r, t, p).
const (
	ut = nr
	up = nr + 1
)

// totals reads total derivatives, yielding NaN for outputs the solver
// could not propagate through a singular Hessian.
type totals struct {
	*order.Props
}

func (d totals) d1(i int) float64 {
	if d.DG == nil {
		return math.NaN()
	}
	return d.DG[i]
}

func (d totals) d2(i, j int) float64 {
	if d.D2G == nil {
		return math.NaN()
	}
	return d.D2G[i*d.NU+j]
}

func (d totals) d3(i, j, k int) float64 {
	if d.D3G == nil {
		return math.NaN()
	}
	return d.D3G[(i*d.NU+j)*d.NU+k]
}

func (w *Workspace) derive(t, p float64, r []float64, mask order.Mask) (totals, error) {
	if len(r) != nr {
		panic("bound check error")
	}
	props, res := w.ph.solver.Derive(t, p, r, mask, w.ord)
	w.last = res.Summary
	if props == nil {
		return totals{}, phase.ErrDomain
	}
	return totals{props}, nil
}

// ends returns Σ xᵢ eᵢ over the endmembers.
func ends(r []float64, e *[na]float64) float64 {
	return r[1]*e[gk] + (1-r[0]-r[1]-r[2])*e[hm] + r[0]*e[il] + r[2]*e[py]
}

// dends returns d/dr of ends.
func dends(e *[na]float64) [nr]float64 {
	return [nr]float64{e[il] - e[hm], e[gk] - e[hm], e[py] - e[hm]}
}

// frac returns d(xᵢ)/d(rⱼ) shifted so that G + Σⱼ frac(i, j)·dG/drⱼ is the
// chemical potential of endmember i.
func frac(i int, r []float64) [nr]float64 {
	var f [nr]float64
	for j, e := range [nr]int{il, gk, py} {
		f[j] = -r[j]
		if i == e {
			f[j] += 1
		}
	}
	return f
}

// Activity computes endmember activities, chemical potentials and d(a)/d(r).
func (w *Workspace) Activity(t, p float64, r []float64, req phase.Request) (*phase.Activity, error) {
	if err := phase.Check("rhm.Activity", req, phase.Value|phase.ChemPot|phase.DR|phase.Exclude); err != nil {
		return nil, err
	}
	mask := order.MaskG | order.MaskDG
	if req.Has(phase.DR) {
		mask |= order.MaskD2G
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	rt := Gas * t
	act := &phase.Activity{}
	if req.Has(phase.Value) {
		act.A = make([]float64, na)
	}
	if req.Has(phase.ChemPot) {
		act.Mu = make([]float64, na)
	}
	if req.Has(phase.DR) {
		act.DA = make([]float64, na*nr)
	}

	for i := 0; i < na; i++ {
		f := frac(i, r)
		mu := d.G
		for j := range f {
			mu += f[j] * d.d1(j)
		}
		a := math.Exp(mu / rt)
		if a0 := math.Exp(pure.G[i] / rt); a0 != 0 {
			a /= a0
		}
		if act.A != nil {
			act.A[i] = a
		}
		if act.Mu != nil {
			act.Mu[i] = mu - pure.G[i]
		}
		if act.DA != nil {
			for k := 0; k < nr; k++ {
				v := 0.0
				for j := range f {
					v += f[j] * d.d2(j, k)
				}
				act.DA[i*nr+k] = a * v / rt
			}
		}
	}

	if req.Has(phase.Exclude) {
		x := make([]float64, na)
		w.ph.MoleFractions(r, x)
		w.ph.excl.Apply(x, nr, act)
	}
	return act, nil
}

// Gmix computes the Gibbs energy of mixing and its first three r-derivatives.
//
// At a boundary composition the vanishing site fractions are clamped to ε, so
// the ideal mixing curvature RT·m/x grows to order 1e19 in DR2 and 1e35 in DR3.
// Those values are finite but ill-conditioned; callers working at the edge of
// the composition space should treat them as a barrier rather than a curvature.
func (w *Workspace) Gmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("rhm.Gmix", req, phase.Value|phase.DR|phase.DR2|phase.DR3); err != nil {
		return nil, err
	}
	mask := order.MaskG | order.MaskDG
	if req.Has(phase.DR2) {
		mask |= order.MaskD2G
	}
	if req.Has(phase.DR3) {
		mask |= order.MaskD3G
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = d.G - ends(r, &pure.G)
	}
	if req.Has(phase.DR) {
		de := dends(&pure.G)
		mix.DR = make([]float64, nr)
		for i := range mix.DR {
			mix.DR[i] = d.d1(i) - de[i]
		}
	}
	if req.Has(phase.DR2) {
		mix.DR2 = make([]float64, nr*nr)
		for i := 0; i < nr; i++ {
			for j := 0; j < nr; j++ {
				mix.DR2[i*nr+j] = d.d2(i, j)
			}
		}
	}
	if req.Has(phase.DR3) {
		mix.DR3 = make([]float64, nr*nr*nr)
		for i := 0; i < nr; i++ {
			for j := 0; j < nr; j++ {
				for k := 0; k < nr; k++ {
					mix.DR3[(i*nr+j)*nr+k] = d.d3(i, j, k)
				}
			}
		}
	}
	return mix, nil
}

// Hmix computes the enthalpy of mixing.
func (w *Workspace) Hmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("rhm.Hmix", req, phase.Value); err != nil {
		return nil, err
	}
	d, err := w.derive(t, p, r, order.MaskG|order.MaskDG)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = d.G - t*d.d1(ut) - ends(r, &pure.H)
	}
	return mix, nil
}

// Smix computes the entropy of mixing and its first two r-derivatives.
func (w *Workspace) Smix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("rhm.Smix", req, phase.Value|phase.DR|phase.DR2); err != nil {
		return nil, err
	}
	mask := order.MaskDG
	if req.Has(phase.DR) {
		mask |= order.MaskD2G
	}
	if req.Has(phase.DR2) {
		mask |= order.MaskD3G
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = -d.d1(ut) - ends(r, &pure.Entropy)
	}
	if req.Has(phase.DR) {
		de := dends(&pure.Entropy)
		mix.DR = make([]float64, nr)
		for i := range mix.DR {
			mix.DR[i] = -d.d2(i, ut) - de[i]
		}
	}
	if req.Has(phase.DR2) {
		mix.DR2 = make([]float64, nr*nr)
		for i := 0; i < nr; i++ {
			for j := 0; j < nr; j++ {
				mix.DR2[i*nr+j] = -d.d3(i, j, ut)
			}
		}
	}
	return mix, nil
}

// Cpmix computes the heat capacity of mixing with its t- and r-derivatives.
func (w *Workspace) Cpmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("rhm.Cpmix", req, phase.Value|phase.DT|phase.DR); err != nil {
		return nil, err
	}
	mask := order.MaskD2G
	if req&(phase.DT|phase.DR) != 0 {
		mask |= order.MaskD3G
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = -t*d.d2(ut, ut) - ends(r, &pure.Cp)
	}
	if req.Has(phase.DT) {
		mix.DT = -t*d.d3(ut, ut, ut) - d.d2(ut, ut) - ends(r, &pure.DCpDT)
	}
	if req.Has(phase.DR) {
		de := dends(&pure.Cp)
		mix.DR = make([]float64, nr)
		for i := range mix.DR {
			mix.DR[i] = -t*d.d3(i, ut, ut) - de[i]
		}
	}
	return mix, nil
}

// Vmix computes the volume of mixing and its r, t and p derivatives.
func (w *Workspace) Vmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	allowed := phase.Value | phase.DR | phase.DR2 | phase.DT | phase.DP |
		phase.DT2 | phase.DTDP | phase.DP2 | phase.DRDT | phase.DRDP
	if err := phase.Check("rhm.Vmix", req, allowed); err != nil {
		return nil, err
	}
	mask := order.MaskDG
	if req&(phase.DR|phase.DT|phase.DP) != 0 {
		mask |= order.MaskD2G
	}
	if req&(phase.DR2|phase.DT2|phase.DTDP|phase.DP2|phase.DRDT|phase.DRDP) != 0 {
		mask |= order.MaskD3G
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	pure := w.solvePure(t, p)

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = d.d1(up) - ends(r, &pure.V)
	}
	if req.Has(phase.DR) {
		de := dends(&pure.V)
		mix.DR = make([]float64, nr)
		for i := range mix.DR {
			mix.DR[i] = d.d2(i, up) - de[i]
		}
	}
	if req.Has(phase.DR2) {
		mix.DR2 = make([]float64, nr*nr)
		for i := 0; i < nr; i++ {
			for j := 0; j < nr; j++ {
				mix.DR2[i*nr+j] = d.d3(i, j, up)
			}
		}
	}
	if req.Has(phase.DT) {
		mix.DT = d.d2(ut, up) - ends(r, &pure.DVDT)
	}
	if req.Has(phase.DP) {
		mix.DP = d.d2(up, up) - ends(r, &pure.DVDP)
	}
	if req.Has(phase.DT2) {
		mix.DT2 = d.d3(ut, ut, up) - ends(r, &pure.D2VDT2)
	}
	if req.Has(phase.DTDP) {
		mix.DTDP = d.d3(ut, up, up) - ends(r, &pure.D2VDTDP)
	}
	if req.Has(phase.DP2) {
		mix.DP2 = d.d3(up, up, up) - ends(r, &pure.D2VDP2)
	}
	if req.Has(phase.DRDT) {
		de := dends(&pure.DVDT)
		mix.DRDT = make([]float64, nr)
		for i := range mix.DRDT {
			mix.DRDT[i] = d.d3(i, ut, up) - de[i]
		}
	}
	if req.Has(phase.DRDP) {
		de := dends(&pure.DVDP)
		mix.DRDP = make([]float64, nr)
		for i := range mix.DRDP {
			mix.DRDP[i] = d.d3(i, up, up) - de[i]
		}
	}
	return mix, nil
}

// State is the equilibrium ordering state with its derivatives, with
// respect to u = (r, t, p).
//
//	DS[a*NU+i]          dsₐ/duᵢ
//	D2S[(a*NU+i)*NU+j]  d²sₐ/duᵢduⱼ
type State struct {
	S       []float64
	DS      []float64
	D2S     []float64
	Summary order.Summary
}

// NU is the length of u.
func (s *State) NU() int { return nr + 2 }

// Order returns the equilibrium ordering state at (t, p, r). The
// derivatives are computed when withDerivs is set and left nil when the
// Hessian is singular.
func (w *Workspace) Order(t, p float64, r []float64, withDerivs bool) (*State, error) {
	mask := order.MaskG
	if withDerivs {
		mask |= order.MaskDS | order.MaskD2S
	}
	d, err := w.derive(t, p, r, mask)
	if err != nil {
		return nil, err
	}
	return &State{S: d.S, DS: d.DS, D2S: d.D2S, Summary: w.last}, nil
}
