// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"fmt"
	"math"

	"github.com/curioloop/thermix/phase"
)

// dxdr is d(xᵢ)/dr.
var dxdr = [na]float64{h2o: -1, co2: 1}

// mixed couples the mixture state with the pure states at the same (t, p).
type mixed struct {
	st   *State
	pure *[na]State
	x    [na]float64
}

func (w *Workspace) mixed(t, p float64, r []float64) (*mixed, error) {
	if len(r) != nr {
		panic("bound check error")
	}
	st, err := w.state(t, p, r[0])
	if err != nil {
		return nil, err
	}
	pure, err := w.pureStates(t, p)
	if err != nil {
		return nil, err
	}
	// w.last holds the mixture summary with its cache flag
	for _, ps := range pure {
		w.last.merge(ps.Summary)
	}
	for _, s := range append([]*State{st}, &pure[h2o], &pure[co2]) {
		if !s.finite() {
			return nil, fmt.Errorf("%w: fluid at t = %g p = %g x = %g: %v",
				phase.ErrNoSolution, t, p, s.X, s.Summary.Status)
		}
	}
	return &mixed{st: st, pure: pure, x: [na]float64{h2o: 1 - r[0], co2: r[0]}}, nil
}

// dPhi returns d ln φᵢ/duₐ of the mixture relative to the pure endmember.
// The pure reference does not depend on r.
func (m *mixed) dPhi(i, a int) float64 {
	d := m.st.DLnPhi[i*nu+a]
	if a != ur {
		d -= m.pure[i].DLnPhi[i*nu+a]
	}
	return d
}

func (m *mixed) d2Phi(i, a, b int) float64 {
	d := m.st.D2LnPhi[(i*nu+a)*nu+b]
	if a != ur && b != ur {
		d -= m.pure[i].D2LnPhi[(i*nu+a)*nu+b]
	}
	return d
}

// lnA returns ln aᵢ = ln xᵢ + ln φᵢ - ln φᵢ°.
func (m *mixed) lnA(i int) float64 {
	return math.Log(m.x[i]) + m.st.LnPhi[i] - m.pure[i].LnPhi[i]
}

// weighted returns Σ xᵢ f(i), skipping absent endmembers.
func (m *mixed) weighted(f func(i int) float64) float64 {
	s := 0.0
	for i, x := range m.x {
		if x > 0 {
			s += x * f(i)
		}
	}
	return s
}

// Activity computes endmember activities, chemical potentials and d(a)/d(r).
// The activity of an absent endmember is zero.
func (w *Workspace) Activity(t, p float64, r []float64, req phase.Request) (*phase.Activity, error) {
	if err := phase.Check("fluid.Activity", req, phase.Value|phase.ChemPot|phase.DR|phase.Exclude); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}

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
		// φᵢ/φᵢ°
		ratio := math.Exp(m.st.LnPhi[i] - m.pure[i].LnPhi[i])
		if act.A != nil {
			act.A[i] = m.x[i] * ratio
		}
		if act.Mu != nil {
			act.Mu[i] = rt * m.lnA(i)
		}
		if act.DA != nil {
			act.DA[i] = ratio * (dxdr[i] + m.x[i]*m.dPhi(i, ur))
		}
	}

	if req.Has(phase.Exclude) {
		w.ph.excl.Apply(m.x[:], nr, act)
	}
	return act, nil
}

// Gmix computes the Gibbs energy of mixing and its first two r-derivatives.
func (w *Workspace) Gmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("fluid.Gmix", req, phase.Value|phase.DR|phase.DR2); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}

	rt := Gas * t
	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = rt * m.weighted(m.lnA)
	}
	// Σ xᵢ d ln xᵢ/dr vanishes
	slope := m.weighted(func(i int) float64 { return m.dPhi(i, ur) })
	if req.Has(phase.DR) {
		mix.DR = []float64{rt * (m.lnA(co2) - m.lnA(h2o) + slope)}
	}
	if req.Has(phase.DR2) {
		curv := 1/m.x[h2o] + 1/m.x[co2] +
			2*(m.dPhi(co2, ur)-m.dPhi(h2o, ur)) +
			m.weighted(func(i int) float64 { return m.d2Phi(i, ur, ur) })
		mix.DR2 = []float64{rt * curv}
	}
	return mix, nil
}

// Hmix computes the enthalpy of mixing, -R·t²·Σ xᵢ d(ln φᵢ - ln φᵢ°)/dt.
func (w *Workspace) Hmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("fluid.Hmix", req, phase.Value); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}
	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = -Gas * t * t * m.weighted(func(i int) float64 { return m.dPhi(i, ut) })
	}
	return mix, nil
}

// Smix computes the entropy of mixing and its r-derivative.
func (w *Workspace) Smix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("fluid.Smix", req, phase.Value|phase.DR); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}

	// S = -dG/dt with G = R·t·Σ xᵢ ln aᵢ
	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = -Gas*m.weighted(m.lnA) -
			Gas*t*m.weighted(func(i int) float64 { return m.dPhi(i, ut) })
	}
	if req.Has(phase.DR) {
		dg := m.lnA(co2) - m.lnA(h2o) + m.weighted(func(i int) float64 { return m.dPhi(i, ur) })
		dgt := m.dPhi(co2, ut) - m.dPhi(h2o, ut) + m.weighted(func(i int) float64 { return m.d2Phi(i, ur, ut) })
		mix.DR = []float64{-Gas*dg - Gas*t*dgt}
	}
	return mix, nil
}

// Cpmix computes the heat capacity of mixing, -t·d²G/dt².
func (w *Workspace) Cpmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	if err := phase.Check("fluid.Cpmix", req, phase.Value); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}
	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		d1 := m.weighted(func(i int) float64 { return m.dPhi(i, ut) })
		d2 := m.weighted(func(i int) float64 { return m.d2Phi(i, ut, ut) })
		mix.Value = -t * (2*Gas*d1 + Gas*t*d2)
	}
	return mix, nil
}

// Vmix computes the volume of mixing and its r, t and p derivatives.
func (w *Workspace) Vmix(t, p float64, r []float64, req phase.Request) (*phase.Mixing, error) {
	allowed := phase.Value | phase.DR | phase.DR2 | phase.DT | phase.DP |
		phase.DT2 | phase.DTDP | phase.DP2 | phase.DRDT | phase.DRDP
	if err := phase.Check("fluid.Vmix", req, allowed); err != nil {
		return nil, err
	}
	m, err := w.mixed(t, p, r)
	if err != nil {
		return nil, err
	}

	st, pure := m.st, m.pure
	// ideal returns the linear endmember combination of f.
	ideal := func(f func(s *State) float64) float64 {
		return m.x[h2o]*f(&pure[h2o]) + m.x[co2]*f(&pure[co2])
	}
	// slope returns its r-derivative.
	slope := func(f func(s *State) float64) float64 {
		return f(&pure[co2]) - f(&pure[h2o])
	}
	d := func(a int) func(s *State) float64 {
		return func(s *State) float64 { return s.DV[a] }
	}
	d2 := func(a, b int) func(s *State) float64 {
		return func(s *State) float64 { return s.D2V[a*nu+b] }
	}

	mix := &phase.Mixing{}
	if req.Has(phase.Value) {
		mix.Value = st.V - ideal(func(s *State) float64 { return s.V })
	}
	if req.Has(phase.DR) {
		mix.DR = []float64{st.DV[ur] - slope(func(s *State) float64 { return s.V })}
	}
	if req.Has(phase.DR2) {
		mix.DR2 = []float64{st.D2V[ur*nu+ur]}
	}
	if req.Has(phase.DT) {
		mix.DT = st.DV[ut] - ideal(d(ut))
	}
	if req.Has(phase.DP) {
		mix.DP = st.DV[up] - ideal(d(up))
	}
	if req.Has(phase.DT2) {
		mix.DT2 = st.D2V[ut*nu+ut] - ideal(d2(ut, ut))
	}
	if req.Has(phase.DTDP) {
		mix.DTDP = st.D2V[ut*nu+up] - ideal(d2(ut, up))
	}
	if req.Has(phase.DP2) {
		mix.DP2 = st.D2V[up*nu+up] - ideal(d2(up, up))
	}
	if req.Has(phase.DRDT) {
		mix.DRDT = []float64{st.D2V[ur*nu+ut] - slope(d(ut))}
	}
	if req.Has(phase.DRDP) {
		mix.DRDP = []float64{st.D2V[ur*nu+up] - slope(d(up))}
	}
	return mix, nil
}
