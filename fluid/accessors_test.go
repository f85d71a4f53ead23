// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"math"
	"testing"

	"github.com/curioloop/thermix/numdiff"
	"github.com/curioloop/thermix/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditR checks the analytic r-derivative of f against central differences.
func auditR(t *testing.T, name string, r0 []float64, m int, analytic []float64, f func(r []float64) []float64) {
	t.Helper()
	jc := numdiff.Jacobian{
		N: nr, M: m, Scheme: numdiff.Central,
		Func: func(r, y []float64) { copy(y, f(r)) },
	}
	rep, err := numdiff.Audit(&jc, append([]float64(nil), r0...), analytic, numdiff.Tolerance{Rel: 1e-5, Abs: 1e-6})
	require.NoError(t, err)
	assert.True(t, rep.OK, "%s: %v", name, rep)
}

// slope estimates df/dv at v0 with central differences.
func slope(t *testing.T, v0 float64, f func(v float64) float64) float64 {
	t.Helper()
	g, err := numdiff.Gradient(func(x []float64) float64 { return f(x[0]) }, []float64{v0}, nil)
	require.NoError(t, err)
	return g[0]
}

func TestActivity(t *testing.T) {
	ph := mustPhase(t, nil)
	w, fd := ph.Workspace(), ph.Workspace()

	act, err := w.Activity(auditT, auditP, auditR0, phase.Value|phase.ChemPot|phase.DR)
	require.NoError(t, err)
	for i, a := range act.A {
		assert.Greater(t, a, 0.0)
		near(t, Gas*auditT*math.Log(a), act.Mu[i], 1e-9, "mu = RT ln a")
	}

	auditR(t, "da/dr", auditR0, na, act.DA, func(r []float64) []float64 {
		a, err := fd.Activity(auditT, auditP, r, phase.Value)
		require.NoError(t, err)
		return a.A
	})

	// G = Σ xᵢ μᵢ
	x := make([]float64, na)
	ph.MoleFractions(auditR0, x)
	g, err := w.Gmix(auditT, auditP, auditR0, phase.Value)
	require.NoError(t, err)
	near(t, g.Value, x[h2o]*act.Mu[h2o]+x[co2]*act.Mu[co2], 1e-9, "Σ x μ")

	// pure water
	act, err = w.Activity(auditT, auditP, []float64{0}, phase.Value|phase.ChemPot|phase.DR)
	require.NoError(t, err)
	assert.Equal(t, 1.0, act.A[h2o])
	assert.Zero(t, act.A[co2])
	assert.Zero(t, act.Mu[h2o])
	assert.True(t, math.IsInf(act.Mu[co2], -1))
	for _, d := range act.DA {
		assert.True(t, finite(d), "da/dr = %g", d)
	}
	assert.Greater(t, act.DA[co2], 0.0)
}

func TestGmixDerivatives(t *testing.T) {
	ph := mustPhase(t, nil)

	for _, tc := range []struct {
		t, p float64
		r    []float64
	}{
		{auditT, auditP, auditR0},
		{auditT, auditHighP, auditR0},
		{1200, 1000, []float64{0.1}},
	} {
		w, fd := ph.Workspace(), ph.Workspace()
		g, err := w.Gmix(tc.t, tc.p, tc.r, phase.Value|phase.DR|phase.DR2)
		require.NoError(t, err)
		assert.Less(t, g.Value, 0.0)
		assert.Greater(t, g.DR2[0], 0.0)

		auditR(t, "dG", tc.r, 1, g.DR, func(r []float64) []float64 {
			m, err := fd.Gmix(tc.t, tc.p, r, phase.Value)
			require.NoError(t, err)
			return []float64{m.Value}
		})
		auditR(t, "d2G", tc.r, 1, g.DR2, func(r []float64) []float64 {
			m, err := fd.Gmix(tc.t, tc.p, r, phase.DR)
			require.NoError(t, err)
			return m.DR
		})
		auditR(t, "da/dr", tc.r, na, mustActivity(t, w, tc.t, tc.p, tc.r, phase.DR).DA, func(r []float64) []float64 {
			return mustActivity(t, fd, tc.t, tc.p, r, phase.Value).A
		})
	}

	w := ph.Workspace()
	g, err := w.Gmix(auditT, auditP, []float64{1}, phase.Value)
	require.NoError(t, err)
	assert.Zero(t, g.Value)
}

func mustActivity(t *testing.T, w *Workspace, temp, p float64, r []float64, req phase.Request) *phase.Activity {
	t.Helper()
	act, err := w.Activity(temp, p, r, req)
	require.NoError(t, err)
	return act
}

func TestThermalProperties(t *testing.T) {
	ph := mustPhase(t, nil)
	w, fd := ph.Workspace(), ph.Workspace()
	r := auditR0

	g, err := w.Gmix(auditT, auditP, r, phase.Value)
	require.NoError(t, err)
	h, err := w.Hmix(auditT, auditP, r, phase.Value)
	require.NoError(t, err)
	s, err := w.Smix(auditT, auditP, r, phase.Value|phase.DR)
	require.NoError(t, err)
	cp, err := w.Cpmix(auditT, auditP, r, phase.Value)
	require.NoError(t, err)

	near(t, g.Value+auditT*s.Value, h.Value, 1e-9, "H = G + TS")

	gmix := func(temp float64) float64 {
		m, err := fd.Gmix(temp, auditP, r, phase.Value)
		require.NoError(t, err)
		return m.Value
	}
	smix := func(temp float64) float64 {
		m, err := fd.Smix(temp, auditP, r, phase.Value)
		require.NoError(t, err)
		return m.Value
	}
	near(t, -slope(t, auditT, gmix), s.Value, 1e-6, "S = -dG/dT")
	near(t, auditT*slope(t, auditT, smix), cp.Value, 1e-4, "Cp = T dS/dT")

	auditR(t, "dS/dr", r, 1, s.DR, func(r []float64) []float64 {
		m, err := fd.Smix(auditT, auditP, r, phase.Value)
		require.NoError(t, err)
		return []float64{m.Value}
	})
}

func TestVmix(t *testing.T) {
	ph := mustPhase(t, nil)
	w, fd := ph.Workspace(), ph.Workspace()
	all := phase.Value | phase.DR | phase.DR2 | phase.DT | phase.DP |
		phase.DT2 | phase.DTDP | phase.DP2 | phase.DRDT | phase.DRDP

	v, err := w.Vmix(auditT, auditP, auditR0, all)
	require.NoError(t, err)

	vmix := func(temp, pres float64, r []float64) *phase.Mixing {
		m, err := fd.Vmix(temp, pres, r, all)
		require.NoError(t, err)
		return m
	}
	auditR(t, "dV/dr", auditR0, 1, v.DR, func(r []float64) []float64 {
		return []float64{vmix(auditT, auditP, r).Value}
	})
	auditR(t, "d2V/dr2", auditR0, 1, v.DR2, func(r []float64) []float64 {
		return vmix(auditT, auditP, r).DR
	})
	auditR(t, "d2V/drdt", auditR0, 1, v.DRDT, func(r []float64) []float64 {
		return []float64{vmix(auditT, auditP, r).DT}
	})
	auditR(t, "d2V/drdp", auditR0, 1, v.DRDP, func(r []float64) []float64 {
		return []float64{vmix(auditT, auditP, r).DP}
	})

	ofT := func(pick func(m *phase.Mixing) float64) func(float64) float64 {
		return func(temp float64) float64 { return pick(vmix(temp, auditP, auditR0)) }
	}
	ofP := func(pick func(m *phase.Mixing) float64) func(float64) float64 {
		return func(pres float64) float64 { return pick(vmix(auditT, pres, auditR0)) }
	}
	value := func(m *phase.Mixing) float64 { return m.Value }
	dt := func(m *phase.Mixing) float64 { return m.DT }
	dp := func(m *phase.Mixing) float64 { return m.DP }

	near(t, slope(t, auditT, ofT(value)), v.DT, 1e-6, "dV/dT")
	near(t, slope(t, auditP, ofP(value)), v.DP, 1e-6, "dV/dP")
	near(t, slope(t, auditT, ofT(dt)), v.DT2, 1e-6, "d2V/dT2")
	near(t, slope(t, auditP, ofP(dt)), v.DTDP, 1e-6, "d2V/dTdP")
	near(t, slope(t, auditP, ofP(dp)), v.DP2, 1e-6, "d2V/dP2")

	for _, r := range []float64{0, 1} {
		m, err := w.Vmix(auditT, auditP, []float64{r}, phase.Value|phase.DT|phase.DP)
		require.NoError(t, err)
		assert.Zero(t, m.Value)
		assert.Zero(t, m.DT)
		assert.Zero(t, m.DP)
	}
}

func TestExclusion(t *testing.T) {
	ph := mustPhase(t, &Config{Exclusion: []float64{0.1, 0.1}})
	w := ph.Workspace()
	req := phase.Value | phase.ChemPot | phase.DR | phase.Exclude

	act, err := w.Activity(auditT, auditP, []float64{0.05}, req)
	require.NoError(t, err)
	assert.Zero(t, act.A[co2])
	assert.Zero(t, act.Mu[co2])
	assert.Zero(t, act.DA[co2])
	assert.NotZero(t, act.A[h2o])

	act, err = w.Activity(auditT, auditP, []float64{0.1}, req)
	require.NoError(t, err)
	assert.NotZero(t, act.A[co2])

	// exclusion is off by default
	act, err = mustPhase(t, nil).Workspace().Activity(auditT, auditP, []float64{0.05}, req)
	require.NoError(t, err)
	assert.NotZero(t, act.A[co2])
}
