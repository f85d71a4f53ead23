// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"math"
	"testing"

	"github.com/curioloop/thermix/numdiff"
	"github.com/curioloop/thermix/order"
	"github.com/curioloop/thermix/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPhase(t *testing.T, cfg *Config) *Phase {
	ph, err := New(cfg, nil)
	require.NoError(t, err)
	return ph
}

func TestNew(t *testing.T) {
	ph := mustPhase(t, nil)
	assert.Equal(t, "rhombohedral", ph.Name())
	assert.Equal(t, 3, ph.NR())
	names := []string{"geikielite", "hematite", "ilmenite", "pyrophanite"}
	formulas := []string{"MgTiO3", "Fe2O3", "FeTiO3", "MnTiO3"}
	for i, e := range ph.Endmembers() {
		assert.Equal(t, names[i], e.Name)
		assert.Equal(t, formulas[i], e.Formula)
	}

	_, err := New(&Config{Exclusion: []float64{0.05, 0.05}}, nil)
	assert.Error(t, err)
	_, err = New(&Config{Exclusion: []float64{0.05, 0.05, 1.5, 0.05}}, nil)
	assert.Error(t, err)
	_, err = New(&Config{Stop: order.Termination{Damping: 2}}, nil)
	assert.Error(t, err)
}

func TestPureOrdering(t *testing.T) {
	ph := mustPhase(t, nil)
	w := ph.Workspace()

	const temp = 1000.0
	pure, err := w.Pure(temp, 1)
	require.NoError(t, err)
	require.Equal(t, order.Converged, pure.Summary.Status)
	for _, s := range pure.S {
		assert.InDelta(t, math.Tanh(hil*s/(Gas*temp)), s, 1e-12)
		assert.Greater(t, s, 0.5)
	}
	assert.Zero(t, pure.G[hm])
	assert.Zero(t, pure.Cp[hm])
	assert.InDelta(t, pure.G[il], pure.H[il]-temp*pure.Entropy[il], 1e-8)

	again, err := w.Pure(temp, 1)
	require.NoError(t, err)
	assert.True(t, again.Summary.Cached)
	assert.Equal(t, pure.S, again.S)

	fd := ph.Workspace()
	prop := func(pick func(p *Pure) float64) func(x []float64) float64 {
		return func(x []float64) float64 {
			p, err := fd.Pure(x[0], 1)
			require.NoError(t, err)
			return pick(p)
		}
	}
	x0 := []float64{temp}

	// Cp = t·dS/dt
	dsdt, err := numdiff.Gradient(prop(func(p *Pure) float64 { return p.Entropy[il] }), x0, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, temp*dsdt[0], pure.Cp[il], 1e-6)

	dcp, err := numdiff.Gradient(prop(func(p *Pure) float64 { return p.Cp[gk] }), x0, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, dcp[0], pure.DCpDT[gk], 1e-5)

	ds, err := numdiff.Gradient(prop(func(p *Pure) float64 { return p.S[2] }), x0, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, ds[0], pure.DSDT[2], 1e-6)

	d2s, err := numdiff.Gradient(prop(func(p *Pure) float64 { return p.DSDT[0] }), x0, nil)
	require.NoError(t, err)
	assert.InEpsilon(t, d2s[0], pure.D2SDT2[0], 1e-5)

	_, err = w.Pure(-1, 1)
	assert.ErrorIs(t, err, phase.ErrDomain)
}

func TestEndmemberConsistency(t *testing.T) {
	ph := mustPhase(t, nil)
	w := ph.Workspace()
	const temp, pres = 1000.0, 1.0
	r := []float64{1, 0, 0}

	st, err := w.Order(temp, pres, r, false)
	require.NoError(t, err)
	require.Equal(t, order.Converged, st.Summary.Status)
	pure, err := w.Pure(temp, pres)
	require.NoError(t, err)
	assert.InDelta(t, pure.S[0], st.S[0], 1e-10)
	assert.Zero(t, st.S[1])
	assert.Zero(t, st.S[2])

	act, err := w.Activity(temp, pres, r, phase.Value|phase.ChemPot)
	require.NoError(t, err)
	assert.InDelta(t, 1, act.A[il], 1e-9)
	assert.InDelta(t, 0, act.Mu[il], 1e-5)

	g, err := w.Gmix(temp, pres, r, phase.Value)
	require.NoError(t, err)
	assert.InDelta(t, 0, g.Value, 1e-6)
}

func TestHematiteLimit(t *testing.T) {
	ph := mustPhase(t, nil)
	w := ph.Workspace()
	r := []float64{0, 0, 0}

	st, err := w.Order(1200, 1000, r, true)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, st.S)

	act, err := w.Activity(1200, 1000, r, phase.Value|phase.ChemPot|phase.DR)
	require.NoError(t, err)
	for _, v := range append(append(act.A, act.Mu...), act.DA...) {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite output %g", v)
	}
	assert.InDelta(t, 1, act.A[hm], 1e-9)

	g, err := w.Gmix(1200, 1000, r, phase.Value|phase.DR)
	require.NoError(t, err)
	assert.InDelta(t, 0, g.Value, 1e-6)
	for _, v := range g.DR {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestExclusion(t *testing.T) {
	ph := mustPhase(t, nil)
	w := ph.Workspace()
	req := phase.Value | phase.ChemPot | phase.DR | phase.Exclude

	// x(py) equal to the threshold is kept
	act, err := w.Activity(1000, 1, []float64{0.5, 0.2, 0.05}, req)
	require.NoError(t, err)
	assert.NotZero(t, act.A[py])
	assert.NotZero(t, act.Mu[py])

	act, err = w.Activity(1000, 1, []float64{0.5, 0.2, 0.0499}, req)
	require.NoError(t, err)
	assert.Zero(t, act.A[py])
	assert.Zero(t, act.Mu[py])
	assert.Equal(t, []float64{0, 0, 0}, act.DA[py*nr:py*nr+nr])
	for _, i := range []int{gk, hm, il} {
		assert.NotZero(t, act.A[i])
	}

	// without the flag nothing is excluded
	act, err = w.Activity(1000, 1, []float64{0.5, 0.2, 0.0499}, phase.Value)
	require.NoError(t, err)
	assert.NotZero(t, act.A[py])

	loose := mustPhase(t, &Config{Exclusion: []float64{0, 0, 0, 0}})
	act, err = loose.Workspace().Activity(1000, 1, []float64{0.5, 0.2, 0.0499}, req)
	require.NoError(t, err)
	assert.NotZero(t, act.A[py])
}

// auditR checks the analytic r-derivative of f against central differences.
func auditR(t *testing.T, name string, r0 []float64, m int, analytic []float64, f func(r []float64) []float64) {
	t.Helper()
	jc := numdiff.Jacobian{
		N: nr, M: m, Scheme: numdiff.Central,
		Func: func(r, y []float64) { copy(y, f(r)) },
	}
	rep, err := numdiff.Audit(&jc, append([]float64(nil), r0...), analytic, numdiff.Tolerance{Rel: 1e-5, Abs: 1e-4})
	require.NoError(t, err)
	assert.True(t, rep.OK, "%s: %v", name, rep)
}

func TestGmixDerivatives(t *testing.T) {
	ph := mustPhase(t, nil)
	w, fd := ph.Workspace(), ph.Workspace()
	const temp, pres = 1100.0, 1000.0
	r0 := []float64{0.6, 0.15, 0.1}

	g, err := w.Gmix(temp, pres, r0, phase.Value|phase.DR|phase.DR2|phase.DR3)
	require.NoError(t, err)
	require.True(t, w.Status().Status == order.Converged, w.Status().Status.String())

	eval := func(req phase.Request, pick func(m *phase.Mixing) []float64) func(r []float64) []float64 {
		return func(r []float64) []float64 {
			m, err := fd.Gmix(temp, pres, r, req)
			require.NoError(t, err)
			return pick(m)
		}
	}
	auditR(t, "dG", r0, 1, g.DR, eval(phase.Value, func(m *phase.Mixing) []float64 { return []float64{m.Value} }))
	auditR(t, "d2G", r0, nr, g.DR2, eval(phase.DR, func(m *phase.Mixing) []float64 { return m.DR }))
	auditR(t, "d3G", r0, nr*nr, g.DR3, eval(phase.DR2, func(m *phase.Mixing) []float64 { return m.DR2 }))

	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			assert.InDelta(t, g.DR2[i*nr+j], g.DR2[j*nr+i], 1e-6)
			for k := 0; k < nr; k++ {
				v := g.DR3[(i*nr+j)*nr+k]
				assert.InDelta(t, v, g.DR3[(j*nr+k)*nr+i], 1e-6*math.Max(1, math.Abs(v)))
				assert.InDelta(t, v, g.DR3[(k*nr+i)*nr+j], 1e-6*math.Max(1, math.Abs(v)))
			}
		}
	}
}
