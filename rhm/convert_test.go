// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"testing"

	"github.com/curioloop/thermix/numdiff"
	"github.com/curioloop/thermix/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	ph := mustPhase(t, nil)
	m := []float64{2, 1, 5, 2}

	c, err := ph.Convert(phase.Moles, m, phase.OutR|phase.OutX)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.2, 0.2}, c.R, 1e-15)
	assert.InDeltaSlice(t, []float64{0.2, 0.1, 0.5, 0.2}, c.X, 1e-15)
	assert.Nil(t, c.DRDM)

	x := make([]float64, na)
	ph.MoleFractions(c.R, x)
	assert.InDeltaSlice(t, c.X, x, 1e-15)

	back, err := ph.Convert(phase.Comp, c.R, phase.OutX|phase.OutDXDR)
	require.NoError(t, err)
	assert.InDeltaSlice(t, c.X, back.X, 1e-15)
	assert.Equal(t, []float64{
		0, 1, 0,
		-1, -1, -1,
		1, 0, 0,
		0, 0, 1,
	}, back.DXDR)

	empty, err := ph.Convert(phase.Moles, make([]float64, na), phase.OutR|phase.OutD3RDM3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, empty.R)
	assert.Len(t, empty.D3RDM3, nr*na*na*na)

	_, err = ph.Convert(phase.Comp, c.R, phase.OutR)
	assert.ErrorIs(t, err, phase.ErrIllegalRequest)
	_, err = ph.Convert(phase.Moles, m, phase.OutDXDR)
	assert.ErrorIs(t, err, phase.ErrIllegalRequest)
	_, err = ph.Convert(phase.Basis(7), m, phase.OutR)
	assert.ErrorIs(t, err, phase.ErrIllegalRequest)
}

func TestConvertDerivatives(t *testing.T) {
	ph := mustPhase(t, nil)
	m0 := []float64{0.3, 1.2, 0.8, 0.1}
	all := phase.OutR | phase.OutDRDM | phase.OutD2RDM2 | phase.OutD3RDM3
	c, err := ph.Convert(phase.Moles, m0, all)
	require.NoError(t, err)

	audit := func(name string, rows int, analytic []float64, pick func(c *phase.Conversion) []float64) {
		jc := numdiff.Jacobian{
			N: na, M: rows, Scheme: numdiff.Central,
			Func: func(m, y []float64) {
				c, err := ph.Convert(phase.Moles, m, all)
				require.NoError(t, err)
				copy(y, pick(c))
			},
		}
		rep, err := numdiff.Audit(&jc, append([]float64(nil), m0...), analytic, numdiff.Tolerance{Rel: 1e-6, Abs: 1e-9})
		require.NoError(t, err)
		assert.True(t, rep.OK, "%s: %v", name, rep)
	}
	audit("dr/dm", nr, c.DRDM, func(c *phase.Conversion) []float64 { return c.R })
	audit("d2r/dm2", nr*na, c.D2RDM2, func(c *phase.Conversion) []float64 { return c.DRDM })
	audit("d3r/dm3", nr*na*na, c.D3RDM3, func(c *phase.Conversion) []float64 { return c.D2RDM2 })
}

func TestTestAndDisplay(t *testing.T) {
	ph := mustPhase(t, nil)

	assert.True(t, ph.Test([]float64{0.5, 0.2, 0.1}, []float64{1, 0, 2, 3}))
	assert.True(t, ph.Test(nil, nil))
	assert.False(t, ph.Test([]float64{0.5, 0.6, 0.1}, nil))
	assert.False(t, ph.Test([]float64{-0.1, 0.2, 0.1}, nil))
	assert.False(t, ph.Test([]float64{0.5, 0.2}, nil))
	assert.False(t, ph.Test(nil, []float64{1, -1, 0, 0}))

	assert.Equal(t, "Mn0.10Fe''0.50Mg0.20Fe'''0.40Ti0.80O3", ph.Display([]float64{0.5, 0.2, 0.1}))
	assert.Equal(t, "Mn0.00Fe''0.00Mg0.00Fe'''2.00Ti0.00O3", ph.Display([]float64{0, 0, 0}))
}
