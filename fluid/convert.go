// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"strconv"

	"github.com/curioloop/thermix/phase"
)

// rSource maps r to CO2.
var rSource = []int{co2}

// Convert transforms a composition given in basis in into the outputs out.
// Moles accept every output except OutDXDR; Comp accepts OutX and OutDXDR.
func (ph *Phase) Convert(in phase.Basis, v []float64, out phase.Output) (*phase.Conversion, error) {
	if err := phase.CheckConversion(in, out); err != nil {
		return nil, err
	}
	if in == phase.Moles {
		if len(v) != na {
			panic("bound check error")
		}
		return phase.FromMoles(v, rSource, out), nil
	}

	if len(v) != nr {
		panic("bound check error")
	}
	c := &phase.Conversion{}
	if out&phase.OutX != 0 {
		c.X = make([]float64, na)
		ph.MoleFractions(v, c.X)
	}
	if out&phase.OutDXDR != 0 {
		c.DXDR = []float64{dxdr[h2o], dxdr[co2]}
	}
	return c, nil
}

// MoleFractions converts r = (X_CO2) into endmember mole fractions.
func (ph *Phase) MoleFractions(r, x []float64) {
	if len(r) != nr || len(x) != na {
		panic("bound check error")
	}
	x[h2o] = 1 - r[0]
	x[co2] = r[0]
}

// Test checks 0 ≤ r ≤ 1 and every m for non-negativity.
// A nil slice is not checked.
func (ph *Phase) Test(r, m []float64) bool {
	ok := true
	if r != nil {
		ok = len(r) == nr && r[0] >= 0 && r[0] <= 1
	}
	if m != nil {
		for _, v := range m {
			ok = ok && v >= 0
		}
		ok = ok && len(m) == na
	}
	return ok
}

// Display renders the composition r, for example "H2O0.70CO20.30".
func (ph *Phase) Display(r []float64) string {
	if len(r) != nr {
		panic("bound check error")
	}
	buf := make([]byte, 0, 16)
	buf = append(buf, "H2O"...)
	buf = strconv.AppendFloat(buf, 1-r[0], 'f', 2, 64)
	buf = append(buf, "CO2"...)
	buf = strconv.AppendFloat(buf, r[0], 'f', 2, 64)
	return string(buf)
}
