// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"strconv"

	"github.com/curioloop/thermix/phase"
)

// rSource maps rᵢ to the endmember whose mole fraction it is.
var rSource = []int{il, gk, py}

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
		c.DXDR = make([]float64, na*nr)
		for j, e := range rSource {
			c.DXDR[e*nr+j] = 1
			c.DXDR[hm*nr+j] = -1
		}
	}
	return c, nil
}

// MoleFractions converts r = (X_il, X_gk, X_py) into endmember mole fractions.
func (ph *Phase) MoleFractions(r, x []float64) {
	if len(r) != nr || len(x) != na {
		panic("bound check error")
	}
	x[gk] = r[1]
	x[hm] = 1 - r[0] - r[1] - r[2]
	x[il] = r[0]
	x[py] = r[2]
}

// Test checks r against 0 ≤ rᵢ ≤ 1, Σr ≤ 1 and every m for non-negativity.
// A nil slice is not checked.
func (ph *Phase) Test(r, m []float64) bool {
	ok := true
	if r != nil {
		sum := 0.0
		for _, v := range r {
			ok = ok && v >= 0 && v <= 1
			sum += v
		}
		ok = ok && len(r) == nr && sum <= 1
	}
	if m != nil {
		for _, v := range m {
			ok = ok && v >= 0
		}
		ok = ok && len(m) == na
	}
	return ok
}

// Display renders the structural formula for composition r, for example
// "Mn0.10Fe''0.50Mg0.20Fe'''0.40Ti0.80O3".
func (ph *Phase) Display(r []float64) string {
	if len(r) != nr {
		panic("bound check error")
	}
	ti := r[0] + r[1] + r[2]
	buf := make([]byte, 0, 40)
	for _, part := range []struct {
		ion string
		n   float64
	}{
		{"Mn", r[2]},
		{"Fe''", r[0]},
		{"Mg", r[1]},
		{"Fe'''", 2 * (1 - ti)},
		{"Ti", ti},
	} {
		buf = append(buf, part.ion...)
		buf = strconv.AppendFloat(buf, part.n, 'f', 2, 64)
	}
	return string(append(buf, "O3"...))
}
