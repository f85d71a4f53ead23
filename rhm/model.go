// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rhm implements the rhombohedral oxide solution
// (geikielite, hematite, ilmenite, pyrophanite) with three cation ordering
// parameters between the A and B layers of the corundum-derived structure.
//
// Compositional variables are r = (X_il, X_gk, X_py); hematite is the
// dependent component. Ordering variables s = (s_il, s_gk, s_py) measure the
// excess of each divalent cation on the A layer.
package rhm

import (
	"github.com/curioloop/thermix/gibbs"
	"github.com/curioloop/thermix/order"
	sym "github.com/njchilds90/gosymbol"
)

// Gas is the gas constant in J/(mol·K).
const Gas = 8.3143

const (
	na = 4 // endmembers
	nr = 3 // independent compositional variables
	ns = 3 // ordering parameters
)

// Endmember order: geikielite, hematite, ilmenite, pyrophanite.
const (
	gk = iota
	hm
	il
	py
)

// Enthalpy parameters in joules.
const (
	hil = 17000.0
	hgk = 17000.0
	hpy = 17000.0

	wilgkDIS = 25000.0
	wilgkORD = 5000.0
	dwilgk   = 12000.0
	dwgkil   = 8000.0
	wilpyDIS = 2200.0
	wilpyORD = 2200.0
	dwilpy   = 17000.0
	dwpyil   = 17000.0
	wilhmDIS = 5000.0
	dwilhm   = -19000.0
	wgkhmDIS = 5000.0
	dwgkhm   = -19000.0
	wgkpyDIS = 25000.0
	wgkpyORD = 5000.0
	dwgkpy   = 8000.0
	dwpygk   = 12000.0
	wpyhmDIS = 5000.0
	dwpyhm   = -19000.0
)

// symbols names the variables of y = (s, r) in the enthalpy expression.
var symbols = []string{"s_il", "s_gk", "s_py", "X_il", "X_gk", "X_py"}

// enthalpy returns the excess enthalpy as a symbolic expression over symbols.
func enthalpy() sym.Expr {
	s0, s1, s2 := sym.S(symbols[0]), sym.S(symbols[1]), sym.S(symbols[2])
	r0, r1, r2 := sym.S(symbols[3]), sym.S(symbols[4]), sym.S(symbols[5])
	neg := func(e sym.Expr) sym.Expr { return sym.MulOf(sym.N(-1), e) }
	sq := func(e sym.Expr) sym.Expr { return sym.PowOf(e, sym.N(2)) }
	w := func(c float64, fs ...sym.Expr) sym.Expr {
		return sym.MulOf(append([]sym.Expr{sym.NFloat(c)}, fs...)...)
	}
	xhm := sym.AddOf(sym.N(1), neg(r0), neg(r1), neg(r2))

	return sym.AddOf(
		w(hil, sym.AddOf(r0, neg(sq(s0)))),
		w(hgk, sym.AddOf(r1, neg(sq(s1)))),
		w(hpy, sym.AddOf(r2, neg(sq(s2)))),
		w(wilhmDIS, r0, xhm),
		w(wilgkDIS, r0, r1),
		w(wilpyDIS, r0, r2),
		w(wgkhmDIS, r1, xhm),
		w(wgkpyDIS, r1, r2),
		w(wpyhmDIS, r2, xhm),
		w(-2*(dwilhm+hil), sq(s0), xhm),
		w(-2*(dwgkhm+hgk), sq(s1), xhm),
		w(-2*(dwpyhm+hpy), sq(s2), xhm),
		w(2*(dwilgk-hil), sq(s0), r1),
		w(2*(dwilpy-hil), sq(s0), r2),
		w(2*(dwgkil-hgk), sq(s1), r0),
		w(2*(dwgkpy-hgk), sq(s1), r2),
		w(2*(dwpyil-hpy), sq(s2), r0),
		w(2*(dwpygk-hpy), sq(s2), r1),
		w(wilgkORD-wilgkDIS-dwilgk-dwgkil, s0, s1),
		w(wilpyORD-wilpyDIS-dwilpy-dwpyil, s0, s2),
		w(wgkpyORD-wgkpyDIS-dwgkpy-dwpygk, s1, s2),
	)
}

// newEnergy assembles the free-energy expression over y = (s, r).
func newEnergy() *gibbs.Model {
	const n = ns + nr
	s := func(i int) gibbs.Poly { return gibbs.Var(n, i) }
	r := func(i int) gibbs.Poly { return gibbs.Var(n, ns+i) }
	c := func(v float64) gibbs.Poly { return gibbs.Const(n, v) }

	s0, s1, s2 := s(0), s(1), s(2)
	r0, r1, r2 := r(0), r(1), r(2)
	xhm := gibbs.Sum(n, c(1), r0.Scale(-1), r1.Scale(-1), r2.Scale(-1))
	h := gibbs.MustCompile(enthalpy(), symbols)

	half := func(ps ...gibbs.Poly) gibbs.Poly { return gibbs.Sum(n, ps...).Scale(0.5) }
	sites := gibbs.Sites{
		gibbs.NewSite("Fe2+ A", 1, half(r0, s0)),
		gibbs.NewSite("Mg A", 1, half(r1, s1)),
		gibbs.NewSite("Mn A", 1, half(r2, s2)),
		gibbs.NewSite("Ti A", 1, half(r0, r1, r2, s0.Scale(-1), s1.Scale(-1), s2.Scale(-1))),
		gibbs.NewSite("Fe3+ A", 1, xhm),
		gibbs.NewSite("Fe2+ B", 1, half(r0, s0.Scale(-1))),
		gibbs.NewSite("Mg B", 1, half(r1, s1.Scale(-1))),
		gibbs.NewSite("Mn B", 1, half(r2, s2.Scale(-1))),
		gibbs.NewSite("Ti B", 1, half(r0, r1, r2, s0, s1, s2)),
		gibbs.NewSite("Fe3+ B", 1, xhm),
	}

	return &gibbs.Model{
		NS:    ns,
		NR:    nr,
		H:     h,
		S:     gibbs.Zero(n),
		V:     gibbs.Zero(n),
		Sites: sites,
		Gas:   Gas,
	}
}

// energy adapts the expression set to the ordering solver. Each ordering
// parameter is confined to [0, rᵢ - ε] so that no B-layer fraction turns
// negative.
type energy struct {
	*gibbs.Model
}

func (e energy) Bounds(r []float64, b []order.Bound) {
	for i := range b {
		b[i] = order.Bound{Lower: 0, Upper: max(0, r[i]-gibbs.Epsilon)}
	}
}

func (e energy) Start(r, s []float64) {
	copy(s, r)
}
