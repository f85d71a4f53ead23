// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gibbs evaluates closed-form Gibbs free energies of multi-site
// solutions together with their analytic partial derivatives up to third
// order. Energies are assembled from symbolic polynomials and affine site
// fractions, so every derivative is generated rather than written by hand.
package gibbs

import (
	"errors"
	"fmt"
)

// Model is a free-energy expression set with NS ordering variables s and
// NR compositional variables r:
//
//	G = H(y) - t·S(y) + p·V(y) + Gas·t·Σₖ mₖ·xₖ·ln xₖ,   y = (s, r)
//
// H, S and V are the enthalpic, excess entropic and volumetric polynomials,
// xₖ the site fractions. Derivatives are taken with respect to the stacked
// vector z = (s, r, t, p). A Model is read-only and safe for concurrent use.
type Model struct {
	NS, NR  int
	H, S, V Poly
	Sites   Sites
	Gas     float64
}

// Dim returns the length of z.
func (m *Model) Dim() int {
	return m.NS + m.NR + 2
}

// Dims returns the number of ordering and compositional variables.
func (m *Model) Dims() (ns, nr int) {
	return m.NS, m.NR
}

// Validate checks that every component is defined over y = (s, r).
func (m *Model) Validate() error {
	ny := m.NS + m.NR
	for _, p := range []Poly{m.H, m.S, m.V} {
		if p.n != 0 && p.n != ny {
			return fmt.Errorf("polynomial over %d variables, want %d", p.n, ny)
		}
	}
	for _, s := range m.Sites {
		if len(s.Coef) != ny {
			return fmt.Errorf("site %q has %d coefficients, want %d", s.Name, len(s.Coef), ny)
		}
	}
	if m.NS < 0 || m.NR < 0 {
		return errors.New("negative dimensions")
	}
	return nil
}

// Eval computes G and its derivatives up to the given order at z into d.
func (m *Model) Eval(z []float64, order int, d *Taylor) {
	nz := m.Dim()
	if len(z) != nz || d.N != nz {
		panic("bound check error")
	}
	if order < 0 || order > 3 {
		panic("derivative order out of range")
	}

	ny := nz - 2
	y, t, p := z[:ny], z[ny], z[ny+1]
	x := make([]float64, len(m.Sites))
	m.Sites.Fractions(y, x)

	d.Reset(order)
	d.F = m.deriv(y, x, t, p)
	if order < 1 {
		return
	}
	for i := 0; i < nz; i++ {
		d.G[i] = m.deriv(y, x, t, p, i)
	}
	if order < 2 {
		return
	}
	for i := 0; i < nz; i++ {
		for j := i; j < nz; j++ {
			d.set2(i, j, m.deriv(y, x, t, p, i, j))
		}
	}
	if order < 3 {
		return
	}
	for i := 0; i < nz; i++ {
		for j := i; j < nz; j++ {
			for k := j; k < nz; k++ {
				d.set3(i, j, k, m.deriv(y, x, t, p, i, j, k))
			}
		}
	}
}

// deriv returns the partial derivative of G with respect to the z indices idx.
func (m *Model) deriv(y, x []float64, t, p float64, idx ...int) float64 {
	it, ip := len(y), len(y)+1

	var buf [3]int
	ys := buf[:0]
	nt, np := 0, 0
	for _, i := range idx {
		switch i {
		case it:
			nt++
		case ip:
			np++
		default:
			ys = append(ys, i)
		}
	}

	v := 0.0
	switch {
	case nt+np >= 2:
		// the polynomial part is linear in t and in p
	case nt == 1:
		v = -m.S.Deriv(y, ys...)
	case np == 1:
		v = m.V.Deriv(y, ys...)
	default:
		v = m.H.Deriv(y, ys...) - t*m.S.Deriv(y, ys...) + p*m.V.Deriv(y, ys...)
	}

	if m.Gas != 0 && np == 0 && nt <= 1 {
		f := m.Gas
		if nt == 0 {
			f *= t
		}
		v += f * m.Sites.mix(x, ys)
	}
	return v
}
