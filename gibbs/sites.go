// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gibbs

import "math"

// Epsilon replaces any site fraction that is not strictly positive.
const Epsilon = 2.220446049250313e-16

// Site is one crystallographic site fraction, affine in y = (s, r):
//
//	x = Const + Σⱼ Coef[j]·y[j]
//
// Mult is the site multiplicity weighting x·ln(x) in the configurational entropy.
type Site struct {
	Name  string
	Mult  float64
	Const float64
	Coef  []float64
}

// NewSite builds a site from a polynomial of degree at most one.
func NewSite(name string, mult float64, p Poly) Site {
	s := Site{Name: name, Mult: mult, Coef: make([]float64, p.n)}
	for _, t := range p.terms {
		deg, at := 0, -1
		for i, e := range t.pow {
			deg += int(e)
			if e > 0 {
				at = i
			}
		}
		switch deg {
		case 0:
			s.Const += t.coef
		case 1:
			s.Coef[at] += t.coef
		default:
			panic("site fraction must be affine")
		}
	}
	return s
}

// Sites is the set of site fractions of a phase.
type Sites []Site

// Fractions computes every site fraction at y into x.
// Fractions that are not strictly positive are clamped to Epsilon, so the
// logarithms and reciprocals of the entropy derivatives stay finite.
func (ss Sites) Fractions(y, x []float64) {
	if len(x) < len(ss) {
		panic("bound check error")
	}
	for k, s := range ss {
		v := s.Const
		for j, c := range s.Coef {
			v += c * y[j]
		}
		if v <= 0 {
			v = Epsilon
		}
		x[k] = v
	}
}

// mix returns the derivative of Σₖ mₖ xₖ ln xₖ with respect to y[ys[0]]…y[ys[len-1]].
func (ss Sites) mix(x []float64, ys []int) float64 {
	sum := 0.0
	for k, s := range ss {
		xk := x[k]
		switch len(ys) {
		case 0:
			sum += s.Mult * xk * math.Log(xk)
		case 1:
			sum += s.Mult * (math.Log(xk) + 1) * s.Coef[ys[0]]
		case 2:
			sum += s.Mult * s.Coef[ys[0]] * s.Coef[ys[1]] / xk
		case 3:
			sum -= s.Mult * s.Coef[ys[0]] * s.Coef[ys[1]] * s.Coef[ys[2]] / (xk * xk)
		default:
			panic("derivative order above three")
		}
	}
	return sum
}
