// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gibbs

import "slices"

// Poly is a sparse polynomial with real coefficients over a fixed number of
// variables. Polynomials are values: every operation returns a new Poly.
type Poly struct {
	n     int
	terms []term
}

type term struct {
	coef float64
	pow  []uint8
}

// Zero returns the zero polynomial over n variables.
func Zero(n int) Poly {
	return Poly{n: n}
}

// Const returns the constant polynomial c.
func Const(n int, c float64) Poly {
	p := Poly{n: n}
	if c != 0 {
		p.terms = []term{{coef: c, pow: make([]uint8, n)}}
	}
	return p
}

// Var returns the polynomial yᵢ.
func Var(n, i int) Poly {
	if i < 0 || i >= n {
		panic("bound check error")
	}
	pow := make([]uint8, n)
	pow[i] = 1
	return Poly{n: n, terms: []term{{coef: 1, pow: pow}}}
}

// Dim returns the number of variables.
func (p Poly) Dim() int {
	return p.n
}

// Len returns the number of monomials.
func (p Poly) Len() int {
	return len(p.terms)
}

// Add returns p + q.
func (p Poly) Add(q Poly) Poly {
	p.mustMatch(q)
	var acc accumulator
	acc.init(p.n)
	for _, t := range p.terms {
		acc.add(t.coef, t.pow)
	}
	for _, t := range q.terms {
		acc.add(t.coef, t.pow)
	}
	return acc.poly()
}

// Sub returns p - q.
func (p Poly) Sub(q Poly) Poly {
	return p.Add(q.Scale(-1))
}

// Scale returns c·p.
func (p Poly) Scale(c float64) Poly {
	r := Poly{n: p.n}
	if c == 0 {
		return r
	}
	r.terms = make([]term, len(p.terms))
	for i, t := range p.terms {
		r.terms[i] = term{coef: c * t.coef, pow: t.pow}
	}
	return r
}

// Mul returns p·q.
func (p Poly) Mul(q Poly) Poly {
	p.mustMatch(q)
	var acc accumulator
	acc.init(p.n)
	pow := make([]uint8, p.n)
	for _, a := range p.terms {
		for _, b := range q.terms {
			for i := range pow {
				pow[i] = a.pow[i] + b.pow[i]
			}
			acc.add(a.coef*b.coef, pow)
		}
	}
	return acc.poly()
}

// Pow returns pᵏ for k ≥ 0.
func (p Poly) Pow(k int) Poly {
	if k < 0 {
		panic("negative polynomial power")
	}
	r := Const(p.n, 1)
	for ; k > 0; k-- {
		r = r.Mul(p)
	}
	return r
}

// Sum returns the sum of ps, all over n variables.
func Sum(n int, ps ...Poly) Poly {
	var acc accumulator
	acc.init(n)
	for _, p := range ps {
		if p.n != n {
			panic("polynomial dimension mismatch")
		}
		for _, t := range p.terms {
			acc.add(t.coef, t.pow)
		}
	}
	return acc.poly()
}

// Eval returns p(y).
func (p Poly) Eval(y []float64) float64 {
	return p.Deriv(y)
}

// Deriv returns the partial derivative ∂ᵏp/∂y[idx[0]]…∂y[idx[k-1]] at y.
// Each monomial is differentiated through the falling factorial of its exponents.
func (p Poly) Deriv(y []float64, idx ...int) float64 {
	if len(y) < p.n {
		panic("bound check error")
	}
	sum := 0.0
	for _, t := range p.terms {
		v := t.coef
		for i, e := range t.pow {
			c := count(idx, i)
			if c > int(e) {
				v = 0
				break
			}
			for m := 0; m < c; m++ {
				v *= float64(int(e) - m)
			}
			v *= ipow(y[i], int(e)-c)
		}
		sum += v
	}
	return sum
}

func (p Poly) mustMatch(q Poly) {
	if p.n != q.n {
		panic("polynomial dimension mismatch")
	}
}

func count(idx []int, i int) (c int) {
	for _, j := range idx {
		if j == i {
			c++
		}
	}
	return
}

func ipow(x float64, e int) float64 {
	r := 1.0
	for ; e > 0; e-- {
		r *= x
	}
	return r
}

// accumulator merges like monomials while preserving insertion order.
type accumulator struct {
	n     int
	index map[string]int
	terms []term
}

func (a *accumulator) init(n int) {
	a.n = n
	a.index = make(map[string]int)
}

func (a *accumulator) add(coef float64, pow []uint8) {
	key := string(pow)
	if k, ok := a.index[key]; ok {
		a.terms[k].coef += coef
		return
	}
	a.index[key] = len(a.terms)
	a.terms = append(a.terms, term{coef: coef, pow: slices.Clone(pow)})
}

func (a *accumulator) poly() Poly {
	terms := slices.DeleteFunc(a.terms, func(t term) bool { return t.coef == 0 })
	return Poly{n: a.n, terms: terms}
}
