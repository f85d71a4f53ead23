// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gibbs

import (
	"fmt"

	"github.com/njchilds90/gosymbol"
)

// Compile converts a polynomial expression into a Poly over y, binding
// y[i] to the symbol vars[i]. Sums, products, numbers and non-negative
// integer powers are accepted; anything else is reported as an error.
func Compile(e gosymbol.Expr, vars []string) (Poly, error) {
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		if _, dup := index[v]; dup {
			return Poly{}, fmt.Errorf("gibbs: duplicate variable %q", v)
		}
		index[v] = i
	}
	return compile(gosymbol.Simplify(e), len(vars), index)
}

// MustCompile is like Compile but panics on error.
func MustCompile(e gosymbol.Expr, vars []string) Poly {
	p, err := Compile(e, vars)
	if err != nil {
		panic(err)
	}
	return p
}

func compile(e gosymbol.Expr, n int, index map[string]int) (Poly, error) {
	switch e := e.(type) {
	case *gosymbol.Num:
		return Const(n, e.Float64()), nil
	case *gosymbol.Sym:
		i, ok := index[e.Name()]
		if !ok {
			return Poly{}, fmt.Errorf("gibbs: unbound symbol %q", e.Name())
		}
		return Var(n, i), nil
	case *gosymbol.Add:
		acc := Zero(n)
		for _, t := range e.Terms() {
			p, err := compile(t, n, index)
			if err != nil {
				return Poly{}, err
			}
			acc = acc.Add(p)
		}
		return acc, nil
	case *gosymbol.Mul:
		acc := Const(n, 1)
		for _, f := range e.Factors() {
			p, err := compile(f, n, index)
			if err != nil {
				return Poly{}, err
			}
			acc = acc.Mul(p)
		}
		return acc, nil
	case *gosymbol.Pow:
		k, ok := e.ExpExpr().(*gosymbol.Num)
		if !ok || !k.IsInteger() || k.IsNegative() || !k.Rat().Num().IsInt64() {
			return Poly{}, fmt.Errorf("gibbs: %v is not a polynomial power", e)
		}
		base, err := compile(e.Base(), n, index)
		if err != nil {
			return Poly{}, err
		}
		return base.Pow(int(k.Rat().Num().Int64())), nil
	}
	return Poly{}, fmt.Errorf("gibbs: %v is not a polynomial", e)
}
