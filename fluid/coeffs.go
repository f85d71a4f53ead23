// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"math"

	"gonum.org/v1/gonum/num/hyperdual"
)

type number = hyperdual.Number

// species holds the Duan–Zhang parameters of one endmember:
// a₁…a₁₂ of the virial coefficients, α of F, β and γ of the exponential term.
type species struct {
	a                  [12]float64
	alpha, beta, gamma float64
}

// paramSet is one pressure range of the equation of state.
// The interaction terms are kᵢ(t) = c₀ + c₁·t + c₂·t² + c₃/t.
type paramSet struct {
	sp     [na]species
	k1, k2 [4]float64
	k3     float64
}

// lowP applies up to 2000 bar.
var lowP = paramSet{
	sp: [na]species{
		h2o: {
			a: [12]float64{
				4.38269941e-02, -1.68244362e-01, -2.36923373e-01,
				1.13027462e-02, -7.67764181e-02, 9.71820593e-02,
				6.62674916e-05, 1.06637349e-03, -1.23265258e-03,
				-8.93953948e-06, -3.88124606e-05, 5.61510206e-05,
			},
			alpha: 7.51274488e-03, beta: 2.51598931e+00, gamma: 3.94000000e-02,
		},
		co2: {
			a: [12]float64{
				1.14400435e-01, -9.38526684e-01, 7.21857006e-01,
				8.81072902e-03, 6.36473911e-02, -7.70822213e-02,
				9.01506064e-04, -6.81834166e-03, 7.32364258e-03,
				-1.10288237e-04, 1.26524193e-03, -1.49730823e-03,
			},
			alpha: 7.81940730e-03, beta: -4.22918013e+00, gamma: 1.58500000e-01,
		},
	},
	k1: [4]float64{3.131, -5.0624e-3, 1.8641e-6, -31.409},
	k2: [4]float64{-46.646, 4.2877e-2, -1.0892e-5, 1.5782e4},
	k3: 0.9,
}

// highP applies above 2000 bar.
var highP = paramSet{
	sp: [na]species{
		h2o: {
			a: [12]float64{
				4.68071541e-02, -2.81275941e-01, -2.43926365e-01,
				1.10016958e-02, -3.86603525e-02, 9.30095461e-02,
				-1.15747171e-05, 4.19873848e-04, -5.82739501e-04,
				1.00936000e-06, -1.01713593e-05, 1.63934213e-05,
			},
			alpha: -4.49505919e-02, beta: -3.15028174e-01, gamma: 1.25000000e-02,
		},
		co2: {
			a: [12]float64{
				5.72573440e-03, 7.94836769e+00, -3.84236281e+01,
				3.71600369e-02, -1.92888994e+00, 6.64254770e+00,
				-7.02203950e-06, 1.77093234e-02, -4.81892026e-02,
				3.88344869e-06, -5.54833167e-04, 1.70489748e-03,
			},
			alpha: -4.13039220e-01, beta: -8.47988634e+00, gamma: 2.80000000e-02,
		},
	},
	k1: [4]float64{9.034, -7.9212e-3, 2.3285e-6, -2.4221e3},
	k2: [4]float64{-1.068, 1.8756e-3, -4.9371e-7, 6.6180e2},
	k3: 1.0,
}

// Critical constants.
var (
	tcrit = [na]float64{h2o: 647.25, co2: 304.1282}
	pcrit = [na]float64{h2o: 221.19, co2: 73.773}
)

// vcrit returns the critical volume scale R·Tc/Pc.
func vcrit(i int) float64 {
	return gasEOS * tcrit[i] / pcrit[i]
}

// coeffs are the mixed coefficients of the compressibility factor, each
// scaled by the matching power of the critical volume, together with their
// partials with respect to the mole fraction of each endmember.
type coeffs struct {
	b, c, d, e, f, beta, gamma number
	pb, pc, pd, pe, pf         [na]number
	pbeta, pgamma              [na]number
}

func constant(v float64) number {
	return number{Real: v}
}

// cbrt is the real cube root, odd in its argument.
func cbrt(x number) number {
	f := math.Cbrt(x.Real)
	d1 := 1 / (3 * f * f)
	d2 := -2 / (9 * f * f * f * f * f)
	return number{
		Real:    f,
		E1mag:   x.E1mag * d1,
		E2mag:   x.E2mag * d1,
		E1E2mag: x.E1E2mag*d1 + x.E1mag*x.E2mag*d2,
	}
}

func ipow(x number, k int) number {
	r := constant(1)
	for ; k > 0; k-- {
		r = hyperdual.Mul(r, x)
	}
	return r
}

// powSum is the cube-root mean ((fa·∛a + fb·∛b)/(fa + fb))³.
func powSum(a number, fa float64, b number, fb float64) number {
	s := hyperdual.Scale(1/(fa+fb), hyperdual.Add(hyperdual.Scale(fa, cbrt(a)), hyperdual.Scale(fb, cbrt(b))))
	return ipow(s, 3)
}

// reduced returns c₀ + c₂/tr² + c₃/tr³.
func reduced(c0, c2, c3 float64, tr number) number {
	inv := hyperdual.Inv(tr)
	inv2 := hyperdual.Mul(inv, inv)
	return hyperdual.Add(constant(c0), hyperdual.Add(
		hyperdual.Scale(c2, inv2),
		hyperdual.Scale(c3, hyperdual.Mul(inv2, inv))))
}

// interaction returns c₀ + c₁·t + c₂·t² + c₃/t.
func interaction(c [4]float64, t number) number {
	return hyperdual.Add(
		hyperdual.Add(constant(c[0]), hyperdual.Scale(c[1], t)),
		hyperdual.Add(hyperdual.Scale(c[2], hyperdual.Mul(t, t)), hyperdual.Scale(c[3], hyperdual.Inv(t))))
}

// mix combines endmember values into a homogeneous form of degree n in x:
//
//	K = Σₖ C(n,k)·wₖ·powSum(K₀,k; K₁,n-k)·powSum(Vc₀,k; Vc₁,n-k)^q·x₀ᵏ·x₁ⁿ⁻ᵏ
//
// where wₖ is the interaction term for the cross terms and 1 otherwise.
// It also returns ∂K/∂xᵢ with the mole fractions taken as independent.
func mix(n, q int, end [na]number, inter number, x [na]number) (k number, prime [na]number) {
	binom := 1.0
	for i := 0; i <= n; i++ {
		j := n - i
		pv := powSum(constant(vcrit(h2o)), float64(i), constant(vcrit(co2)), float64(j))
		w := hyperdual.Scale(binom*math.Pow(pv.Real, float64(q)), powSum(end[h2o], float64(i), end[co2], float64(j)))
		if i > 0 && j > 0 {
			w = hyperdual.Mul(w, inter)
		}
		k = hyperdual.Add(k, hyperdual.Mul(w, hyperdual.Mul(ipow(x[h2o], i), ipow(x[co2], j))))
		if i > 0 {
			d := hyperdual.Mul(ipow(x[h2o], i-1), ipow(x[co2], j))
			prime[h2o] = hyperdual.Add(prime[h2o], hyperdual.Mul(hyperdual.Scale(float64(i), w), d))
		}
		if j > 0 {
			d := hyperdual.Mul(ipow(x[h2o], i), ipow(x[co2], j-1))
			prime[co2] = hyperdual.Add(prime[co2], hyperdual.Mul(hyperdual.Scale(float64(j), w), d))
		}
		binom = binom * float64(n-i) / float64(i+1)
	}
	return
}

// coeffsAt evaluates the mixed coefficients at temperature t and mole
// fraction xc of CO2.
func coeffsAt(set *paramSet, t, xc number) *coeffs {
	x := [na]number{h2o: hyperdual.Sub(constant(1), xc), co2: xc}
	var tr [na]number
	for i := range tr {
		tr[i] = hyperdual.Scale(1/tcrit[i], t)
	}
	end := func(f func(sp *species, tr number) number) (e [na]number) {
		for i := range e {
			e[i] = f(&set.sp[i], tr[i])
		}
		return
	}
	one := constant(1)

	c := &coeffs{}
	c.b, c.pb = mix(2, 1, end(func(sp *species, tr number) number {
		return reduced(sp.a[0], sp.a[1], sp.a[2], tr)
	}), interaction(set.k1, t), x)
	c.c, c.pc = mix(3, 2, end(func(sp *species, tr number) number {
		return reduced(sp.a[3], sp.a[4], sp.a[5], tr)
	}), interaction(set.k2, t), x)
	c.d, c.pd = mix(5, 4, end(func(sp *species, tr number) number {
		return reduced(sp.a[6], sp.a[7], sp.a[8], tr)
	}), one, x)
	c.e, c.pe = mix(6, 5, end(func(sp *species, tr number) number {
		return reduced(sp.a[9], sp.a[10], sp.a[11], tr)
	}), one, x)
	c.f, c.pf = mix(2, 2, end(func(sp *species, tr number) number {
		return reduced(0, 0, sp.alpha, tr)
	}), one, x)
	c.gamma, c.pgamma = mix(3, 2, end(func(sp *species, _ number) number {
		return constant(sp.gamma)
	}), constant(set.k3), x)

	for i := range x {
		c.pbeta[i] = constant(set.sp[i].beta)
		c.beta = hyperdual.Add(c.beta, hyperdual.Scale(set.sp[i].beta, x[i]))
	}
	return c
}
