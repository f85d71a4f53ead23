// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"math"

	"gonum.org/v1/gonum/num/hyperdual"
)

const (
	// gasEOS is the gas constant the equation of state was fitted with.
	gasEOS = 8.314467
	// boundary is the pressure in bar separating the two coefficient sets.
	boundary = 2000.0
	// volumeTol scales machine epsilon in the volume convergence test.
	volumeTol = 100
)

var eps = math.Nextafter(1, 2) - 1

// Status is the outcome of a volume solve.
type Status int

const (
	// Converged the fixed point moved less than volumeTol·ε·v.
	Converged Status = iota
	// IterLimit the iteration cap was reached; the last iterate is returned.
	IterLimit
	// BadInput t, p or r lie outside the physical domain; nothing was solved.
	BadInput
	// Diverged the iteration left the positive finite volumes.
	Diverged
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "CONVERGENCE: REL_VOLUME_CHANGE_<=_100*EPSMCH"
	case IterLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case BadInput:
		return "ERROR: INPUT OUTSIDE PHYSICAL DOMAIN"
	case Diverged:
		return "ABNORMAL_TERMINATION: VOLUME NOT FINITE AND POSITIVE"
	default:
		return "UNKNOWN STATUS"
	}
}

func sum(xs ...number) (s number) {
	for _, x := range xs {
		s = hyperdual.Add(s, x)
	}
	return
}

func prod(xs ...number) number {
	p := constant(1)
	for _, x := range xs {
		p = hyperdual.Mul(p, x)
	}
	return p
}

func div(a, b number) number {
	return hyperdual.Mul(a, hyperdual.Inv(b))
}

// z evaluates the compressibility factor
//
//	Z = 1 + B/v + C/v² + D/v⁴ + E/v⁵ + F/v²·(β + γ/v²)·exp(-γ/v²)
func (c *coeffs) z(v number) number {
	iv := hyperdual.Inv(v)
	iv2 := hyperdual.Mul(iv, iv)
	iv4 := hyperdual.Mul(iv2, iv2)
	gv := hyperdual.Mul(c.gamma, iv2)
	return sum(
		constant(1),
		hyperdual.Mul(c.b, iv),
		hyperdual.Mul(c.c, iv2),
		hyperdual.Mul(c.d, iv4),
		prod(c.e, iv4, iv),
		prod(c.f, iv2, hyperdual.Add(c.beta, gv), hyperdual.Exp(hyperdual.Scale(-1, gv))),
	)
}

// potential evaluates the volume-dependent part of ln φᵢ excluding -ln Z.
// It vanishes as v → ∞.
func (c *coeffs) potential(i int, v number) number {
	iv := hyperdual.Inv(v)
	iv2 := hyperdual.Mul(iv, iv)
	iv4 := hyperdual.Mul(iv2, iv2)
	gv := hyperdual.Mul(c.gamma, iv2)
	e := hyperdual.Exp(hyperdual.Scale(-1, gv))
	g2 := hyperdual.Scale(2, hyperdual.Mul(c.gamma, c.gamma))
	dg := hyperdual.Sub(c.pgamma[i], c.gamma)

	t1 := prod(
		div(sum(hyperdual.Mul(c.pf[i], c.beta), hyperdual.Mul(c.pbeta[i], c.f)), hyperdual.Scale(2, c.gamma)),
		hyperdual.Sub(constant(1), e))
	t2 := prod(
		div(sum(
			hyperdual.Mul(c.pf[i], c.gamma),
			hyperdual.Mul(c.pgamma[i], c.f),
			hyperdual.Scale(-1, prod(c.f, c.beta, dg))), g2),
		hyperdual.Sub(constant(1), prod(hyperdual.Add(gv, constant(1)), e)))
	t3 := prod(
		div(hyperdual.Mul(dg, c.f), g2),
		hyperdual.Sub(
			prod(sum(hyperdual.Mul(gv, gv), hyperdual.Scale(2, gv), constant(2)), e),
			constant(2)))

	return sum(
		hyperdual.Mul(c.pb[i], iv),
		hyperdual.Scale(0.5, hyperdual.Mul(c.pc[i], iv2)),
		hyperdual.Scale(0.25, hyperdual.Mul(c.pd[i], iv4)),
		hyperdual.Scale(0.2, prod(c.pe[i], iv4, iv)),
		t1, t2, t3,
	)
}

// solution is the outcome of a fixed-point volume solve.
type solution struct {
	v      float64
	resid  float64 // |Z·R·t/p - v| / v at the returned volume
	iter   int
	status Status
}

// fixedPoint solves v = Z(v)·R·t/p by averaging each iterate with its image,
// v ← (v + Z(v)·R·t/p)/2, starting from the ideal-gas volume. An image that
// is not a finite positive volume stops the iteration with Diverged and the
// last valid iterate.
func fixedPoint(c *coeffs, t, p float64, maxIter int) solution {
	ideal := gasEOS * t / p
	s := solution{v: ideal, status: IterLimit}
	for ; s.iter < maxIter; s.iter++ {
		next := c.z(constant(s.v)).Real * ideal
		if !finite(next) || next <= 0 {
			s.resid = math.Inf(1)
			s.status = Diverged
			break
		}
		s.resid = math.Abs(next-s.v) / s.v
		if s.resid < volumeTol*eps {
			s.status = Converged
			break
		}
		s.v = (s.v + next) / 2
	}
	return s
}

// implicitVolume lifts the solved volume v0 into hyper-dual arithmetic so
// that its dual parts carry dv/dθ₁, dv/dθ₂ and d²v/dθ₁dθ₂ for whatever the
// dual parts of the coefficients, t and p are seeded with. It differentiates
// the residual ln p + ln v - ln Z(v) - ln(R·t) = 0 implicitly.
func implicitVolume(c *coeffs, t, p number, v0 float64) number {
	lnRT := hyperdual.Log(hyperdual.Scale(gasEOS, t))
	lnP := hyperdual.Log(p)
	resid := func(v number) number {
		return sum(lnP, hyperdual.Log(v), hyperdual.Scale(-1, hyperdual.Log(c.z(v))), hyperdual.Scale(-1, lnRT))
	}

	f := resid(constant(v0))
	fv := resid(number{Real: v0, E1mag: 1}).E1mag - f.E1mag
	v := number{Real: v0, E1mag: -f.E1mag / fv, E2mag: -f.E2mag / fv}
	v.E1E2mag = -resid(v).E1E2mag / fv
	return v
}

// volumes are the solved real volumes the state at (t, p, x) depends on.
// Above the boundary pressure the state is referenced to the low-pressure
// set solved at the boundary.
type volumes struct {
	high bool
	v    float64 // at p
	low  float64 // low-pressure set at the boundary
	ref  float64 // high-pressure set at the boundary
}

// eosAt evaluates volume, compressibility and fugacity coefficients at the
// possibly seeded state (t, p, x).
func eosAt(t, p, x number, vol *volumes) (v, z number, lnPhi [na]number) {
	if !vol.high {
		c := coeffsAt(&lowP, t, x)
		v = implicitVolume(c, t, p, vol.v)
		z = c.z(v)
		lnZ := hyperdual.Log(z)
		for i := range lnPhi {
			lnPhi[i] = hyperdual.Sub(c.potential(i, v), lnZ)
		}
		return
	}

	pb := constant(boundary)
	lo, hi := coeffsAt(&lowP, t, x), coeffsAt(&highP, t, x)
	vLow := implicitVolume(lo, t, pb, vol.low)
	vRef := implicitVolume(hi, t, pb, vol.ref)
	v = implicitVolume(hi, t, p, vol.v)
	z = hi.z(v)

	// ln φ = ln φ_low(boundary) + [ln φ_high(p) - ln φ_high(boundary)]
	shift := hyperdual.Sub(
		hyperdual.Log(hi.z(vRef)),
		hyperdual.Add(hyperdual.Log(z), hyperdual.Log(lo.z(vLow))))
	for i := range lnPhi {
		lnPhi[i] = sum(
			lo.potential(i, vLow),
			hi.potential(i, v),
			hyperdual.Scale(-1, hi.potential(i, vRef)),
			shift)
	}
	return
}
