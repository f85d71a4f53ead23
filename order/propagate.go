// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Mask selects the outputs of Derive.
type Mask uint8

const (
	// MaskG the value of G.
	MaskG Mask = 1 << iota
	// MaskDG dG/du.
	MaskDG
	// MaskD2G d²G/du².
	MaskD2G
	// MaskD3G d³G/du³.
	MaskD3G
	// MaskDS ds*/du.
	MaskDS
	// MaskD2S d²s*/du².
	MaskD2S
)

// Props holds total derivatives along the equilibrium ordering state, with
// respect to u = (r, t, p). Only the fields selected by the mask are set.
//
//	DG[i]               dG/duᵢ
//	D2G[i*NU+j]         d²G/duᵢduⱼ
//	D3G[(i*NU+j)*NU+k]  d³G/duᵢduⱼduₖ
//	DS[a*NU+i]          dsₐ/duᵢ
//	D2S[(a*NU+i)*NU+j]  d²sₐ/duᵢduⱼ
type Props struct {
	NS, NU int
	S      []float64
	G      float64
	DG     []float64
	D2G    []float64
	D3G    []float64
	DS     []float64
	D2S    []float64
}

// IdxT returns the index of t in u.
func (p *Props) IdxT() int { return p.NU - 2 }

// IdxP returns the index of p in u.
func (p *Props) IdxP() int { return p.NU - 1 }

// Derive equilibrates at (t, p, r) and propagates the implicit solution s*(u)
// into the derivatives selected by mask. The chain rule uses
//
//	ds/du = -H⁻¹ G_su                         H = G_ss
//	d²G/du² = G_uu + G_us ds/du
//	d³G/du³ = Σ G_xyz J_xi J_yj J_zk            J = dz/du = [ds/du; I]
//	d²s/du² = -H⁻¹ Σ G_sxy J_xi J_yj
//
// which hold at a stationary point where G_s = 0. Components held at a bound
// are propagated by the same formulas.
//
// Props is nil when the input is rejected. Outputs needing H⁻¹ are left nil
// when the Hessian is singular.
func (o *Solver) Derive(t, p float64, r []float64, mask Mask, w *Workspace) (*Props, *Result) {
	res := o.Solve(t, p, r, w)
	if res.Status == BadInput {
		return nil, res
	}

	ns, nr := o.ns, o.nr
	nu, nz := nr+2, ns+nr+2

	order := 0
	switch {
	case mask&(MaskD3G|MaskD2S) != 0:
		order = 3
	case mask&(MaskD2G|MaskDS) != 0:
		order = 2
	case mask&MaskDG != 0:
		order = 1
	}
	d := driver{solver: o, workspace: w, t: t, p: p, r: r}
	d.evaluate(w.s, order)
	tay := w.tay

	props := &Props{NS: ns, NU: nu, S: slices.Clone(w.s), G: tay.F}
	if order >= 1 {
		props.DG = slices.Clone(tay.G[ns:])
	}
	if order < 2 || !w.fac.ok {
		return props.filter(mask), res
	}

	// S1 = -H⁻¹ G_su
	gsu := mat.NewDense(ns, nu, nil)
	for a := 0; a < ns; a++ {
		for i := 0; i < nu; i++ {
			gsu.Set(a, i, tay.At2(a, ns+i))
		}
	}
	s1 := mat.NewDense(ns, nu, nil)
	if err := w.fac.solve(s1, gsu); err != nil {
		return props.filter(mask), res
	}
	s1.Scale(-1, s1)
	props.DS = slices.Clone(s1.RawMatrix().Data)

	// J = dz/du
	jac := make([]float64, nz*nu)
	copy(jac, props.DS)
	for i := 0; i < nu; i++ {
		jac[(ns+i)*nu+i] = one
	}

	props.D2G = make([]float64, nu*nu)
	for i := 0; i < nu; i++ {
		for j := i; j < nu; j++ {
			v := tay.At2(ns+i, ns+j)
			for a := 0; a < ns; a++ {
				v += tay.At2(ns+i, a) * props.DS[a*nu+j]
			}
			props.D2G[i*nu+j] = v
			props.D2G[j*nu+i] = v
		}
	}
	if order < 3 {
		return props.filter(mask), res
	}

	// A1[x][y][k] = Σ_z G_xyz J_zk
	a1 := make([]float64, nz*nz*nu)
	for x := 0; x < nz; x++ {
		for y := x; y < nz; y++ {
			for k := 0; k < nu; k++ {
				v := zero
				for z := 0; z < nz; z++ {
					if jz := jac[z*nu+k]; jz != zero {
						v += tay.At3(x, y, z) * jz
					}
				}
				a1[(x*nz+y)*nu+k] = v
				a1[(y*nz+x)*nu+k] = v
			}
		}
	}

	// A2[x][j][k] = Σ_y A1[x][y][k] J_yj
	a2 := make([]float64, nz*nu*nu)
	for x := 0; x < nz; x++ {
		for j := 0; j < nu; j++ {
			for k := 0; k < nu; k++ {
				v := zero
				for y := 0; y < nz; y++ {
					if jy := jac[y*nu+j]; jy != zero {
						v += a1[(x*nz+y)*nu+k] * jy
					}
				}
				a2[(x*nu+j)*nu+k] = v
			}
		}
	}

	props.D3G = make([]float64, nu*nu*nu)
	for i := 0; i < nu; i++ {
		for j := 0; j < nu; j++ {
			for k := 0; k < nu; k++ {
				v := zero
				for x := 0; x < nz; x++ {
					if jx := jac[x*nu+i]; jx != zero {
						v += jx * a2[(x*nu+j)*nu+k]
					}
				}
				props.D3G[(i*nu+j)*nu+k] = v
			}
		}
	}

	// S2 = -H⁻¹ A2[s]
	rhs := mat.NewDense(ns, nu*nu, slices.Clone(a2[:ns*nu*nu]))
	s2 := mat.NewDense(ns, nu*nu, nil)
	if err := w.fac.solve(s2, rhs); err == nil {
		s2.Scale(-1, s2)
		props.D2S = s2.RawMatrix().Data
	}
	return props.filter(mask), res
}

// filter drops the outputs not selected by mask.
func (p *Props) filter(mask Mask) *Props {
	if mask&MaskG == 0 {
		p.G = zero
	}
	if mask&MaskDG == 0 {
		p.DG = nil
	}
	if mask&MaskD2G == 0 {
		p.D2G = nil
	}
	if mask&MaskD3G == 0 {
		p.D3G = nil
	}
	if mask&MaskDS == 0 {
		p.DS = nil
	}
	if mask&MaskD2S == 0 {
		p.D2S = nil
	}
	return p
}
