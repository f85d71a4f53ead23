// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import "fmt"

// Basis identifies the input of a composition conversion.
type Basis int

const (
	// Moles of endmember components, NA entries.
	Moles Basis = iota
	// Comp is the independent compositional variables r, NR entries.
	Comp
)

// Output selects the results of a composition conversion.
type Output uint8

const (
	// OutR independent compositional variables r.
	OutR Output = 1 << iota
	// OutX endmember mole fractions.
	OutX
	// OutDRDM dr/dm at [i*NA+j].
	OutDRDM
	// OutD2RDM2 d²r/dm² at [(i*NA+j)*NA+k].
	OutD2RDM2
	// OutD3RDM3 d³r/dm³ at [((i*NA+j)*NA+k)*NA+l].
	OutD3RDM3
	// OutDXDR dx/dr at [i*NR+j].
	OutDXDR
)

// Conversion holds the outputs of a composition conversion.
// Only the requested fields are set.
type Conversion struct {
	R      []float64
	X      []float64
	DRDM   []float64
	D2RDM2 []float64
	D3RDM3 []float64
	DXDR   []float64
}

// CheckConversion returns an error wrapping ErrIllegalRequest unless the
// outputs out can be derived from basis in. Moles accept every output
// except OutDXDR; Comp accepts OutX and OutDXDR.
func CheckConversion(in Basis, out Output) error {
	var allowed Output
	switch in {
	case Moles:
		allowed = OutR | OutX | OutDRDM | OutD2RDM2 | OutD3RDM3
	case Comp:
		allowed = OutX | OutDXDR
	default:
		return fmt.Errorf("%w: unknown basis %d", ErrIllegalRequest, in)
	}
	if extra := out &^ allowed; extra != 0 {
		return fmt.Errorf("%w: conversion from basis %d cannot provide outputs %#x",
			ErrIllegalRequest, in, uint8(extra))
	}
	return nil
}

// FromMoles converts endmember moles m for a phase whose rᵢ is the mole
// fraction of endmember src[i]. An empty composition yields zeros.
func FromMoles(m []float64, src []int, out Output) *Conversion {
	na, nr := len(m), len(src)
	sum := 0.0
	for _, mi := range m {
		sum += mi
	}
	share := func(v float64) float64 {
		if sum == 0 {
			return 0
		}
		return v / sum
	}

	c := &Conversion{}
	if out&OutR != 0 {
		c.R = make([]float64, nr)
		for i, e := range src {
			c.R[i] = share(m[e])
		}
	}
	if out&OutX != 0 {
		c.X = make([]float64, na)
		for i := range c.X {
			c.X[i] = share(m[i])
		}
	}
	if out&OutDRDM != 0 {
		c.DRDM = make([]float64, nr*na)
	}
	if out&OutD2RDM2 != 0 {
		c.D2RDM2 = make([]float64, nr*na*na)
	}
	if out&OutD3RDM3 != 0 {
		c.D3RDM3 = make([]float64, nr*na*na*na)
	}
	if sum == 0 {
		// derivatives of an empty composition are left zero
		return c
	}

	s2, s3, s4 := sum*sum, sum*sum*sum, sum*sum*sum*sum
	delta := func(a, b int) float64 {
		if a == b {
			return 1
		}
		return 0
	}
	for i, e := range src {
		for j := 0; j < na; j++ {
			if c.DRDM != nil {
				c.DRDM[i*na+j] = delta(j, e)/sum - m[e]/s2
			}
			for k := 0; k < na; k++ {
				if c.D2RDM2 != nil {
					c.D2RDM2[(i*na+j)*na+k] = 2*m[e]/s3 - (delta(j, e)+delta(k, e))/s2
				}
				if c.D3RDM3 == nil {
					continue
				}
				for l := 0; l < na; l++ {
					n := delta(j, e) + delta(k, e) + delta(l, e)
					c.D3RDM3[((i*na+j)*na+k)*na+l] = -6*m[e]/s4 + 2*n/s3
				}
			}
		}
	}
	return c
}
