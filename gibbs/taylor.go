// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gibbs

// Taylor holds a scalar value and its partial derivatives up to third order
// with respect to N variables. Tensors are dense and row-major:
//
//	G[i]            ∂f/∂zᵢ
//	H[i*N+j]        ∂²f/∂zᵢ∂zⱼ
//	T[(i*N+j)*N+k]  ∂³f/∂zᵢ∂zⱼ∂zₖ
type Taylor struct {
	N     int
	Order int // highest order filled by the last evaluation
	F     float64
	G     []float64
	H     []float64
	T     []float64
}

// NewTaylor allocates storage for derivatives up to third order.
func NewTaylor(n int) *Taylor {
	return &Taylor{
		N: n,
		G: make([]float64, n),
		H: make([]float64, n*n),
		T: make([]float64, n*n*n),
	}
}

// Reset zeroes all tensors up to the given order.
func (d *Taylor) Reset(order int) {
	d.Order = order
	d.F = 0
	if order >= 1 {
		clear(d.G)
	}
	if order >= 2 {
		clear(d.H)
	}
	if order >= 3 {
		clear(d.T)
	}
}

// At2 returns ∂²f/∂zᵢ∂zⱼ.
func (d *Taylor) At2(i, j int) float64 {
	return d.H[i*d.N+j]
}

// At3 returns ∂³f/∂zᵢ∂zⱼ∂zₖ.
func (d *Taylor) At3(i, j, k int) float64 {
	return d.T[(i*d.N+j)*d.N+k]
}

// set2 stores a symmetric second derivative.
func (d *Taylor) set2(i, j int, v float64) {
	n := d.N
	d.H[i*n+j] = v
	d.H[j*n+i] = v
}

// set3 stores a symmetric third derivative in all six permutations.
func (d *Taylor) set3(i, j, k int, v float64) {
	n := d.N
	d.T[(i*n+j)*n+k] = v
	d.T[(i*n+k)*n+j] = v
	d.T[(j*n+i)*n+k] = v
	d.T[(j*n+k)*n+i] = v
	d.T[(k*n+i)*n+j] = v
	d.T[(k*n+j)*n+i] = v
}
