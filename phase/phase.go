// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phase defines the contract shared by every solution phase:
// the request masks selecting outputs, the result layouts, the dilute-limit
// exclusion policy and the diagnostic logger.
package phase

// Endmember names a pure component of a phase.
type Endmember struct {
	Name    string
	Formula string
}

// Phase is a solution phase. A Phase is immutable and may be shared by
// goroutines; each goroutine evaluates properties through its own Evaluator.
type Phase interface {
	// Name returns the phase name.
	Name() string
	// Endmembers returns the endmember components in canonical order.
	Endmembers() []Endmember
	// NR returns the number of independent compositional variables.
	NR() int
	// MoleFractions converts independent compositional variables r into
	// endmember mole fractions x.
	MoleFractions(r, x []float64)
	// Test checks r against its bounds and m for non-negativity.
	Test(r, m []float64) bool
	// Display renders a structural formula for composition r.
	Display(r []float64) string
	// Init allocates an Evaluator bound to the caller's goroutine.
	Init() Evaluator
}

// Evaluator computes mixing properties. It owns the per-goroutine caches
// and must not be shared between goroutines.
type Evaluator interface {
	// Activity computes activities (Value), chemical potentials (ChemPot)
	// and d(a)/d(r) (DR); Exclude applies the exclusion policy.
	Activity(t, p float64, r []float64, req Request) (*Activity, error)
	// Gmix computes the Gibbs energy of mixing and its r-derivatives.
	Gmix(t, p float64, r []float64, req Request) (*Mixing, error)
	// Hmix computes the enthalpy of mixing.
	Hmix(t, p float64, r []float64, req Request) (*Mixing, error)
	// Smix computes the entropy of mixing and its r-derivatives.
	Smix(t, p float64, r []float64, req Request) (*Mixing, error)
	// Cpmix computes the heat capacity of mixing, d/dt and d/dr.
	Cpmix(t, p float64, r []float64, req Request) (*Mixing, error)
	// Vmix computes the volume of mixing and its r, t, p derivatives.
	Vmix(t, p float64, r []float64, req Request) (*Mixing, error)
}

// Activity holds the outputs of Evaluator.Activity.
type Activity struct {
	A  []float64 // activities, NA
	Mu []float64 // chemical potentials, NA
	DA []float64 // d(a[i])/d(r[j]) at [i*NR+j]
}

// Mixing holds the outputs of the mixing-property accessors.
// Only the requested fields are populated.
// Layouts: DR[i], DR2[i*NR+j], DR3[(i*NR+j)*NR+k].
type Mixing struct {
	Value float64
	DR    []float64
	DR2   []float64
	DR3   []float64
	DT    float64
	DP    float64
	DT2   float64
	DTDP  float64
	DP2   float64
	DRDT  []float64
	DRDP  []float64
}

// Exclusion zeroes activity outputs of endmembers whose mole fraction
// falls strictly below Threshold[i].
type Exclusion struct {
	Threshold []float64
}

// Excluded reports whether endmember i is excluded at mole fractions x.
func (e *Exclusion) Excluded(i int, x []float64) bool {
	if i >= len(e.Threshold) {
		return false
	}
	return x[i] < e.Threshold[i]
}

// Apply zeroes the outputs of excluded endmembers in place.
func (e *Exclusion) Apply(x []float64, nr int, act *Activity) {
	for i := range x {
		if !e.Excluded(i, x) {
			continue
		}
		if act.A != nil {
			act.A[i] = 0
		}
		if act.Mu != nil {
			act.Mu[i] = 0
		}
		if act.DA != nil {
			for j := 0; j < nr; j++ {
				act.DA[i*nr+j] = 0
			}
		}
	}
}
