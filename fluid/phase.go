// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fluid implements the H2O–CO2 fluid phase on the Duan–Zhang
// equation of state.
//
// The molar volume is the fixed point of v = Z(v)·R·t/p. Its derivatives,
// and those of the fugacity coefficients, follow from implicit
// differentiation of the residual ln p + ln v - ln Z(v) - ln(R·t),
// evaluated in hyper-dual arithmetic so that every first and second
// partial in (r, t, p) is exact at the solved volume.
//
// The single compositional variable r is the mole fraction of CO2.
package fluid

import (
	"fmt"

	"github.com/curioloop/thermix/phase"
)

// Gas is the gas constant in J/(mol·K) used for RT.
const Gas = 8.3143

const (
	na = 2
	nr = 1
	nu = nr + 2
)

// Endmember indices.
const (
	h2o = iota
	co2
)

// Index of r, t and p in u = (r, t, p).
const (
	ur = iota
	ut
	up
)

var endmembers = []phase.Endmember{
	{Name: "water", Formula: "H2O"},
	{Name: "carbon dioxide", Formula: "CO2"},
}

// Config specifies the tunable behavior of the phase.
type Config struct {
	// Exclusion thresholds per endmember in canonical order.
	// Nil disables exclusion.
	Exclusion []float64
	// MaxIterations caps every volume solve. Zero selects 100.
	MaxIterations int
}

// Phase is the H2O–CO2 fluid.
type Phase struct {
	maxIter int
	excl    phase.Exclusion
	logger  phase.Logger
}

var _ phase.Phase = (*Phase)(nil)

// New creates the phase. A nil config selects the defaults.
func New(cfg *Config, logger *phase.Logger) (*Phase, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Exclusion != nil && len(cfg.Exclusion) != na {
		return nil, fmt.Errorf("exclusion needs %d thresholds, got %d", na, len(cfg.Exclusion))
	}
	for i, v := range cfg.Exclusion {
		if !(v >= 0 && v <= 1) {
			return nil, fmt.Errorf("exclusion threshold of %s out of range [0, 1]: %g", endmembers[i].Name, v)
		}
	}
	maxIter := cfg.MaxIterations
	switch {
	case maxIter < 0:
		return nil, fmt.Errorf("fluid: max iterations must be non-negative: %d", maxIter)
	case maxIter == 0:
		maxIter = 100
	}

	return &Phase{
		maxIter: maxIter,
		excl:    phase.Exclusion{Threshold: append([]float64(nil), cfg.Exclusion...)},
		logger:  phase.Resolve(logger),
	}, nil
}

func (ph *Phase) Name() string { return "fluid" }

func (ph *Phase) Endmembers() []phase.Endmember {
	return append([]phase.Endmember(nil), endmembers...)
}

func (ph *Phase) NR() int { return nr }

// Init allocates a Workspace.
func (ph *Phase) Init() phase.Evaluator {
	return ph.Workspace()
}

// Workspace allocate the volume caches of the phase.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
func (ph *Phase) Workspace() *Workspace {
	return &Workspace{ph: ph}
}

// Workspace evaluates the phase and keeps the most recent states of the
// mixture and of the pure endmembers.
type Workspace struct {
	ph   *Phase
	mix  *State
	pure *[na]State
	last Summary
}

var _ phase.Evaluator = (*Workspace)(nil)

// Status returns the summary of the most recent evaluation. For the mixing
// accessors it folds in the pure-endmember solves the result depends on.
func (w *Workspace) Status() Summary {
	return w.last
}

// Reset drops every cached state.
func (w *Workspace) Reset() {
	w.mix, w.pure = nil, nil
}
