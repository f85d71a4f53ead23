// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rhm

import (
	"errors"
	"fmt"

	"github.com/curioloop/thermix/order"
	"github.com/curioloop/thermix/phase"
)

// DefaultExclusion is the mole-fraction threshold below which an endmember
// is excluded when a request asks for it.
const DefaultExclusion = 0.05

var endmembers = []phase.Endmember{
	{Name: "geikielite", Formula: "MgTiO3"},
	{Name: "hematite", Formula: "Fe2O3"},
	{Name: "ilmenite", Formula: "FeTiO3"},
	{Name: "pyrophanite", Formula: "MnTiO3"},
}

// Config specifies the tunable behavior of the phase.
type Config struct {
	// Exclusion thresholds per endmember in canonical order.
	// Nil selects DefaultExclusion for every endmember.
	Exclusion []float64
	// Stop condition of the ordering solvers.
	Stop order.Termination
}

// Phase is the rhombohedral oxide solution.
type Phase struct {
	solver *order.Solver
	stop   order.Termination
	excl   phase.Exclusion
	logger phase.Logger
}

var _ phase.Phase = (*Phase)(nil)

// New creates the phase. A nil config selects the defaults.
func New(cfg *Config, logger *phase.Logger) (ph *Phase, err error) {
	if cfg == nil {
		cfg = &Config{}
	}

	excl := cfg.Exclusion
	if excl == nil {
		excl = []float64{DefaultExclusion, DefaultExclusion, DefaultExclusion, DefaultExclusion}
	}
	switch {
	case len(excl) != na:
		err = fmt.Errorf("exclusion needs %d thresholds, got %d", na, len(excl))
	default:
		for i, v := range excl {
			if !(v >= 0 && v <= 1) {
				err = fmt.Errorf("exclusion threshold of %s out of range [0, 1]: %g", endmembers[i].Name, v)
				break
			}
		}
	}
	if err != nil {
		return
	}

	prob := order.Problem{Model: energy{newEnergy()}, Stop: cfg.Stop}
	solver, err := prob.New(logger)
	if err != nil {
		return nil, errors.Join(errors.New("rhm: invalid ordering solver"), err)
	}

	ph = &Phase{
		solver: solver,
		stop:   solver.Termination(),
		excl:   phase.Exclusion{Threshold: append([]float64(nil), excl...)},
		logger: phase.Resolve(logger),
	}
	return
}

func (ph *Phase) Name() string { return "rhombohedral" }

func (ph *Phase) Endmembers() []phase.Endmember {
	return append([]phase.Endmember(nil), endmembers...)
}

func (ph *Phase) NR() int { return nr }

// Init allocates a Workspace.
func (ph *Phase) Init() phase.Evaluator {
	return ph.Workspace()
}

// Workspace allocate the evaluation caches of the phase.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
func (ph *Phase) Workspace() *Workspace {
	return &Workspace{ph: ph, ord: ph.solver.Init()}
}

// Workspace evaluates the phase and carries the ordering caches of both the
// solution and its pure endmembers.
type Workspace struct {
	ph   *Phase
	ord  *order.Workspace
	pure pureCache
	last order.Summary
}

var _ phase.Evaluator = (*Workspace)(nil)

// Status returns the summary of the most recent ordering solve of the solution.
func (w *Workspace) Status() order.Summary {
	return w.last
}

// Reset drops every cached ordering state.
func (w *Workspace) Reset() {
	w.ord.Reset()
	w.pure.valid = false
}
