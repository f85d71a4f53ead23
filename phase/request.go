// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"errors"
	"fmt"
	"strings"
)

// Request selects the outputs an accessor should compute.
type Request uint32

const (
	// Value the property itself (activities for Activity).
	Value Request = 1 << iota
	// ChemPot chemical potentials (Activity only).
	ChemPot
	// DR first derivative with respect to the independent compositional variables.
	DR
	// DR2 second derivative with respect to composition.
	DR2
	// DR3 third derivative with respect to composition.
	DR3
	// DT derivative with respect to temperature.
	DT
	// DP derivative with respect to pressure.
	DP
	// DT2 second derivative with respect to temperature.
	DT2
	// DTDP mixed derivative with respect to temperature and pressure.
	DTDP
	// DP2 second derivative with respect to pressure.
	DP2
	// DRDT mixed derivative with respect to composition and temperature.
	DRDT
	// DRDP mixed derivative with respect to composition and pressure.
	DRDP
	// Exclude applies the dilute-limit exclusion policy.
	Exclude
)

var requestNames = [...]string{
	"Value", "ChemPot", "DR", "DR2", "DR3", "DT", "DP",
	"DT2", "DTDP", "DP2", "DRDT", "DRDP", "Exclude",
}

// Has reports whether all bits of q are requested.
func (r Request) Has(q Request) bool {
	return r&q == q
}

// String lists the requested outputs.
func (r Request) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for i, name := range requestNames {
		if r&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := r &^ (1<<len(requestNames) - 1); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ErrIllegalRequest reports a request that the accessor cannot serve.
var ErrIllegalRequest = errors.New("illegal output request")

// ErrDomain reports inputs outside the physical domain (t ≤ 0, p ≤ 0 or non-finite values).
var ErrDomain = errors.New("input outside physical domain")

// ErrNoSolution reports a state whose solve did not produce finite values.
var ErrNoSolution = errors.New("no finite solution")

// Check returns an error wrapping ErrIllegalRequest when req asks for
// anything outside allowed.
func Check(accessor string, req, allowed Request) error {
	if extra := req &^ allowed; extra != 0 {
		return fmt.Errorf("%w: %s does not provide %v", ErrIllegalRequest, accessor, extra)
	}
	return nil
}
