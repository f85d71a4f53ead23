// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

const (
	zero = 0.0
	one  = 1.0
	ten  = 10.0
	eps  = float64(7)/3 - float64(4)/3 - 1.

	// startScale shrinks the initial guess away from the disordered state s = 0
	// and from the bounds, keeping iteration counts low across nearby solves.
	startScale = 0.9
	// simplexSlack admits compositions whose sum exceeds one by round-off.
	simplexSlack = 1e-12
)

// Status is the outcome of an equilibration solve.
type Status int

const (
	// Converged the largest ordering step fell below the step tolerance.
	Converged Status = iota
	// IterLimit the iteration cap was reached; the best estimate is returned.
	IterLimit
	// Singular the Hessian could not be factorized; the best estimate is returned.
	Singular
	// BadInput t, p or r lie outside the physical domain; nothing was solved.
	BadInput
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "CONVERGENCE: MAX_ORDERING_STEP_<=_TOL*EPSMCH"
	case IterLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case Singular:
		return "ABNORMAL_TERMINATION: SINGULAR_HESSIAN"
	case BadInput:
		return "ERROR: INPUT OUTSIDE PHYSICAL DOMAIN"
	default:
		return "UNKNOWN STATUS"
	}
}
