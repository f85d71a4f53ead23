package numdiff

import "math"

var (
	machEps = math.Nextafter(1, 2) - 1
	sqrtEps = math.Sqrt(machEps)
	cubeEps = math.Cbrt(machEps)
)

// initialSteps picks the unconstrained step for every variable.
func (jc *Jacobian) initialSteps(x0 []float64) {
	eps := sqrtEps
	if jc.Scheme == Central {
		eps = cubeEps
	}
	auto := func(v float64) float64 {
		return math.Copysign(eps, v) * math.Max(1, math.Abs(v))
	}

	for i, v := range x0 {
		switch {
		case jc.AbsStep == 0 && jc.RelStep == 0:
			jc.h[i] = auto(v)
		default:
			h := jc.AbsStep
			if h == 0 {
				h = math.Copysign(jc.RelStep, v) * math.Abs(v)
			}
			// a step lost to rounding falls back to the automatic choice
			if (v+h)-v == 0 {
				h = auto(v)
			}
			jc.h[i] = h
		}
	}
}

// fitBounds shrinks or flips steps so every evaluation stays feasible.
func (jc *Jacobian) fitBounds(x0 []float64) {
	h, side := jc.h, jc.oneSide
	clear(side)
	if jc.Scheme == Central {
		for i, v := range h {
			h[i] = math.Abs(v)
		}
	}
	if jc.Bounds == nil {
		return
	}

	for i, x := range x0 {
		lo, up := lower(jc.Bounds[i]), upper(jc.Bounds[i])
		below, above := x-lo, up-x

		if jc.Scheme == Forward {
			fits := math.Abs(h[i]) < math.Max(below, above)
			switch {
			case !fits && above >= below:
				h[i] = above
			case !fits:
				h[i] = -below
			case x+h[i] < lo || x+h[i] > up:
				h[i] = -h[i]
			}
			continue
		}

		if below >= h[i] && above >= h[i] {
			continue
		}
		if above >= below {
			h[i] = math.Min(h[i], 0.5*above)
		} else {
			h[i] = -math.Min(h[i], 0.5*below)
		}
		side[i] = true
		// a symmetric stencil that fits beats a shrunken one-sided one
		if near := math.Min(above, below); math.Abs(h[i]) <= near {
			h[i] = near
			side[i] = false
		}
	}
}
