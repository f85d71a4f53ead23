package numdiff

import (
	"fmt"
	"math"
)

// Tolerance accepts |analytic - numeric| <= Abs + Rel·max(|analytic|, |numeric|).
type Tolerance struct {
	Rel, Abs float64
}

// Report is the worst disagreement found by Audit.
type Report struct {
	OK       bool
	Row, Col int
	Analytic float64
	Numeric  float64
	// Ratio of the deviation to the admissible deviation; OK iff Ratio <= 1.
	Ratio float64
}

func (r Report) String() string {
	return fmt.Sprintf("ok=%v worst (%d,%d): analytic=%.10g numeric=%.10g ratio=%.3g",
		r.OK, r.Row, r.Col, r.Analytic, r.Numeric, r.Ratio)
}

// Audit compares an analytic row-major M×N Jacobian with the estimate of jc at x0.
// The ColMajor setting of jc is ignored.
func Audit(jc *Jacobian, x0, analytic []float64, tol Tolerance) (Report, error) {
	col := jc.ColMajor
	jc.ColMajor = false
	defer func() { jc.ColMajor = col }()

	numeric := make([]float64, jc.N*jc.M)
	if err := jc.Eval(x0, numeric); err != nil {
		return Report{}, err
	}
	if len(analytic) != len(numeric) {
		return Report{}, fmt.Errorf("analytic jacobian has %d entries, want %d", len(analytic), len(numeric))
	}

	rep := Report{OK: true}
	for k, a := range analytic {
		n := numeric[k]
		dev := math.Abs(a - n)
		adm := tol.Abs + tol.Rel*math.Max(math.Abs(a), math.Abs(n))
		var ratio float64
		switch {
		case dev == 0:
		case adm == 0 || math.IsNaN(dev):
			ratio = math.Inf(1)
		default:
			ratio = dev / adm
		}
		if ratio > rep.Ratio || k == 0 {
			rep.Row, rep.Col = k/jc.N, k%jc.N
			rep.Analytic, rep.Numeric, rep.Ratio = a, n, ratio
		}
	}
	rep.OK = rep.Ratio <= 1
	return rep, nil
}

// Gradient estimates the gradient of a scalar function with central differences.
func Gradient(f func(x []float64) float64, x0 []float64, bounds []Bound) ([]float64, error) {
	jc := Jacobian{
		N: len(x0), M: 1, Scheme: Central, Bounds: bounds,
		Func: func(x, y []float64) { y[0] = f(x) },
	}
	g := make([]float64, len(x0))
	if err := jc.Eval(x0, g); err != nil {
		return nil, err
	}
	return g, nil
}
