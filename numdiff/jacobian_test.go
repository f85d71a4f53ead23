package numdiff

import (
	"math"
	"slices"
	"testing"
)

func mixing(x, y []float64) {
	y[0] = x[0]*math.Log(x[0]) + x[1]*math.Log(x[1])
	y[1] = x[0] * x[1]
	y[2] = math.Exp(-x[0] / x[1])
}

func mixingJac(x []float64) []float64 {
	e := math.Exp(-x[0] / x[1])
	return []float64{
		math.Log(x[0]) + 1, math.Log(x[1]) + 1,
		x[1], x[0],
		-e / x[1], e * x[0] / (x[1] * x[1]),
	}
}

// Case Sources : https://github.com/scipy/scipy/blob/main/scipy/optimize/tests/test__numdiff.py (TestAdjustSchemeToBounds)
func TestFitBounds(t *testing.T) {

	// no bounds
	{
		x0 := []float64{0, 0, 0}
		h0 := []float64{0.01, -0.01, 0.01}
		dummy := make([]float64, 3)

		jc := Jacobian{N: 3, M: 1, Func: mixing}
		_ = jc.Validate(x0, dummy)
		copy(jc.h, h0)
		jc.fitBounds(x0)
		if !slices.Equal(jc.h, h0) || slices.Contains(jc.oneSide, true) {
			t.Fatal("unexpected forward step")
		}

		jc.Scheme = Central
		copy(jc.h, h0)
		jc.fitBounds(x0)
		if !slices.Equal(jc.h, []float64{0.01, 0.01, 0.01}) || slices.Contains(jc.oneSide, true) {
			t.Fatal("unexpected central step")
		}
	}

	// loose bounds
	{
		x0 := []float64{0, 0.85, -0.85}
		h0 := []float64{0.1, 0.1, -0.1}
		dummy := make([]float64, 3)

		jc := Jacobian{N: 3, M: 1, Func: mixing, Bounds: []Bound{{-1, 1}, {-1, 1}, {-1, 1}}}
		_ = jc.Validate(x0, dummy)
		copy(jc.h, h0)
		jc.fitBounds(x0)
		if !slices.Equal(jc.h, h0) {
			t.Fatal("unexpected forward step")
		}

		jc.Scheme = Central
		copy(jc.h, h0)
		jc.fitBounds(x0)
		if !slices.Equal(jc.h, []float64{0.1, 0.1, 0.1}) || slices.Contains(jc.oneSide, true) {
			t.Fatal("unexpected central step")
		}
	}

	// tight bounds
	{
		x0 := []float64{0.0, 0.03}
		h0 := []float64{-0.1, -0.1}
		dummy := make([]float64, 2)

		jc := Jacobian{N: 2, M: 1, Func: mixing, Bounds: []Bound{{-0.03, 0.05}, {-0.03, 0.05}}}
		_ = jc.Validate(x0, dummy)
		copy(jc.h, h0)
		jc.fitBounds(x0)
		if !relativeEqual(jc.h, []float64{0.05, -0.06}, 1e-15) {
			t.Fatal("unexpected forward step", jc.h)
		}

		jc.Scheme = Central
		copy(jc.h, h0)
		jc.fitBounds(x0)
		switch {
		case !relativeEqual(jc.h, []float64{0.03, -0.03}, 1e-15):
			t.Fatal("unexpected central step", jc.h)
		case !slices.Equal(jc.oneSide, []bool{false, true}):
			t.Fatal("unexpected side flag", jc.oneSide)
		}
	}
}

func TestInitialSteps(t *testing.T) {
	x0 := []float64{2, -3, 0}
	dummy := make([]float64, 3)

	jc := Jacobian{N: 3, M: 1, Func: mixing}
	_ = jc.Validate(x0, dummy)
	jc.initialSteps(x0)
	if !relativeEqual(jc.h, []float64{2 * sqrtEps, -3 * sqrtEps, sqrtEps}, 1e-15) {
		t.Fatal("unexpected automatic step", jc.h)
	}

	jc.Scheme = Central
	jc.RelStep = 0.1
	jc.initialSteps(x0)
	// a zero relative step at x=0 falls back to the automatic choice
	if !relativeEqual(jc.h, []float64{0.2, -0.3, cubeEps}, 1e-15) {
		t.Fatal("unexpected relative step", jc.h)
	}
}

func TestAbsStep(t *testing.T) {
	jc := Jacobian{
		N: 1, M: 1, AbsStep: 1e-3,
		Func: func(x, y []float64) { y[0] = x[0] * x[0] },
	}
	jac := make([]float64, 1)
	if err := jc.Eval([]float64{1}, jac); err != nil {
		t.Fatal(err)
	}
	if math.Abs(jac[0]-2.001) > 1e-9 {
		t.Fatal("unexpected forward difference", jac[0])
	}

	jc.Scheme = Central
	jc.AbsStep = -1e-3
	if err := jc.Eval([]float64{1}, jac); err != nil {
		t.Fatal(err)
	}
	if math.Abs(jac[0]-2) > 1e-9 {
		t.Fatal("unexpected central difference", jac[0])
	}
}

func TestAccuracy(t *testing.T) {
	x0 := []float64{0.3, 0.7}
	want := mixingJac(x0)

	forward := Jacobian{N: 2, M: 3, Func: mixing}
	rep, err := Audit(&forward, x0, want, Tolerance{Rel: 1e-6, Abs: 1e-9})
	if err != nil || !rep.OK {
		t.Fatal("forward difference not accurate enough:", rep, err)
	}

	central := Jacobian{N: 2, M: 3, Func: mixing, Scheme: Central}
	rep, err = Audit(&central, x0, want, Tolerance{Rel: 1e-8, Abs: 1e-10})
	if err != nil || !rep.OK {
		t.Fatal("central difference not accurate enough:", rep, err)
	}

	// both variables sit on a bound: one-sided second order stencils
	central.Bounds = []Bound{{0.3, 1}, {0, 0.7}}
	rep, err = Audit(&central, x0, want, Tolerance{Rel: 1e-7, Abs: 1e-10})
	if err != nil || !rep.OK {
		t.Fatal("one-sided difference not accurate enough:", rep, err)
	}
	if !slices.Equal(central.oneSide, []bool{true, true}) || central.h[1] >= 0 {
		t.Fatal("unexpected stencil near bounds")
	}
	if !slices.Equal(x0, []float64{0.3, 0.7}) {
		t.Fatal("x0 not restored")
	}
}

func TestColMajor(t *testing.T) {
	x0 := []float64{0.4, 0.6}
	rows := make([]float64, 6)
	cols := make([]float64, 6)

	jc := Jacobian{N: 2, M: 3, Func: mixing, Scheme: Central}
	if err := jc.Eval(x0, rows); err != nil {
		t.Fatal(err)
	}
	jc.ColMajor = true
	if err := jc.Eval(x0, cols); err != nil {
		t.Fatal(err)
	}
	for j := 0; j < 3; j++ {
		for i := 0; i < 2; i++ {
			if rows[j*2+i] != cols[i*3+j] {
				t.Fatal("layout mismatch at", j, i)
			}
		}
	}
}

func TestAuditMismatch(t *testing.T) {
	x0 := []float64{0.3, 0.7}
	bad := mixingJac(x0)
	bad[3] *= 1.01

	jc := Jacobian{N: 2, M: 3, Func: mixing, Scheme: Central}
	rep, err := Audit(&jc, x0, bad, Tolerance{Rel: 1e-6})
	switch {
	case err != nil:
		t.Fatal(err)
	case rep.OK:
		t.Fatal("perturbed entry not detected")
	case rep.Row != 1 || rep.Col != 1:
		t.Fatal("wrong worst entry", rep)
	}
}

func TestGradient(t *testing.T) {
	f := func(x []float64) float64 { return x[0]*x[0]*x[1] + math.Sin(x[1]) }
	g, err := Gradient(f, []float64{1.5, 0.5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !relativeEqual(g, []float64{2 * 1.5 * 0.5, 1.5*1.5 + math.Cos(0.5)}, 1e-9) {
		t.Fatal("unexpected gradient", g)
	}
}

func TestValidate(t *testing.T) {
	x0 := []float64{0.5, 0.5}
	jac := make([]float64, 2)
	cases := []Jacobian{
		{N: 0, M: 1, Func: mixing},
		{N: 2, M: 1},
		{N: 2, M: 1, Func: mixing, Scheme: 7},
		{N: 3, M: 1, Func: mixing},
		{N: 2, M: 2, Func: mixing},
		{N: 2, M: 1, Func: mixing, Bounds: []Bound{{0, 1}}},
		{N: 2, M: 1, Func: mixing, Bounds: []Bound{{1, 0}, {0, 1}}},
		{N: 2, M: 1, Func: mixing, Bounds: []Bound{{0.6, 1}, {0, 1}}},
	}
	for i, jc := range cases {
		if err := jc.Validate(x0, jac); err == nil {
			t.Fatal("invalid configuration accepted:", i)
		}
	}
	ok := Jacobian{N: 2, M: 1, Func: mixing, Bounds: []Bound{{math.NaN(), 1}, {0, math.NaN()}}}
	if err := ok.Validate(x0, jac); err != nil {
		t.Fatal(err)
	}
}

func relativeEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, a := range a {
		if a == b[i] {
			continue
		}
		if math.Abs(a-b[i])/math.Max(math.Abs(a), math.Abs(b[i])) > tol {
			return false
		}
	}
	return true
}
