package poly

import (
	"math"
	"sort"
	"testing"
)

func sortedFloats(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func TestSolveQuartic(t *testing.T) {
	// x^4 - 10x^2 + 9 = 0 has roots {-3, -1, 1, 3}.
	roots := Solve(Coeffs{1, 0, -10, 0, 9}, Options{})
	got := sortedFloats(roots)
	want := []float64{-3, -1, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %d roots %v, want %v", len(got), got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("root %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSolveQuadraticNoRealRoots(t *testing.T) {
	roots := Solve(Coeffs{1, 0, 1}, Options{})
	if len(roots) != 0 {
		t.Fatalf("expected no real roots, got %v", roots)
	}
}

func TestSolveQuadraticDoubleRoot(t *testing.T) {
	// x^2 - 4x + 4 = (x-2)^2
	roots := Solve(Coeffs{1, -4, 4}, Options{})
	if len(roots) != 1 {
		t.Fatalf("expected a single double root, got %v", roots)
	}
	if math.Abs(roots[0]-2) > 1e-9 {
		t.Errorf("got %v, want 2", roots[0])
	}
}

func TestSolveCubicThreeRealRoots(t *testing.T) {
	// (x+1)(x-2)(x-5) = x^3 - 6x^2 + 3x + 10
	roots := sortedFloats(Solve(Coeffs{1, -6, 3, 10}, Options{}))
	want := []float64{-1, 2, 5}
	if len(roots) != 3 {
		t.Fatalf("got %v, want %v", roots, want)
	}
	for i := range want {
		if math.Abs(roots[i]-want[i]) > 1e-6 {
			t.Errorf("root %d: got %v, want %v", i, roots[i], want[i])
		}
	}
}

func TestSolveSturmHighDegree(t *testing.T) {
	// x^5 - x = x(x-1)(x+1)(x^2+1) has real roots {-1, 0, 1}, but the Sturm
	// path only searches the positive axis, so -1 is never reported.
	roots := sortedFloats(Solve(Coeffs{1, 0, 0, 0, -1, 0}, Options{Sturm: true}))
	want := []float64{0, 1}
	if len(roots) != len(want) {
		t.Fatalf("got %v, want %v", roots, want)
	}
	for i := range want {
		if math.Abs(roots[i]-want[i]) > 1e-4 {
			t.Errorf("root %d: got %v, want %v", i, roots[i], want[i])
		}
	}
}

func TestSolveSturmIgnoresNegativeRoot(t *testing.T) {
	// (x+5)(x-2) = x^2 + 3x - 10, degree 2 but routed through the Sturm
	// solver directly: only the positive root should come back.
	roots := Solve(Coeffs{1, 3, -10}, Options{Sturm: true})
	if len(roots) != 1 {
		t.Fatalf("got %v, want a single positive root", roots)
	}
	if math.Abs(roots[0]-2) > 1e-6 {
		t.Errorf("got %v, want 2", roots[0])
	}
}

func TestSolveDegenerateAllZero(t *testing.T) {
	roots := Solve(Coeffs{0, 0, 0}, Options{})
	if len(roots) != 0 {
		t.Fatalf("expected 0 roots for degenerate input, got %v", roots)
	}
}

func TestSolveRootCountNeverExceedsDegree(t *testing.T) {
	cases := []Coeffs{
		{1, -3},
		{1, 0, -4},
		{1, -6, 11, -6},
		{1, -10, 35, -50, 24},
	}
	for _, c := range cases {
		roots := Solve(c, Options{})
		degree := len(c) - 1
		if len(roots) > degree {
			t.Errorf("coeffs %v: got %d roots, exceeds degree %d", c, len(roots), degree)
		}
		for _, r := range roots {
			residual := math.Abs(evalPoly(c, r))
			tol := 1e-4 * math.Max(1, math.Pow(math.Abs(r), float64(degree)))
			if residual > tol {
				t.Errorf("coeffs %v: root %v has residual %v exceeding tolerance %v", c, r, residual, tol)
			}
		}
	}
}

func TestRootEliminationDropsNearZeroRoot(t *testing.T) {
	// x^3 - x^2 + 1e-13*x has a root essentially at 0; with elimination
	// enabled the degree is reduced by one before solving.
	roots := Solve(Coeffs{1, -1, 1e-13, 0}, Options{Epsilon: 1e-6, EliminateZeroRoot: true})
	for _, r := range roots {
		if math.Abs(r) < 1e-9 {
			t.Errorf("expected the near-zero root to be eliminated, got roots %v", roots)
		}
	}
}
