// Package poly implements the numerical root solver shared by every
// primitive that reduces ray intersection to finding the real roots of a
// univariate polynomial: the closed-form formulas for degree 1 through 4,
// and a Sturm-sequence bisection for degree 5 through MaxOrder.
package poly

import "math"

// MaxOrder is the highest polynomial degree the solver accepts.
const MaxOrder = 35

// Numerical constants carried over from the reference solver; see
// spec section 6 for the rationale behind each one.
const (
	SmallEnough    = 1.0e-10
	relError       = 1.0e-12
	maxIterations  = 50
	fudgeFactor1   = 1.0e12
	maxDistance    = 1.0e7
)

// Coeffs holds polynomial coefficients highest-degree-first:
// c[0]*x^n + c[1]*x^(n-1) + ... + c[n].
type Coeffs []float64

// Options controls how Solve treats near-degenerate input.
type Options struct {
	// Epsilon is the root-elimination threshold: with EliminateZeroRoot
	// set, the trailing root is dropped when |c[n]/c[n-1]| is below it.
	// Zero disables root elimination. Near-zero leading coefficients are
	// dropped against SmallEnough whatever Epsilon is.
	Epsilon float64
	// Sturm forces the iterative Sturm-sequence path even for degree 3
	// and 4, where a closed form would otherwise be used.
	Sturm bool
	// EliminateZeroRoot drops a single root at x=0 when the trailing
	// coefficients indicate one is an artifact of floating point error,
	// per the "root elimination" rule in spec section 4.1.
	EliminateZeroRoot bool
}

// Solve finds the real roots of the polynomial described by coeffs
// (length n+1, highest degree first, i.e. degree = len(coeffs)-1). It is
// total: degenerate input yields zero roots rather than an error, and a
// Sturm bisection that exhausts its iteration budget returns a
// best-effort midpoint rather than failing.
func Solve(coeffs Coeffs, opts Options) []float64 {
	c := append(Coeffs(nil), coeffs...)
	n := len(c) - 1
	if n < 0 {
		return nil
	}

	// Reduce effective degree by dropping near-zero leading coefficients.
	for n > 0 && math.Abs(c[0]) < SmallEnough {
		c = c[1:]
		n--
	}
	if n <= 0 {
		return nil
	}

	if opts.EliminateZeroRoot && opts.Epsilon > 0 && n >= 1 {
		if math.Abs(c[n-1]) > SmallEnough && math.Abs(c[n]/c[n-1]) < opts.Epsilon {
			c = c[:n]
			n--
		}
	}
	if n <= 0 {
		return nil
	}

	if !opts.Sturm {
		switch n {
		case 1:
			return solveLinear(c)
		case 2:
			return solveQuadratic(c)
		case 3:
			return solveCubic(c)
		case 4:
			if r, ok := solveQuartic(c); ok {
				return r
			}
			// Leading coefficients span too wide a magnitude range for the
			// closed-form resolvent to be numerically trustworthy; fall
			// through to the Sturm path.
		}
	}

	return solveSturm(c, n)
}

func solveLinear(c Coeffs) []float64 {
	if c[0] == 0 {
		return nil
	}
	return []float64{-c[1] / c[0]}
}

func solveQuadratic(c Coeffs) []float64 {
	a, b, cc := c[0], c[1], c[2]
	if a == 0 {
		return solveLinear(Coeffs{b, cc})
	}
	d := b*b - 4*a*cc
	if math.Abs(d) < SmallEnough {
		return []float64{-b / (2 * a)}
	}
	if d < 0 {
		return nil
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

// solveCubic solves the depressed cubic via the trigonometric form when
// three real roots exist, and via Cardano's formula otherwise.
func solveCubic(c Coeffs) []float64 {
	if c[0] == 0 {
		return solveQuadratic(Coeffs{c[1], c[2], c[3]})
	}
	a, b, cc, d := c[0], c[1], c[2], c[3]
	// Normalize to x^3 + a2 x^2 + a1 x + a0 = 0.
	a2 := b / a
	a1 := cc / a
	a0 := d / a

	q := (3*a1 - a2*a2) / 9
	r := (9*a2*a1 - 27*a0 - 2*a2*a2*a2) / 54
	q3 := q * q * q
	shift := a2 / 3

	if q3+r*r <= 0 {
		// Q^3 >= R^2 (within sign care): three real roots.
		theta := math.Acos(clamp(r/math.Sqrt(-q3), -1, 1))
		sq := 2 * math.Sqrt(-q)
		return []float64{
			sq*math.Cos(theta/3) - shift,
			sq*math.Cos((theta+2*math.Pi)/3) - shift,
			sq*math.Cos((theta+4*math.Pi)/3) - shift,
		}
	}

	// Single real root via Cardano's form.
	sq3r2 := math.Sqrt(q3 + r*r)
	s := cbrt(r + sq3r2)
	t := cbrt(r - sq3r2)
	return []float64{s + t - shift}
}

func cbrt(x float64) float64 {
	if x < 0 {
		return -math.Cbrt(-x)
	}
	return math.Cbrt(x)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// solveQuartic applies the Ferrari/Vieta resolvent. The second return
// value is false when the leading coefficients span more than
// fudgeFactor1 in magnitude, signalling that the caller should fall back
// to the Sturm path instead of trusting this result.
func solveQuartic(c Coeffs) ([]float64, bool) {
	a, b, cc, d, e := c[0], c[1], c[2], c[3], c[4]
	if a == 0 {
		r := solveCubic(Coeffs{b, cc, d, e})
		return r, true
	}

	maxC, minC := math.Abs(a), math.Abs(a)
	for _, v := range []float64{b, cc, d, e} {
		av := math.Abs(v)
		if av == 0 {
			continue
		}
		if av > maxC {
			maxC = av
		}
		if av < minC {
			minC = av
		}
	}
	if minC > 0 && maxC/minC > fudgeFactor1 {
		return nil, false
	}

	// Normalize to x^4 + Ax^3 + Bx^2 + Cx + D = 0.
	A := b / a
	B := cc / a
	C := d / a
	D := e / a

	// Resolvent cubic.
	p := B - 3*A*A/8
	q := C - A*B/2 + A*A*A/8
	r := D - A*C/4 + A*A*B/16 - 3*A*A*A*A/256

	if math.Abs(q) < SmallEnough {
		// Biquadratic case: y^2 + p y + r = 0, y = x^2 in the depressed
		// variable.
		ys := solveQuadratic(Coeffs{1, p, r})
		var roots []float64
		for _, y := range ys {
			if y < -SmallEnough {
				continue
			}
			if y < 0 {
				y = 0
			}
			sy := math.Sqrt(y)
			roots = append(roots, sy-A/4, -sy-A/4)
		}
		return roots, true
	}

	resolvent := Coeffs{1, 2 * p, p*p - 4*r, -q * q}
	yRoots := solveCubic(resolvent)
	if len(yRoots) == 0 {
		return nil, true
	}
	// Pick the largest positive root of the resolvent for numerical
	// stability.
	y := yRoots[0]
	for _, v := range yRoots[1:] {
		if v > y {
			y = v
		}
	}
	if y <= 0 {
		return nil, true
	}
	sy := math.Sqrt(y)

	var roots []float64
	r1 := solveQuadratic(Coeffs{1, sy, p/2 + y/2 - q/(2*sy)})
	r2 := solveQuadratic(Coeffs{1, -sy, p/2 + y/2 + q/(2*sy)})
	for _, v := range r1 {
		roots = append(roots, v-A/4)
	}
	for _, v := range r2 {
		roots = append(roots, v-A/4)
	}
	return roots, true
}
