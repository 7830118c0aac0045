package poly

import "math"

// sturmSeq is a sequence of polynomials p0, p1, ... each of decreasing
// degree, built by repeated Euclidean remainder of p0 (the polynomial
// itself) and p1 (its derivative), with each remainder sign-flipped per
// the standard Sturm construction.
type sturmSeq []Coeffs

func derivative(c Coeffs) Coeffs {
	n := len(c) - 1
	if n <= 0 {
		return Coeffs{0}
	}
	d := make(Coeffs, n)
	for i := 0; i < n; i++ {
		d[i] = c[i] * float64(n-i)
	}
	return d
}

// polyRemainder returns the remainder of dividing a by b (standard long
// division on dense coefficient arrays, highest-degree-first).
func polyRemainder(a, b Coeffs) Coeffs {
	rem := append(Coeffs(nil), a...)
	for len(rem) >= len(b) && !isZeroPoly(rem) {
		if b[0] == 0 {
			break
		}
		lead := rem[0] / b[0]
		shift := len(rem) - len(b)
		for i, bv := range b {
			rem[i] -= lead * bv
		}
		// Trim the leading term we just zeroed, keep going over the rest.
		rem = rem[1:]
		_ = shift
	}
	// rem currently has length len(a)-k for the terms consumed; pad so the
	// caller always sees a polynomial of degree < len(b)-1 in the
	// canonical highest-first form with no leading zeros trimmed away
	// below degree 0.
	return trimLeadingZeros(rem)
}

func isZeroPoly(c Coeffs) bool {
	for _, v := range c {
		if v != 0 {
			return false
		}
	}
	return true
}

func trimLeadingZeros(c Coeffs) Coeffs {
	i := 0
	for i < len(c)-1 && c[i] == 0 {
		i++
	}
	return c[i:]
}

func buildSturmSequence(c Coeffs) sturmSeq {
	seq := sturmSeq{c, derivative(c)}
	for {
		prev2, prev1 := seq[len(seq)-2], seq[len(seq)-1]
		if len(prev1) == 0 || isZeroPoly(prev1) {
			break
		}
		rem := polyRemainder(prev2, prev1)
		if isZeroPoly(rem) {
			break
		}
		// Sign-normalize: Sturm sequence uses -remainder.
		neg := make(Coeffs, len(rem))
		for i, v := range rem {
			neg[i] = -v
		}
		seq = append(seq, neg)
		if len(seq) > MaxOrder+2 {
			break
		}
	}
	return seq
}

func evalPoly(c Coeffs, x float64) float64 {
	v := 0.0
	for _, coef := range c {
		v = v*x + coef
	}
	return v
}

// signChanges counts sign changes in the Sturm sequence evaluated at x,
// skipping exact zeros as the classical algorithm does.
func (seq sturmSeq) signChanges(x float64) int {
	changes := 0
	prevSign := 0
	for _, p := range seq {
		v := evalPoly(p, x)
		sign := 0
		switch {
		case v > 0:
			sign = 1
		case v < 0:
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if prevSign != 0 && sign != prevSign {
			changes++
		}
		prevSign = sign
	}
	return changes
}

// solveSturm isolates and refines the real roots of c (degree n) using a
// Sturm sequence and recursive bisection, bracketing the positive axis
// only: intersection distances behind the ray origin are never wanted,
// so roots are searched for over [0, maxDistance] rather than the full
// real line.
//
// Note: sign-change counts at interval endpoints can be off by one near
// floating point boundaries; when that happens this returns no root for
// that interval rather than attempting to "fix" it by tightening
// tolerances.
func solveSturm(c Coeffs, n int) []float64 {
	// A zero constant term is a root exactly at 0, which the sign-change
	// count below (over (0, maxDistance]) does not include: report it and
	// divide it out first.
	var roots []float64
	if c[n] == 0 {
		roots = append(roots, 0)
		for n > 0 && c[n] == 0 {
			c, n = c[:n], n-1
		}
		if n == 0 {
			return roots
		}
	}
	seq := buildSturmSequence(c)

	lo, hi := 0.0, maxDistance
	nLo := seq.signChanges(lo)
	nHi := seq.signChanges(hi)
	total := nLo - nHi
	if total <= 0 {
		return roots
	}

	isolateRoots(seq, lo, hi, nLo, nHi, 0, &roots)
	return roots
}

// isolateRoots recursively bisects [lo, hi] until each sub-interval
// contains at most one root (per the Sturm sign-change count), then
// refines that single root.
func isolateRoots(seq sturmSeq, lo, hi float64, nLo, nHi, depth int, roots *[]float64) {
	count := nLo - nHi
	if count <= 0 {
		return
	}
	if count == 1 {
		if r, ok := refineRoot(seq[0], lo, hi); ok {
			*roots = append(*roots, r)
		}
		return
	}
	if depth > maxIterations+10 || hi-lo < relError {
		// Can't separate further; report the midpoint as a best effort
		// for each expected root rather than silently dropping all of
		// them.
		mid := (lo + hi) / 2
		for i := 0; i < count; i++ {
			*roots = append(*roots, mid)
		}
		return
	}

	mid := (lo + hi) / 2
	nMid := seq.signChanges(mid)
	isolateRoots(seq, lo, mid, nLo, nMid, depth+1, roots)
	isolateRoots(seq, mid, hi, nMid, nHi, depth+1, roots)
}

// refineRoot narrows a bracket known to contain exactly one root, taking
// a Regula Falsi step followed by a bisection step in each of up to
// maxIterations iterations.
func refineRoot(p Coeffs, lo, hi float64) (float64, bool) {
	fLo := evalPoly(p, lo)
	fHi := evalPoly(p, hi)
	if fLo == 0 {
		return lo, true
	}
	if fHi == 0 {
		return hi, true
	}
	if (fLo > 0) == (fHi > 0) {
		return 0, false
	}

	for i := 0; i < maxIterations; i++ {
		// Regula Falsi step.
		x := lo - fLo*(hi-lo)/(fHi-fLo)
		fx := evalPoly(p, x)

		if math.Abs(fx) < relError || hi-lo < relError*math.Max(1, math.Abs(x)) {
			return x, true
		}

		if (fx > 0) == (fLo > 0) {
			lo, fLo = x, fx
		} else {
			hi, fHi = x, fx
		}

		// Guard against Regula Falsi stalling near one endpoint: a plain
		// bisection step follows every Regula Falsi step, so the bracket
		// at least halves each iteration.
		mid := (lo + hi) / 2
		fMid := evalPoly(p, mid)
		if (fMid > 0) == (fLo > 0) {
			lo, fLo = mid, fMid
		} else {
			hi, fHi = mid, fMid
		}
	}
	// Exhausted the iteration budget: best-effort midpoint, per the
	// solver's total-function contract.
	return (lo + hi) / 2, true
}
