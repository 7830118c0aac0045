package primitive

import (
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/poly"
)

// AlgebraicTerm is one monomial c*x^i*y^j*z^k of a general polynomial
// surface, per spec 4.2's algebraic surface primitive (degree <= 35,
// matching pkg/poly.MaxOrder).
type AlgebraicTerm struct {
	Coeff      float64
	I, J, K    int
}

// Algebraic is an implicit surface defined by a sum of monomial terms,
// evaluated to zero. Substituting the ray parametrically and expanding
// produces a univariate polynomial in t of degree up to the surface's
// total degree, solved with pkg/poly exactly like the closed-form
// quadric and torus primitives.
type Algebraic struct {
	base
	Terms  []AlgebraicTerm
	Degree int
	Sturm  bool
}

// NewAlgebraic builds a surface from its monomial terms and explicit
// bounding box (an implicit polynomial has no inherent finite extent).
func NewAlgebraic(terms []AlgebraicTerm, degree int, sturm bool, bounds math3d.BoundingBox) (*Algebraic, error) {
	if degree < 1 || degree > poly.MaxOrder {
		return nil, errDomain("algebraic: degree out of supported range")
	}
	a := &Algebraic{Terms: terms, Degree: degree, Sturm: sturm}
	a.Bounds = bounds
	return a, nil
}

// eval returns the surface function's value at a local-frame point.
func (a *Algebraic) eval(p math3d.Vec3) float64 {
	sum := 0.0
	for _, term := range a.Terms {
		sum += term.Coeff * ipow(p.X, term.I) * ipow(p.Y, term.J) * ipow(p.Z, term.K)
	}
	return sum
}

func (a *Algebraic) gradient(p math3d.Vec3) math3d.Vec3 {
	var gx, gy, gz float64
	for _, term := range a.Terms {
		if term.I > 0 {
			gx += term.Coeff * float64(term.I) * ipow(p.X, term.I-1) * ipow(p.Y, term.J) * ipow(p.Z, term.K)
		}
		if term.J > 0 {
			gy += term.Coeff * ipow(p.X, term.I) * float64(term.J) * ipow(p.Y, term.J-1) * ipow(p.Z, term.K)
		}
		if term.K > 0 {
			gz += term.Coeff * ipow(p.X, term.I) * ipow(p.Y, term.J) * float64(term.K) * ipow(p.Z, term.K-1)
		}
	}
	return math3d.V3(gx, gy, gz)
}

func ipow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

// binom returns the binomial coefficient C(n, k) for the small exponents
// a surface of degree <= MaxOrder ever needs.
func binom(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result = result * float64(n-i) / float64(i+1)
	}
	return result
}

// rayPoly returns the coefficients (highest degree first, as poly.Solve
// expects) of the univariate polynomial obtained by substituting P+tD into the surface and expanding
// via the binomial theorem term by term.
func (a *Algebraic) rayPoly(o, d math3d.Vec3) poly.Coeffs {
	coeffs := make(poly.Coeffs, a.Degree+1)
	for _, term := range a.Terms {
		// Expand (ox+t*dx)^i etc. independently, then convolve.
		xs := expandAxis(o.X, d.X, term.I)
		ys := expandAxis(o.Y, d.Y, term.J)
		zs := expandAxis(o.Z, d.Z, term.K)
		prod := convolve(convolve(xs, ys), zs)
		for p, v := range prod {
			coeffs[p] += term.Coeff * v
		}
	}
	// poly.Solve expects highest-degree-first ordering; reverse.
	rev := make(poly.Coeffs, len(coeffs))
	for i, v := range coeffs {
		rev[len(coeffs)-1-i] = v
	}
	return rev
}

// expandAxis returns the coefficients (constant-first) of (o+t*d)^n.
func expandAxis(o, d float64, n int) []float64 {
	out := make([]float64, n+1)
	for k := 0; k <= n; k++ {
		out[k] = binom(n, k) * ipow(o, n-k) * ipow(d, k)
	}
	return out
}

func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

func (a *Algebraic) AllIntersections(origin, direction math3d.Vec3, stack *HitStack, thread *Thread) bool {
	thread.Stats.RayPrimitiveTests++
	o, d := a.toLocal(origin, direction)
	coeffs := a.rayPoly(o, d)
	thread.Stats.PolynomialSolves++
	roots := poly.Solve(coeffs, poly.Options{Sturm: a.Sturm, EliminateZeroRoot: true})

	found := false
	for _, t := range roots {
		local := o.Add(d.Scale(t))
		world := a.toWorldPoint(local)
		if !a.Clips.Accepts(world, thread) {
			continue
		}
		if stack.Push(Hit{T: t, Point: world, Primitive: a, LocalPoint: local}) {
			found = true
			thread.Stats.RayPrimitiveHits++
		}
	}
	return found
}

func (a *Algebraic) Inside(point math3d.Vec3, thread *Thread) bool {
	p := a.toLocalPoint(point)
	inside := a.eval(p) < 0
	return a.accept(inside, point, thread)
}

func (a *Algebraic) Normal(hit *Hit, thread *Thread) math3d.Vec3 {
	n := a.gradient(hit.LocalPoint).Normalize()
	if a.InvertedFlag {
		n = n.Negate()
	}
	return a.toWorldNormal(n)
}

func (a *Algebraic) UV(hit *Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Y)
}

func (a *Algebraic) Invert() Primitive {
	cp := *a
	cp.InvertedFlag = !cp.InvertedFlag
	return &cp
}
