// Package blob implements the metaball/implicit-surface primitive: a
// sum of per-element density fields compared against a threshold,
// accelerated by a binary bounding-sphere hierarchy over the elements
// (spec section 4.2.4).
package blob

import (
	"math"
	"sort"

	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/poly"
	"github.com/taigrr/tracecore/pkg/primitive"
)

// Kind selects an element's density shape.
type Kind int

const (
	Sphere Kind = iota
	Ellipsoid
	BaseHemisphere
	ApexHemisphere
	Cylinder
)

// Element is one metaball contributor to the blob field. Density at a
// point within range is c*(1 - (d/r)^2)^2 where d is a shape-specific
// distance (Euclidean for Sphere/Hemisphere, scaled for Ellipsoid,
// radial-to-axis for Cylinder); c0/c1/c2 are that expression's
// coefficients as a quadratic in d^2, precomputed once at construction.
type Element struct {
	Kind   Kind
	Center math3d.Vec3
	Axis   math3d.Vec3 // unit; used by Hemisphere/Cylinder kinds
	Scale  math3d.Vec3 // per-axis radii for Ellipsoid; ignored otherwise
	Radius float64
	Half   float64 // half-length along Axis, for Cylinder
	Coeff  float64

	c0, c1, c2 float64
	boundR     float64
}

// NewElement builds an element and precomputes its density coefficients
// and bounding-sphere radius.
func NewElement(kind Kind, center, axis, scale math3d.Vec3, radius, half, coeff float64) Element {
	e := Element{Kind: kind, Center: center, Radius: radius, Half: half, Coeff: coeff, Scale: scale}
	if axis.LenSq() > 0 {
		e.Axis = axis.Normalize()
	} else {
		e.Axis = math3d.V3(0, 1, 0)
	}
	r2 := radius * radius
	e.c2 = coeff
	e.c1 = -2 * coeff / r2
	e.c0 = coeff / (r2 * r2)
	e.boundR = radius
	if kind == Cylinder {
		e.boundR = math.Hypot(radius, half)
	}
	if kind == Ellipsoid {
		m := scale.X
		if scale.Y > m {
			m = scale.Y
		}
		if scale.Z > m {
			m = scale.Z
		}
		e.boundR = radius * m
	}
	return e
}

// quadratic describes squared-distance-from-center as a function of ray
// parameter t: d^2(t) = A*t^2 + B*t + C.
type quadratic struct{ A, B, C float64 }

func sphericalQuadratic(center, o, d math3d.Vec3) quadratic {
	rel := o.Sub(center)
	return quadratic{A: d.Dot(d), B: 2 * rel.Dot(d), C: rel.Dot(rel)}
}

// quadraticLE solves A*t^2 + B*t + C <= limit and returns the interval
// of t where the inequality holds.
func quadraticLE(q quadratic, limit float64) (tIn, tOut float64, ok bool) {
	a, b, c := q.A, q.B, q.C-limit
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) < 1e-12 {
			if c <= 0 {
				return -primitive.MaxDistance, primitive.MaxDistance, true
			}
			return 0, 0, false
		}
		root := -c / b
		if b > 0 {
			return -primitive.MaxDistance, root, true
		}
		return root, primitive.MaxDistance, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	r1, r2 := (-b-sq)/(2*a), (-b+sq)/(2*a)
	if a > 0 {
		return r1, r2, true
	}
	return r2, r1, true
}

// linearLE solves h0 + slope*t <= 0 and returns the interval of t where
// the inequality holds.
func linearLE(h0, slope float64) (tIn, tOut float64, ok bool) {
	if math.Abs(slope) < 1e-12 {
		if h0 <= 0 {
			return -primitive.MaxDistance, primitive.MaxDistance, true
		}
		return 0, 0, false
	}
	root := -h0 / slope
	if slope > 0 {
		return -primitive.MaxDistance, root, true
	}
	return root, primitive.MaxDistance, true
}

func clipInterval(aIn, aOut, bIn, bOut float64) (tIn, tOut float64, ok bool) {
	tIn = math.Max(aIn, bIn)
	tOut = math.Min(aOut, bOut)
	return tIn, tOut, tIn < tOut
}

// shapeQuadratic returns the d^2(t) quadratic appropriate to the
// element's kind, in the coordinate frame that kind's radius test uses.
func (e *Element) shapeQuadratic(o, d math3d.Vec3) quadratic {
	switch e.Kind {
	case Ellipsoid:
		rel := o.Sub(e.Center)
		relS := math3d.V3(rel.X/e.Scale.X, rel.Y/e.Scale.Y, rel.Z/e.Scale.Z)
		dS := math3d.V3(d.X/e.Scale.X, d.Y/e.Scale.Y, d.Z/e.Scale.Z)
		return quadratic{A: dS.Dot(dS), B: 2 * relS.Dot(dS), C: relS.Dot(relS)}
	case Cylinder:
		rel := o.Sub(e.Center)
		relAxial := rel.Dot(e.Axis)
		dAxial := d.Dot(e.Axis)
		perpRel := rel.Sub(e.Axis.Scale(relAxial))
		perpD := d.Sub(e.Axis.Scale(dAxial))
		return quadratic{A: perpD.Dot(perpD), B: 2 * perpRel.Dot(perpD), C: perpRel.Dot(perpRel)}
	default: // Sphere, BaseHemisphere, ApexHemisphere
		return sphericalQuadratic(e.Center, o, d)
	}
}

// activeInterval returns the sub-interval of the ray over which this
// element contributes a nonzero density, and the d^2(t) quadratic to use
// within it, or ok=false if the ray never enters the element's support.
func (e *Element) activeInterval(o, d math3d.Vec3) (q quadratic, tIn, tOut float64, ok bool) {
	q = e.shapeQuadratic(o, d)
	tIn, tOut, ok = quadraticLE(q, e.Radius*e.Radius)
	if !ok {
		return
	}
	rel := o.Sub(e.Center)
	switch e.Kind {
	case BaseHemisphere:
		lIn, lOut, lok := linearLE(rel.Dot(e.Axis), d.Dot(e.Axis))
		if !lok {
			return q, 0, 0, false
		}
		tIn, tOut, ok = clipInterval(tIn, tOut, lIn, lOut)
	case ApexHemisphere:
		lIn, lOut, lok := linearLE(-rel.Dot(e.Axis), -d.Dot(e.Axis))
		if !lok {
			return q, 0, 0, false
		}
		tIn, tOut, ok = clipInterval(tIn, tOut, lIn, lOut)
	case Cylinder:
		relAxial := rel.Dot(e.Axis)
		dAxial := d.Dot(e.Axis)
		lIn1, lOut1, ok1 := linearLE(relAxial-e.Half, dAxial)
		lIn2, lOut2, ok2 := linearLE(-relAxial-e.Half, -dAxial)
		if !ok1 || !ok2 {
			return q, 0, 0, false
		}
		if tIn, tOut, ok = clipInterval(tIn, tOut, lIn1, lOut1); !ok {
			return
		}
		tIn, tOut, ok = clipInterval(tIn, tOut, lIn2, lOut2)
	}
	return
}

// squaredDistance evaluates the shape-appropriate d^2 at a world point,
// and whether the point satisfies any half-space/axial clip the element
// kind imposes (a hemisphere or cylinder point outside its clip
// contributes nothing even if within the bounding radius).
func (e *Element) squaredDistance(p math3d.Vec3) (float64, bool) {
	rel := p.Sub(e.Center)
	switch e.Kind {
	case Ellipsoid:
		relS := math3d.V3(rel.X/e.Scale.X, rel.Y/e.Scale.Y, rel.Z/e.Scale.Z)
		return relS.Dot(relS), true
	case BaseHemisphere:
		if rel.Dot(e.Axis) > 0 {
			return 0, false
		}
		return rel.Dot(rel), true
	case ApexHemisphere:
		if rel.Dot(e.Axis) < 0 {
			return 0, false
		}
		return rel.Dot(rel), true
	case Cylinder:
		axial := rel.Dot(e.Axis)
		if math.Abs(axial) > e.Half {
			return 0, false
		}
		perp := rel.Sub(e.Axis.Scale(axial))
		return perp.Dot(perp), true
	default:
		return rel.Dot(rel), true
	}
}

func (e *Element) densityAt(p math3d.Vec3) float64 {
	d2, ok := e.squaredDistance(p)
	if !ok || d2 > e.Radius*e.Radius {
		return 0
	}
	return e.c0*d2*d2 + e.c1*d2 + e.c2
}

// sphereNode is one node of the binary bounding-sphere hierarchy: a leaf
// holds one element index, an interior node holds the union bound of its
// two children (spec's immutable arena with index-linked nodes, built
// once and never mutated thereafter).
type sphereNode struct {
	center      math3d.Vec3
	radius      float64
	left, right int32 // -1 for leaves
	element     int32 // valid only at leaves
}

// Blob is the implicit-surface primitive: a threshold comparison against
// the sum of every in-range element's density.
type Blob struct {
	Elements  []Element
	Threshold float64

	nodes  []sphereNode
	root   int32
	bounds math3d.BoundingBox

	transform    math3d.Transform
	hasTransform bool
	inverted     bool
	clips        primitive.ClipList
}

// New builds a blob over the given elements and threshold, constructing
// the bounding-sphere hierarchy by recursive median splits.
func New(elements []Element, threshold float64) *Blob {
	b := &Blob{Elements: elements, Threshold: threshold, root: -1}
	worldBounds := math3d.EmptyBoundingBox()
	for _, e := range elements {
		worldBounds = worldBounds.Union(math3d.NewBoundingBox(
			e.Center.Sub(math3d.Vec3Scalar(e.boundR)),
			e.Center.Add(math3d.Vec3Scalar(e.boundR)),
		))
	}
	b.bounds = worldBounds
	if len(elements) > 0 {
		ids := make([]int32, len(elements))
		for i := range elements {
			ids[i] = int32(i)
		}
		b.root = b.build(ids)
	}
	return b
}

// build recursively partitions ids by the longest axis of their combined
// centers, appending nodes depth-first, and returns the new node's index.
func (b *Blob) build(ids []int32) int32 {
	if len(ids) == 1 {
		e := b.Elements[ids[0]]
		idx := int32(len(b.nodes))
		b.nodes = append(b.nodes, sphereNode{center: e.Center, radius: e.boundR, left: -1, right: -1, element: ids[0]})
		return idx
	}

	lo, hi := b.Elements[ids[0]].Center, b.Elements[ids[0]].Center
	for _, id := range ids[1:] {
		lo = lo.Min(b.Elements[id].Center)
		hi = hi.Max(b.Elements[id].Center)
	}
	axis := hi.Sub(lo).MaxComponent()

	sort.Slice(ids, func(i, j int) bool {
		return b.Elements[ids[i]].Center.Get(axis) < b.Elements[ids[j]].Center.Get(axis)
	})
	mid := len(ids) / 2
	leftIdx := b.build(ids[:mid])
	rightIdx := b.build(ids[mid:])

	l, r := b.nodes[leftIdx], b.nodes[rightIdx]
	center := l.center.Add(r.center).Scale(0.5)
	radius := center.Distance(l.center) + l.radius
	if d := center.Distance(r.center) + r.radius; d > radius {
		radius = d
	}
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, sphereNode{center: center, radius: radius, left: leftIdx, right: rightIdx, element: -1})
	return idx
}

// WithTransform returns a copy of b carrying the given transform.
func (b *Blob) WithTransform(t math3d.Transform) *Blob {
	clone := *b
	clone.transform = t
	clone.hasTransform = true
	clone.bounds = b.bounds.Transform(t.Forward)
	return &clone
}

// WithClips returns a copy of b restricted to the given clip list.
func (b *Blob) WithClips(clips primitive.ClipList) *Blob {
	clone := *b
	clone.clips = clips
	return &clone
}

func (b *Blob) toLocal(origin, direction math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	if !b.hasTransform {
		return origin, direction
	}
	return b.transform.InvPoint(origin), b.transform.InvDirection(direction)
}

func (b *Blob) toWorldPoint(p math3d.Vec3) math3d.Vec3 {
	if !b.hasTransform {
		return p
	}
	return b.transform.Point(p)
}

func (b *Blob) toLocalPoint(p math3d.Vec3) math3d.Vec3 {
	if !b.hasTransform {
		return p
	}
	return b.transform.InvPoint(p)
}

// collectCandidates walks the bounding-sphere hierarchy, descending only
// into nodes whose bounding sphere the ray actually enters, and appends
// every surviving leaf's element index to out.
func (b *Blob) collectCandidates(nodeIdx int32, o, d math3d.Vec3, out []int32) []int32 {
	if nodeIdx < 0 {
		return out
	}
	node := &b.nodes[nodeIdx]
	q := sphericalQuadratic(node.center, o, d)
	if _, _, ok := quadraticLE(q, node.radius*node.radius); !ok {
		return out
	}
	if node.left < 0 {
		return append(out, node.element)
	}
	out = b.collectCandidates(node.left, o, d, out)
	out = b.collectCandidates(node.right, o, d, out)
	return out
}

// activeSpan is one element's contribution over a stretch of the ray.
type activeSpan struct {
	elem     *Element
	tIn, tOut float64
	q        quadratic
}

// quarticCoeffs returns this span's contribution to the field-minus-
// threshold quartic in t, highest degree first, matching poly.Coeffs.
func (s activeSpan) quarticCoeffs() [5]float64 {
	a, bq, c := s.q.A, s.q.B, s.q.C
	c0, c1, c2 := s.elem.c0, s.elem.c1, s.elem.c2
	return [5]float64{
		c0 * a * a,
		c0 * 2 * a * bq,
		c0*(2*a*c+bq*bq) + c1*a,
		c0*2*bq*c + c1*bq,
		c0*c*c + c1*c + c2,
	}
}

// taylorShiftScale reparametrizes a quartic (highest degree first) from
// t to u where t = t0 + h*u, so the resulting polynomial is evaluated
// over u in [0,1] when t ranges over [t0, t0+h].
func taylorShiftScale(c [5]float64, t0, h float64) [5]float64 {
	a4, a3, a2, a1, a0 := c[0], c[1], c[2], c[3], c[4]
	b4 := a4
	b3 := 4*a4*t0 + a3
	b2 := 6*a4*t0*t0 + 3*a3*t0 + a2
	b1 := 4*a4*t0*t0*t0 + 3*a3*t0*t0 + 2*a2*t0 + a1
	b0 := a4*t0*t0*t0*t0 + a3*t0*t0*t0 + a2*t0*t0 + a1*t0 + a0
	h2, h3, h4 := h*h, h*h*h, h*h*h*h
	return [5]float64{b4 * h4, b3 * h3, b2 * h2, b1 * h, b0}
}

// bernsteinControlPoints converts a power-basis quartic (highest degree
// first) into its degree-4 Bernstein control points over [0,1]; by the
// convex hull property, if every control point shares one sign, the
// polynomial has no root in [0,1].
func bernsteinControlPoints(c [5]float64) [5]float64 {
	a0, a1, a2, a3, a4 := c[4], c[3], c[2], c[1], c[0]
	return [5]float64{
		a0,
		a0 + a1/4,
		a0 + a1/2 + a2/6,
		a0 + 3*a1/4 + a2/2 + a3/4,
		a0 + a1 + a2 + a3 + a4,
	}
}

func noRootInUnitInterval(b [5]float64) bool {
	pos, neg := false, false
	for _, v := range b {
		if v > 1e-12 {
			pos = true
		} else if v < -1e-12 {
			neg = true
		}
	}
	return !(pos && neg)
}

var solveOpts = poly.Options{Epsilon: 1e-9, EliminateZeroRoot: true}

// AllIntersections sweeps the ray's active-element breakpoints, assembles
// the field-minus-threshold quartic for each sub-interval's active
// element set, rejects sub-intervals whose Bezier hull cannot contain a
// root, and root-finds the rest with poly.Solve.
func (b *Blob) AllIntersections(origin, direction math3d.Vec3, stack *primitive.HitStack, thread *primitive.Thread) bool {
	thread.Stats.RayPrimitiveTests++
	if b.root < 0 {
		return false
	}
	o, d := b.toLocal(origin, direction)

	candidates := b.collectCandidates(b.root, o, d, nil)
	if len(candidates) == 0 {
		return false
	}

	spans := make([]activeSpan, 0, len(candidates))
	breaks := make([]float64, 0, 2*len(candidates)+2)
	for _, id := range candidates {
		e := &b.Elements[id]
		q, tIn, tOut, ok := e.activeInterval(o, d)
		if !ok {
			continue
		}
		tIn = math.Max(tIn, primitive.DepthTolerance)
		tOut = math.Min(tOut, primitive.MaxDistance)
		if tIn >= tOut {
			continue
		}
		spans = append(spans, activeSpan{elem: e, tIn: tIn, tOut: tOut, q: q})
		breaks = append(breaks, tIn, tOut)
	}
	if len(spans) == 0 {
		return false
	}
	sort.Float64s(breaks)

	found := false
	for i := 0; i+1 < len(breaks); i++ {
		lo, hi := breaks[i], breaks[i+1]
		if hi-lo < 1e-12 {
			continue
		}
		mid := (lo + hi) / 2

		var total [5]float64
		any := false
		for _, s := range spans {
			if s.tIn < mid && s.tOut > mid {
				any = true
				tc := s.quarticCoeffs()
				for k := range total {
					total[k] += tc[k]
				}
			}
		}
		if !any {
			continue
		}
		total[4] -= b.Threshold

		local := taylorShiftScale(total, lo, hi-lo)
		if noRootInUnitInterval(bernsteinControlPoints(local)) {
			continue
		}

		roots := poly.Solve(total[:], solveOpts)
		for _, t := range roots {
			if t <= lo || t >= hi {
				continue
			}
			localPoint := o.Add(d.Scale(t))
			worldPoint := b.toWorldPoint(localPoint)
			if !b.clips.Accepts(worldPoint, thread) {
				continue
			}
			hit := primitive.Hit{
				T:          t,
				Point:      worldPoint,
				Primitive:  b,
				LocalPoint: localPoint,
			}
			if stack.Push(hit) {
				found = true
				thread.Stats.RayPrimitiveHits++
			}
		}
	}
	return found
}

func (b *Blob) fieldAt(p math3d.Vec3) float64 {
	total := 0.0
	for i := range b.Elements {
		total += b.Elements[i].densityAt(p)
	}
	return total
}

// Inside reports whether point's field value meets the threshold.
func (b *Blob) Inside(point math3d.Vec3, thread *primitive.Thread) bool {
	p := b.toLocalPoint(point)
	inside := b.fieldAt(p) >= b.Threshold
	if b.inverted {
		inside = !inside
	}
	if inside && len(b.clips) > 0 {
		inside = b.clips.Accepts(point, thread)
	}
	return inside
}

// Normal estimates the field gradient at the hit point by central
// differences; a closed-form per-element gradient would need a dispatch
// on which elements are active there, which this numeric approach avoids.
func (b *Blob) Normal(hit *primitive.Hit, thread *primitive.Thread) math3d.Vec3 {
	const eps = 1e-5
	p := hit.LocalPoint
	gx := b.fieldAt(p.Add(math3d.V3(eps, 0, 0))) - b.fieldAt(p.Sub(math3d.V3(eps, 0, 0)))
	gy := b.fieldAt(p.Add(math3d.V3(0, eps, 0))) - b.fieldAt(p.Sub(math3d.V3(0, eps, 0)))
	gz := b.fieldAt(p.Add(math3d.V3(0, 0, eps))) - b.fieldAt(p.Sub(math3d.V3(0, 0, eps)))
	// The field is maximal at each element's center and falls off outward,
	// the opposite of the primitive package's implicit surfaces, so the
	// outward normal is the negated gradient.
	n := math3d.V3(-gx, -gy, -gz).Normalize()
	if b.inverted {
		n = n.Negate()
	}
	if !b.hasTransform {
		return n
	}
	return b.transform.Normal(n)
}

// UV uses a simple planar projection of the local hit point; blobs have
// no natural parametrization.
func (b *Blob) UV(hit *primitive.Hit) math3d.Vec2 {
	return math3d.V2(hit.LocalPoint.X, hit.LocalPoint.Z)
}

func (b *Blob) BoundingBox() math3d.BoundingBox { return b.bounds }
func (b *Blob) Inverted() bool                  { return b.inverted }
func (b *Blob) Opaque() bool                    { return true }

// Invert returns a shallow copy of b with its inverted flag flipped; the
// shared element slice and hierarchy are not rebuilt.
func (b *Blob) Invert() primitive.Primitive {
	clone := *b
	clone.inverted = !b.inverted
	return &clone
}
