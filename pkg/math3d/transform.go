package math3d

// Transform is a pair of mutually-inverse affine matrices. Primitives store
// an optional Transform; rays are carried into the primitive's local frame
// by InvPoint / InvDirection before intersection, and results are carried
// back out by Point / Direction / Normal.
type Transform struct {
	Forward Mat4
	Inverse Mat4
}

// NewTransform builds a Transform from a forward matrix, computing its
// inverse.
func NewTransform(forward Mat4) Transform {
	return Transform{Forward: forward, Inverse: forward.Inverse()}
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return Transform{Forward: Identity(), Inverse: Identity()}
}

// Compose returns the transform that applies t first, then other
// (other.Forward * t.Forward), matching the povray convention that the
// most-recently-applied operation ends up as the outermost matrix.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		Forward: other.Forward.Mul(t.Forward),
		Inverse: t.Inverse.Mul(other.Inverse),
	}
}

// Translate returns t with an additional translation appended.
func (t Transform) Translate(v Vec3) Transform {
	return t.Compose(NewTransform(Translate(v)))
}

// Scale returns t with an additional non-uniform scale appended.
func (t Transform) Scale(v Vec3) Transform {
	return t.Compose(NewTransform(Scale(v)))
}

// RotateAxis returns t with an additional rotation about axis appended.
func (t Transform) RotateAxis(axis Vec3, angleRadians float64) Transform {
	return t.Compose(NewTransform(Rotate(axis, angleRadians)))
}

// Invert returns the transform with forward and inverse swapped, i.e. the
// transform that undoes t.
func (t Transform) Invert() Transform {
	return Transform{Forward: t.Inverse, Inverse: t.Forward}
}

// Point applies the transform to a point, as an affine map.
func (t Transform) Point(p Vec3) Vec3 {
	return t.Forward.MulVec3(p)
}

// InvPoint applies the inverse transform to a point.
func (t Transform) InvPoint(p Vec3) Vec3 {
	return t.Inverse.MulVec3(p)
}

// Direction applies the transform to a direction, as a linear map (no
// translation).
func (t Transform) Direction(v Vec3) Vec3 {
	return t.Forward.MulVec3Dir(v)
}

// InvDirection applies the inverse transform to a direction.
func (t Transform) InvDirection(v Vec3) Vec3 {
	return t.Inverse.MulVec3Dir(v)
}

// Normal applies the transform to a surface normal, using the
// inverse-transpose so that normals stay perpendicular to the surface
// under non-uniform scale, then renormalizes.
func (t Transform) Normal(n Vec3) Vec3 {
	inv := t.Inverse
	return Vec3{
		inv[0]*n.X + inv[1]*n.Y + inv[2]*n.Z,
		inv[4]*n.X + inv[5]*n.Y + inv[6]*n.Z,
		inv[8]*n.X + inv[9]*n.Y + inv[10]*n.Z,
	}.Normalize()
}
