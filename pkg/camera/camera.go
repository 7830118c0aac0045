// Package camera generates primary rays from a camera description,
// dispatching over the full family of projection types the geometric
// core supports (pinhole, orthographic, fisheye, panoramic, cylindrical
// variants, spherical, and user-defined), with optional focal blur.
// There is no mesh-driven camera type.
package camera

import (
	"math"

	"github.com/taigrr/tracecore/pkg/math3d"
)

// Type selects a camera's projection model, per spec section 4.5.
type Type int

const (
	Perspective Type = iota
	Orthographic
	Fisheye
	Omnimax
	Panoramic
	UltraWideAngle
	Cylinder1
	Cylinder2
	Cylinder3
	Cylinder4
	Spherical
	UserDefined
)

// UserFunc computes one scalar camera-space component as a function of
// the normalized pixel coordinates (x0, y0), for the UserDefined camera
// type's per-axis location/direction functions.
type UserFunc func(x0, y0 float64) float64

// Camera holds the full parameter set spec section 3 names. Location,
// Direction, Right, Up together define the image plane. Direction/Right/Up
// are used as given and never normalized; only each generated ray's final
// direction is normalized (by math3d.NewRay).
type Camera struct {
	Type      Type
	Location  math3d.Vec3
	Direction math3d.Vec3
	Right     math3d.Vec3
	Up        math3d.Vec3
	Sky       math3d.Vec3

	// Angle is the (horizontal) view angle in radians; VAngle overrides it
	// vertically for the Spherical type.
	Angle  float64
	VAngle float64

	FocalBlur *FocalBlur

	// UserFuncs supplies the six per-axis scalar functions (location
	// x/y/z, direction x/y/z) for the UserDefined type; a nil entry
	// leaves that axis at its default camera-space value.
	UserFuncs [6]UserFunc
}

// NewPerspective builds a pinhole camera looking from location toward
// location+direction, with right/up spanning the image plane.
func NewPerspective(location, direction, right, up math3d.Vec3) *Camera {
	return &Camera{Type: Perspective, Location: location, Direction: direction, Right: right, Up: up}
}

// PrimaryRay computes the primary ray for pixel (x, y) of a width x
// height image, per the dispatch table in spec 4.5.
func (c *Camera) PrimaryRay(x, y, width, height float64) (math3d.Ray, bool) {
	x0 := x/width - 0.5
	y0 := 0.5 - y/height

	var origin, dir math3d.Vec3
	ok := true

	switch c.Type {
	case Perspective:
		origin = c.Location
		dir = c.Direction.Add(c.Right.Scale(x0)).Add(c.Up.Scale(y0))

	case Orthographic:
		dir = c.Direction
		origin = c.Location.Add(c.Right.Scale(x0)).Add(c.Up.Scale(y0))

	case Fisheye:
		rad := math.Hypot(x0, y0) * 2
		if rad > 1 {
			ok = false
			break
		}
		phi := math.Atan2(y0, x0)
		theta := rad * (c.Angle / 2)
		origin = c.Location
		dir = c.Direction.Scale(math.Cos(theta)).
			Add(c.Right.Scale(math.Sin(theta) * math.Cos(phi))).
			Add(c.Up.Scale(math.Sin(theta) * math.Sin(phi)))

	case Omnimax:
		rad := math.Hypot(x0, y0) * 2
		if rad > 1 {
			ok = false
			break
		}
		phi := math.Atan2(y0, x0)
		theta := rad * (c.Angle / 2)
		if theta > math.Pi/2+math.Pi/4 {
			ok = false
			break
		}
		origin = c.Location
		dir = c.Direction.Scale(math.Cos(theta)).
			Add(c.Right.Scale(math.Sin(theta) * math.Cos(phi))).
			Add(c.Up.Scale(math.Sin(theta) * math.Sin(phi)))

	case Panoramic:
		angle := x0 * math.Pi
		origin = c.Location
		dir = c.Direction.Scale(math.Cos(angle)).Add(c.Right.Scale(math.Sin(angle))).Add(c.Up.Scale(math.Tan(y0 * math.Pi / 2)))

	case UltraWideAngle:
		theta := x0 * c.Angle
		phi := y0 * c.Angle
		origin = c.Location
		dir = c.Direction.Scale(math.Cos(theta) * math.Cos(phi)).
			Add(c.Right.Scale(math.Sin(theta) * math.Cos(phi))).
			Add(c.Up.Scale(math.Sin(phi)))

	case Cylinder1, Cylinder2, Cylinder3, Cylinder4:
		origin, dir = c.cylinderRay(c.Type, x0, y0)

	case Spherical:
		h := x0 * c.Angle
		v := y0 * c.VAngle
		dir = rotateAround(c.Direction, c.Up, h)
		dir = rotateAround(dir, c.Right, v)
		origin = c.Location

	case UserDefined:
		origin = math3d.V3(evalOr(c.UserFuncs[0], x0, y0, c.Location.X), evalOr(c.UserFuncs[1], x0, y0, c.Location.Y), evalOr(c.UserFuncs[2], x0, y0, c.Location.Z))
		dir = math3d.V3(evalOr(c.UserFuncs[3], x0, y0, c.Direction.X), evalOr(c.UserFuncs[4], x0, y0, c.Direction.Y), evalOr(c.UserFuncs[5], x0, y0, c.Direction.Z))

	default:
		origin = c.Location
		dir = c.Direction
	}

	if !ok {
		return math3d.Ray{}, false
	}
	return math3d.NewRay(origin, dir), true
}

func evalOr(f UserFunc, x0, y0, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	return f(x0, y0)
}

// cylinderRay implements the four POV-Ray-style cylindrical camera
// variants: 1/2 vary the ray origin across a cylinder whose axis is Up
// (1) or Right (2); 3/4 keep a fixed origin and vary the ray direction
// across a cylinder whose axis is Up (3) or Right (4).
func (c *Camera) cylinderRay(t Type, x0, y0 float64) (math3d.Vec3, math3d.Vec3) {
	angle := x0 * c.Angle
	switch t {
	case Cylinder1:
		offset := c.Right.Scale(math.Sin(angle)).Add(c.Direction.Scale(math.Cos(angle) - 1))
		return c.Location.Add(offset), c.Direction.Add(c.Up.Scale(y0))
	case Cylinder2:
		offset := c.Up.Scale(math.Sin(angle)).Add(c.Direction.Scale(math.Cos(angle) - 1))
		return c.Location.Add(offset), c.Direction.Add(c.Right.Scale(y0))
	case Cylinder3:
		dir := c.Direction.Scale(math.Cos(angle)).Add(c.Right.Scale(math.Sin(angle))).Add(c.Up.Scale(y0))
		return c.Location, dir
	default: // Cylinder4
		dir := c.Direction.Scale(math.Cos(angle)).Add(c.Up.Scale(math.Sin(angle))).Add(c.Right.Scale(y0))
		return c.Location, dir
	}
}

// rotateAround rotates v about axis by angle radians (Rodrigues' formula).
func rotateAround(v, axis math3d.Vec3, angle float64) math3d.Vec3 {
	axis = axis.Normalize()
	cosA, sinA := math.Cos(angle), math.Sin(angle)
	return v.Scale(cosA).
		Add(axis.Cross(v).Scale(sinA)).
		Add(axis.Scale(axis.Dot(v) * (1 - cosA)))
}
