package debugview

import (
	"math"

	"github.com/taigrr/tracecore/pkg/camera"
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/mesh"
)

// Projector maps world-space points onto a framebuffer using the same
// view/projection pipeline a rasterizer would, so wireframe overlays line
// up with the depth buffer produced by the same camera's primary rays.
// Only the Perspective camera.Type is supported: the other projection
// families in pkg/camera (fisheye, panoramic, cylindrical, ...) have no
// well-defined linear screen projection, so a wireframe overlay for them
// falls back to the straight-ahead pinhole approximation below.
type Projector struct {
	viewProj math3d.Mat4
	width    float64
	height   float64
}

// NewProjector builds a projector for cam over a width x height image.
func NewProjector(cam *camera.Camera, width, height int) *Projector {
	dir := cam.Direction.Normalize()
	up := cam.Up.Normalize()

	view := math3d.LookAt(cam.Location, cam.Location.Add(dir), up)

	fovy := cam.Angle
	if fovy == 0 {
		fovy = math.Pi / 3
	}
	if cam.VAngle != 0 {
		fovy = cam.VAngle
	}
	aspect := float64(width) / float64(height)
	proj := math3d.Perspective(fovy, aspect, 0.01, primitiveMaxDistance)

	return &Projector{
		viewProj: proj.Mul(view),
		width:    float64(width),
		height:   float64(height),
	}
}

// primitiveMaxDistance bounds the projector's far plane; it need not match
// the intersection core's own MaxDistance exactly, only be comfortably
// larger than any scene this view is likely to display.
const primitiveMaxDistance = 1e6

// WorldToScreen projects p into framebuffer coordinates. visible is false
// when p sits behind the camera or outside the view frustum.
func (p *Projector) WorldToScreen(point math3d.Vec3) (x, y, depth float64, visible bool) {
	clip := p.viewProj.MulVec4(math3d.V4FromV3(point, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X + 1) * 0.5 * p.width
	y = (1 - ndc.Y) * 0.5 * p.height
	depth = ndc.Z
	return x, y, depth, true
}

// Wireframe draws projected 3D edges into a Framebuffer.
type Wireframe struct {
	proj *Projector
	fb   *Framebuffer
}

// NewWireframe pairs a projector with the framebuffer it draws into.
func NewWireframe(proj *Projector, fb *Framebuffer) *Wireframe {
	return &Wireframe{proj: proj, fb: fb}
}

// Line draws one projected line segment; it is skipped entirely when both
// endpoints fall outside the frustum, matching the dispatch core's
// tolerance for partially-visible diagnostics over exact clipping.
func (w *Wireframe) Line(a, b math3d.Vec3, c Color) {
	x1, y1, _, vis1 := w.proj.WorldToScreen(a)
	x2, y2, _, vis2 := w.proj.WorldToScreen(b)
	if !vis1 && !vis2 {
		return
	}
	w.fb.DrawLine(int(x1), int(y1), int(x2), int(y2), c)
}

// Box draws the 12 edges of an axis-aligned bounding box, skipping it
// entirely when it falls outside the projector's view frustum.
func (w *Wireframe) Box(box math3d.BoundingBox, c Color) {
	if !w.proj.Frustum().intersectsBox(box) {
		return
	}
	lo := box.LowerLeft
	hi := box.Upper()

	v := [8]math3d.Vec3{
		math3d.V3(lo.X, lo.Y, lo.Z), math3d.V3(hi.X, lo.Y, lo.Z),
		math3d.V3(hi.X, hi.Y, lo.Z), math3d.V3(lo.X, hi.Y, lo.Z),
		math3d.V3(lo.X, lo.Y, hi.Z), math3d.V3(hi.X, lo.Y, hi.Z),
		math3d.V3(hi.X, hi.Y, hi.Z), math3d.V3(lo.X, hi.Y, hi.Z),
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		w.Line(v[e[0]], v[e[1]], c)
	}
}

// Axes draws the X/Y/Z axes at the origin, each length units long.
func (w *Wireframe) Axes(length float64) {
	origin := math3d.Zero3()
	w.Line(origin, math3d.V3(length, 0, 0), ColorAxisX)
	w.Line(origin, math3d.V3(0, length, 0), ColorAxisY)
	w.Line(origin, math3d.V3(0, 0, length), ColorAxisZ)
}

// Grid draws a size x size grid on the XZ plane at y=0, step units apart.
func (w *Wireframe) Grid(size, step float64, c Color) {
	half := size / 2
	for x := -half; x <= half; x += step {
		w.Line(math3d.V3(x, 0, -half), math3d.V3(x, 0, half), c)
	}
	for z := -half; z <= half; z += step {
		w.Line(math3d.V3(-half, 0, z), math3d.V3(half, 0, z), c)
	}
}

// Mesh draws every edge of every triangle in m. It reads m.Vertices and
// m.Triangles directly rather than going through AllIntersections, so
// positions are in whatever space the mesh was built in; a mesh built
// with WithTransform needs its vertices projected through that transform
// by the caller first, since Mesh keeps the transform private to the
// intersection core.
func (w *Wireframe) Mesh(m *mesh.Mesh, c Color) {
	if !w.proj.Frustum().intersectsBox(m.BoundingBox()) {
		return
	}
	for _, t := range m.Triangles {
		a := m.Vertices[t.V[0]].Position
		b := m.Vertices[t.V[1]].Position
		d := m.Vertices[t.V[2]].Position
		w.Line(a, b, c)
		w.Line(b, d, c)
		w.Line(d, a, c)
	}
}
