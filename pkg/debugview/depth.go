package debugview

import (
	"github.com/taigrr/tracecore/pkg/camera"
	"github.com/taigrr/tracecore/pkg/primitive"
	"github.com/taigrr/tracecore/pkg/scene"
)

// RenderDepth fills fb with a grayscale depth buffer: one primary ray per
// pixel, traced against sc, shaded only by hit distance remapped into
// [near, far] - brighter is nearer. Pixels whose ray misses every
// primitive, or that the camera itself rejects (outside a fisheye's
// circle, say), are left at ColorMiss. thread is reused across every
// pixel, matching the one-thread-per-worker scheduling model scene.Scene
// expects.
func RenderDepth(fb *Framebuffer, sc *scene.Scene, cam *camera.Camera, thread *primitive.Thread, near, far float64) {
	w := float64(fb.Width)
	h := float64(fb.Height)

	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			ray, ok := cam.PrimaryRay(float64(x)+0.5, float64(y)+0.5, w, h)
			if !ok {
				fb.SetPixel(x, y, ColorMiss)
				continue
			}
			hit, found := sc.Trace(ray, thread)
			if !found {
				fb.SetPixel(x, y, ColorMiss)
				continue
			}
			fb.SetPixel(x, y, depthColor(hit.T, near, far))
		}
	}
}

// depthColor maps a hit distance in [near, far] to a grayscale value,
// nearer hits brighter, clamped at both ends; hits at or past far get
// gray 0, the same color as ColorMiss.
func depthColor(t, near, far float64) Color {
	if far <= near {
		far = near + 1
	}
	f := clamp01((t - near) / (far - near))
	g := uint8((1 - f) * 255)
	return Color{R: g, G: g, B: g, A: 255}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
