// tracecore-debug renders a depth/wireframe diagnostic view of a scene to
// the terminal or to a PNG snapshot. It never shades: every pixel comes
// from a ray's hit distance or a projected bounding-box edge, never a
// material or a light.
//
// Controls (terminal mode):
//
//	Esc, Ctrl+C  - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/tracecore/pkg/camera"
	"github.com/taigrr/tracecore/pkg/debugview"
	"github.com/taigrr/tracecore/pkg/math3d"
	"github.com/taigrr/tracecore/pkg/mesh"
	"github.com/taigrr/tracecore/pkg/primitive"
	"github.com/taigrr/tracecore/pkg/scene"
)

var (
	modelPath = flag.String("model", "", "Path to a .glb/.gltf model to view (default: a built-in demo scene)")
	outPath   = flag.String("out", "", "Save a single frame to this PNG path instead of opening a terminal view")
	targetFPS = flag.Int("fps", 30, "Target frames per second")
	orbitSpin = flag.Float64("spin", 0.6, "Initial orbit angular velocity, radians/sec")
	near      = flag.Float64("near", 0, "Depth mapped to full brightness")
	far       = flag.Float64("far", 0, "Depth mapped to zero brightness (default: 3x the scene radius)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tracecore-debug: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	sc, worldMesh, err := buildScene(*modelPath)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	bounds := sc.BoundingBox()
	center := bounds.Center()
	radius := bounds.Size.Len() / 2
	if radius <= 0 {
		radius = 1
	}

	nearPlane, farPlane := *near, *far
	if farPlane <= 0 {
		farPlane = radius * 3
	}

	if *outPath != "" {
		fb := debugview.NewFramebuffer(160, 100)
		renderFrame(fb, sc, worldMesh, center, radius*2.5, math.Pi/4, nearPlane, farPlane)
		return fb.SavePNG(*outPath)
	}

	return runTerminal(sc, worldMesh, center, radius, nearPlane, farPlane)
}

// buildScene loads a model if one was given; the resulting *mesh.Mesh
// serves double duty as both the traced intersection primitive and the
// wireframe overlay's triangle source. With no model, it falls back to a
// small built-in arrangement of spheres and a box.
func buildScene(path string) (*scene.Scene, *mesh.Mesh, error) {
	if path == "" {
		prims := []primitive.Primitive{
			primitive.NewSphere(math3d.V3(0, 0, 0), 1),
			primitive.NewSphere(math3d.V3(2.5, 0, 0), 0.6),
			primitive.NewBox(math3d.V3(-2, -0.5, -0.5), math3d.V3(-1, 0.5, 0.5)),
		}
		sc, err := scene.BuildScene(prims, scene.Options{})
		return sc, nil, err
	}

	geom, err := mesh.LoadGLB(path)
	if err != nil {
		return nil, nil, err
	}
	sc, err := scene.BuildScene([]primitive.Primitive{geom}, scene.Options{})
	return sc, geom, err
}

// renderFrame draws one depth buffer plus a wireframe overlay of the
// scene bounds and axes into fb, viewed from a point `dist` away on the
// XZ circle at the given orbit angle, looking at center.
func renderFrame(fb *debugview.Framebuffer, sc *scene.Scene, worldMesh *mesh.Mesh, center math3d.Vec3, dist, angle, nearPlane, farPlane float64) {
	eye := center.Add(math3d.V3(math.Sin(angle)*dist, dist*0.35, math.Cos(angle)*dist))
	cam := camera.NewPerspective(eye, center.Sub(eye), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0))
	cam.Angle = math.Pi / 3

	thread := sc.NewThread()
	debugview.RenderDepth(fb, sc, cam, thread, nearPlane, farPlane)

	proj := debugview.NewProjector(cam, fb.Width, fb.Height)
	wf := debugview.NewWireframe(proj, fb)
	wf.Box(sc.BoundingBox(), debugview.ColorWireframe)
	wf.Axes(dist * 0.25)
	if worldMesh != nil {
		wf.Mesh(worldMesh, debugview.ColorWireframe)
	}
}

// orbitAxis eases an angular velocity toward a baseline spin of 0.4 x
// -spin with a critically damped spring, the same smoothing this codebase uses elsewhere for
// mouse-driven rotation inertia, here driving a continuous auto-orbit
// instead.
type orbitAxis struct {
	angle, velocity float64
	spring          harmonica.Spring
	accel           float64
}

func newOrbitAxis(fps int, initialVelocity float64) *orbitAxis {
	return &orbitAxis{
		velocity: initialVelocity,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 0.6, 1.0),
	}
}

func (a *orbitAxis) update() {
	a.angle += a.velocity / float64(*targetFPS)
	a.velocity, a.accel = a.spring.Update(a.velocity, a.accel, *orbitSpin*0.4)
}

func runTerminal(sc *scene.Scene, worldMesh *mesh.Mesh, center math3d.Vec3, radius, nearPlane, farPlane float64) error {
	term := uv.DefaultTerminal()

	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)

	fb := debugview.NewFramebuffer(cols, rows*2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				cols, rows = ev.Width, ev.Height
				term.Erase()
				term.Resize(cols, rows)
				fb = debugview.NewFramebuffer(cols, rows*2)
			case uv.KeyPressEvent:
				if ev.MatchString("escape") || ev.MatchString("ctrl+c") {
					cancel()
					return
				}
			}
		}
	}()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	orbit := newOrbitAxis(*targetFPS, *orbitSpin)
	frameDuration := time.Second / time.Duration(*targetFPS)

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		start := time.Now()
		orbit.update()

		fb.Clear(debugview.ColorBackground)
		renderFrame(fb, sc, worldMesh, center, radius*2.5, orbit.angle, nearPlane, farPlane)
		fb.DrawFull(term, cols, rows)

		if elapsed := time.Since(start); elapsed < frameDuration {
			time.Sleep(frameDuration - elapsed)
		}
	}
}
