package debugview

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw renders the framebuffer into a terminal screen using the ▀
// half-block technique: one terminal cell carries two framebuffer rows,
// foreground for the top pixel and background for the bottom.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			top := fb.GetPixel(col, topY)
			bot := fb.GetPixel(col, botY)

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(top),
					Bg: rgbaToColor(bot),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// DrawFull is Draw over the whole cols x rows terminal area, for callers
// that redraw every cell each frame rather than patching a region.
func (fb *Framebuffer) DrawFull(scr uv.Screen, cols, rows int) {
	fb.Draw(scr, uv.Rectangle{Max: uv.Position{X: cols, Y: rows}})
}

func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors used by the depth/wireframe view, plus wireframe and axis
// markers. RenderDepth does not use ColorNear or ColorFar: its ramp is
// the grayscale computed by depthColor. There is no sky, grass, or road here -
// this view never shades a scene, only measures it.
var (
	ColorBackground = color.RGBA{10, 10, 16, 255}
	ColorMiss       = color.RGBA{0, 0, 0, 255}
	ColorNear       = color.RGBA{255, 255, 255, 255}
	ColorFar        = color.RGBA{20, 20, 30, 255}
	ColorWireframe  = color.RGBA{0, 255, 128, 255}
	ColorAxisX      = color.RGBA{255, 64, 64, 255}
	ColorAxisY      = color.RGBA{64, 255, 64, 255}
	ColorAxisZ      = color.RGBA{64, 64, 255, 255}
	ColorGrid       = color.RGBA{60, 60, 70, 255}
)

// RGB builds an opaque color from 8-bit components.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA builds a color from 8-bit components with alpha.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}
