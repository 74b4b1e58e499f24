package render

import (
	"image"
	"image/color"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
)

// Brush is the paint used to fill a shape.
type Brush interface {
	// Source returns the image a fill samples from, with m mapping logical
	// coordinates to device pixels.
	Source(m f32.Affine2D) image.Image
}

// Solid is a single colour brush.
type Solid color.NRGBA

// Source returns a uniform image.
func (s Solid) Source(f32.Affine2D) image.Image {
	return image.NewUniform(color.NRGBA(s))
}

// Stop is one colour of a gradient at offset in [0, 1].
type Stop struct {
	Offset float32
	Color  color.NRGBA
}

// LinearGradient blends between two stops along From→To.
type LinearGradient struct {
	From, To geom.Point
	Start    Stop
	End      Stop
}

// Between returns a copy of g spanning from→to.
func (g LinearGradient) Between(from, to geom.Point) LinearGradient {
	g.From, g.To = from, to
	return g
}

// Source returns an image that evaluates the gradient in device space.
func (g LinearGradient) Source(m f32.Affine2D) image.Image {
	from, to := m.Transform(g.From), m.Transform(g.To)
	axis := to.Sub(from)
	return &gradientImage{
		from:  from,
		axis:  axis,
		norm:  axis.X*axis.X + axis.Y*axis.Y,
		start: g.Start,
		end:   g.End,
	}
}

type gradientImage struct {
	from       geom.Point
	axis       geom.Point
	norm       float32
	start, end Stop
}

func (g *gradientImage) ColorModel() color.Model { return color.NRGBAModel }

func (g *gradientImage) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *gradientImage) At(x, y int) color.Color {
	var t float32
	if g.norm > 0 {
		p := geom.Pt(float32(x)+0.5, float32(y)+0.5).Sub(g.from)
		t = (p.X*g.axis.X + p.Y*g.axis.Y) / g.norm
	}
	return g.colorAt(t)
}

// colorAt interpolates between the stops. Stops may be given in any order.
func (g *gradientImage) colorAt(t float32) color.NRGBA {
	a, b := g.start, g.end
	if a.Offset > b.Offset {
		a, b = b, a
	}
	switch {
	case t <= a.Offset:
		return a.Color
	case t >= b.Offset:
		return b.Color
	}
	f := (t - a.Offset) / (b.Offset - a.Offset)
	return color.NRGBA{
		R: lerp8(a.Color.R, b.Color.R, f),
		G: lerp8(a.Color.G, b.Color.G, f),
		B: lerp8(a.Color.B, b.Color.B, f),
		A: lerp8(a.Color.A, b.Color.A, f),
	}
}

func lerp8(a, b uint8, f float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*f + 0.5)
}

func gradient(start color.NRGBA, startPos float32, end color.NRGBA, endPos float32) LinearGradient {
	return LinearGradient{Start: Stop{Offset: startPos, Color: start}, End: Stop{Offset: endPos, Color: end}}
}

func opaque(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// Palette. Gradients are positioned with Between before use.
var (
	Black          = Solid(opaque(0, 0, 0))
	White          = Solid(opaque(0xff, 0xff, 0xff))
	LightGrey      = Solid(opaque(0xd3, 0xd3, 0xd3))
	DarkGrey       = Solid(opaque(0xa9, 0xa9, 0xa9))
	DimGrey        = Solid(opaque(0x69, 0x69, 0x69))
	Cornflower     = Solid(opaque(0x64, 0x95, 0xed))
	SlateBlue      = Solid(opaque(0x7b, 0x68, 0xee))
	SeaGreen       = Solid(opaque(0x3c, 0xb3, 0x71))
	SemiDark       = Solid(color.NRGBA{A: 0x66})
	GradGlossy     = gradient(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}, 0.3, color.NRGBA{R: 0xff, G: 0xff, B: 0xff}, 1)
	GradBlue       = gradient(opaque(0, 0xff, 0xff), 1, opaque(0, 0, 0x8b), 0)
	GradOrange     = gradient(opaque(0xff, 0xff, 0), 1, opaque(0xff, 0x45, 0), 0)
	GradRed        = gradient(opaque(0xff, 0, 0), 1, opaque(0x80, 0, 0), 0)
	GradGreen      = gradient(opaque(0xad, 0xff, 0x2f), 1, opaque(0, 0x80, 0), 0)
	GradBackground = gradient(opaque(0x77, 0x88, 0x99), 1, opaque(0, 0, 0), 0)
)

// ControllerBrush cycles through the three controller colours.
func ControllerBrush(controller int) Brush {
	switch ((controller % 3) + 3) % 3 {
	case 0:
		return SlateBlue
	case 1:
		return Cornflower
	default:
		return SeaGreen
	}
}
