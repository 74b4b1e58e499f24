package render

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/frudas24/touchsliders/internal/geom"
)

// glyph scale per text size, in logical units per font pixel
var textScale = map[TextSize]float32{
	TextSmall:  1,
	TextMedium: 1.5,
}

// TextExtent returns the logical size of text drawn at size.
func TextExtent(text string, size TextSize) geom.Point {
	face := basicfont.Face7x13
	k := textScale[size]
	w := font.MeasureString(face, text).Ceil()
	return geom.Pt(float32(w)*k, float32(face.Height)*k)
}

// DrawText renders text with the bitmap face. The glyph mask is sampled
// through the inverse transform so rotated labels stay readable.
func (r *Raster) DrawText(rc Rect, text string, size TextSize, b Brush) {
	if !r.ready() || text == "" {
		return
	}
	face := basicfont.Face7x13
	k, ok := textScale[size]
	if !ok {
		k = 1
	}
	w := font.MeasureString(face, text).Ceil()
	h := face.Height
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	origin := geom.Pt(rc.Center().X-float32(w)*k/2, rc.Min.Y)
	m := r.full.Mul(f32.Affine2D{}.Scale(f32.Point{}, geom.Splat(k)).Offset(origin))

	var lo, hi geom.Point
	for i, c := range []geom.Point{{}, geom.Pt(float32(w), 0), geom.Pt(float32(w), float32(h)), geom.Pt(0, float32(h))} {
		p := m.Transform(c)
		if i == 0 {
			lo, hi = p, p
			continue
		}
		lo, hi = geom.Min(lo, p), geom.Max(hi, p)
	}
	img := r.dev.img
	box := image.Rect(
		int(math.Floor(float64(lo.X))), int(math.Floor(float64(lo.Y))),
		int(math.Ceil(float64(hi.X))), int(math.Ceil(float64(hi.Y))),
	).Intersect(img.Bounds())
	if box.Empty() {
		return
	}
	inv := m.Invert()
	src := b.Source(r.full)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			q := inv.Transform(geom.Pt(float32(x)+0.5, float32(y)+0.5))
			mx, my := int(math.Floor(float64(q.X))), int(math.Floor(float64(q.Y)))
			if mx < 0 || my < 0 || mx >= w || my >= h {
				continue
			}
			if a := mask.AlphaAt(mx, my).A; a > 0 {
				blend(img, x, y, src.At(x, y), a)
			}
		}
	}
}

// blend composites c over the pixel at (x, y) with coverage a.
func blend(dst *image.RGBA, x, y int, c color.Color, a uint8) {
	sr, sg, sb, sa := c.RGBA()
	cov := uint32(a) * 0x101
	sr, sg, sb, sa = sr*cov/0xffff, sg*cov/0xffff, sb*cov/0xffff, sa*cov/0xffff
	d := dst.RGBAAt(x, y)
	inv := 0xffff - sa
	dst.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(d.R)*0x101*inv/0xffff) >> 8),
		G: uint8((sg + uint32(d.G)*0x101*inv/0xffff) >> 8),
		B: uint8((sb + uint32(d.B)*0x101*inv/0xffff) >> 8),
		A: uint8((sa + uint32(d.A)*0x101*inv/0xffff) >> 8),
	})
}
