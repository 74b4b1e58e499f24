package layout

import (
	"math"

	"github.com/frudas24/touchsliders/internal/geom"
)

// Slot is where one item goes.
type Slot struct {
	Pos  geom.Point
	Size geom.Point
}

// Placement holds the slots of every group in creation order.
type Placement struct {
	Squares []Slot
	Sliders []Slot
	Big     *Slot
	Knobs   []Slot
}

// columns packs n cells of dist into a roughly square block.
func columns(n int, dist geom.Point) int {
	if n <= 0 || dist.X <= 0 {
		return 1
	}
	return max(1, int(math.Sqrt(float64(float32(n)*dist.Y/dist.X))))
}

// Place computes the grid for a client area in logical units.
func Place(l Layout, client geom.Point) Placement {
	var p Placement

	sq := geom.Splat(l.Squares.Size)
	sqCols := max(1, int(math.Sqrt(float64(l.Squares.Count))))
	for i := 0; i < l.Squares.Count; i++ {
		cell := geom.Pt(float32(i%sqCols+1), float32(i/sqCols+1))
		p.Squares = append(p.Squares, Slot{Pos: client.Sub(geom.MulComp(sq, cell)), Size: sq})
	}

	border := geom.Splat(l.Sliders.Border)
	size := geom.Pt(l.Sliders.Width, l.Sliders.Height)
	dist := size.Add(border)
	cols := columns(l.Sliders.Count, dist)
	for i := 0; i < l.Sliders.Count; i++ {
		cell := geom.Pt(float32(i%cols), float32(i/cols))
		p.Sliders = append(p.Sliders, Slot{Pos: border.Add(geom.MulComp(dist, cell)), Size: size})
	}
	if l.BigSlider.Enabled {
		p.Big = &Slot{
			Pos:  geom.Pt(border.X+dist.X*float32(cols), border.Y),
			Size: geom.Pt(size.X, 3*dist.Y-border.Y),
		}
	}

	kBorder := geom.Splat(l.Knobs.Border)
	kSize := geom.Splat(l.Knobs.Size)
	kDist := kSize.Add(kBorder)
	kCols := columns(l.Knobs.Count, kDist)
	for i := 0; i < l.Knobs.Count; i++ {
		pos := geom.Pt(
			kBorder.X+kDist.X*float32(i%kCols),
			client.Y-(kBorder.Y+kDist.Y*float32(1+i/kCols)),
		)
		p.Knobs = append(p.Knobs, Slot{Pos: pos, Size: kSize})
	}
	return p
}
