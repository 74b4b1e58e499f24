package render

import (
	"image"
	"math"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
)

// kappa places cubic control points so that four curves approximate a circle.
const kappa = 0.5522847498

const (
	opMove = iota
	opLine
	opCube
	opClose
)

type pathOp struct {
	kind int
	pts  [3]geom.Point
}

// path collects an outline already mapped to device pixels.
type path struct {
	m        f32.Affine2D
	ops      []pathOp
	min, max geom.Point
}

func (r *Raster) newPath() *path {
	return &path{
		m:   r.full,
		min: geom.Splat(math.MaxFloat32),
		max: geom.Splat(-math.MaxFloat32),
	}
}

func (p *path) add(kind int, pts ...geom.Point) {
	op := pathOp{kind: kind}
	for i, pt := range pts {
		d := p.m.Transform(pt)
		op.pts[i] = d
		p.min = geom.Min(p.min, d)
		p.max = geom.Max(p.max, d)
	}
	p.ops = append(p.ops, op)
}

func (p *path) moveTo(pt geom.Point) { p.add(opMove, pt) }

func (p *path) lineTo(pt geom.Point) { p.add(opLine, pt) }

func (p *path) cubeTo(c1, c2, end geom.Point) { p.add(opCube, c1, c2, end) }

func (p *path) close() { p.add(opClose) }

// bounds returns the pixel rectangle covering every control point.
func (p *path) bounds() image.Rectangle {
	if p.min.X > p.max.X {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(float64(p.min.X))),
		int(math.Floor(float64(p.min.Y))),
		int(math.Ceil(float64(p.max.X))),
		int(math.Ceil(float64(p.max.Y))),
	)
}
