// Package object holds the transformable state shared by every on-screen item.
package object

import (
	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
)

// Base is the position, size, rotation and scale of one item together with
// its two boundary policies: hard clamping while touched and elastic folding
// during inertia.
type Base struct {
	pos       geom.Point
	size      geom.Point
	renderPos geom.Point
	client    geom.Point
	borders   geom.Point
	origin    geom.Point

	factor          float32
	angleCumulative float32
	angleApplied    float32

	lastMatrix f32.Affine2D
}

// ResetState places the item at start and clears scale and rotation.
func (b *Base) ResetState(start, client, size geom.Point) {
	b.client = client
	b.size = size
	b.updateBorders()
	b.pos = start
	b.renderPos = start
	b.origin = geom.Point{}
	b.factor = 1
	b.angleCumulative = 0
	b.angleApplied = 0
	b.lastMatrix = f32.Affine2D{}
}

// Pos returns the unbounded top-left position.
func (b *Base) Pos() geom.Point { return b.pos }

// Size returns the current size.
func (b *Base) Size() geom.Point { return b.size }

// RenderPos returns the top-left position used for painting.
func (b *Base) RenderPos() geom.Point { return b.renderPos }

// ClientArea returns the area the item is kept in.
func (b *Base) ClientArea() geom.Point { return b.client }

// Borders returns the room left between the item and the client area edges.
func (b *Base) Borders() geom.Point { return b.borders }

// Angle returns the cumulative rotation in degrees.
func (b *Base) Angle() float32 { return b.angleCumulative }

// Center returns the middle of the item in its unbounded position.
func (b *Base) Center() geom.Point {
	return b.pos.Add(b.size.Mul(0.5))
}

// RenderCenter returns the middle of the item where it is painted.
func (b *Base) RenderCenter() geom.Point {
	return b.renderPos.Add(b.size.Mul(0.5))
}

// PivotPoint anchors rotation at the center.
func (b *Base) PivotPoint() geom.Point {
	return b.Center()
}

// PivotRadius is 0.4 of the half diagonal.
func (b *Base) PivotRadius() float32 {
	return geom.Mag(b.size.Mul(0.5)) * 0.4
}

// SetManipulationOrigin records where the current manipulation step is centred.
func (b *Base) SetManipulationOrigin(origin geom.Point) {
	b.origin = origin
}

// SetPos moves the item without any boundary policy.
func (b *Base) SetPos(p geom.Point) {
	b.pos = p
	b.renderPos = p
}

// SetSize resizes the item and refreshes its borders.
func (b *Base) SetSize(size geom.Point) {
	b.size = size
	b.updateBorders()
}

// RestoreRealPosition drops any position banked outside the visible area.
func (b *Base) RestoreRealPosition() {
	b.pos = b.renderPos
}

// Translate moves the item by delta. The delta is first corrected so that
// the rotation and scale applied in this step pivot around the item's center
// instead of the manipulation origin.
func (b *Base) Translate(delta geom.Point, inertia bool) {
	offset := b.origin.Sub(delta)
	v1 := b.Center().Sub(offset)
	if b.angleApplied != 0 {
		delta = delta.Add(geom.RotateDeg(v1, b.angleApplied).Sub(v1))
	}
	if b.factor != 1 {
		delta = delta.Add(v1.Mul(b.factor).Sub(v1))
	}
	b.pos = b.pos.Add(delta)

	if inertia {
		if x, ok := ComputeElasticPoint(b.pos.X, b.borders.X); ok {
			b.renderPos.X = x
		}
		if y, ok := ComputeElasticPoint(b.pos.Y, b.borders.Y); ok {
			b.renderPos.Y = y
		}
		return
	}
	b.renderPos = b.pos
	b.EnsureVisible()
}

// EnsureVisible clamps the painted position into the client area and forgets
// the unbounded one.
func (b *Base) EnsureVisible() {
	b.renderPos = geom.Max(geom.Point{}, geom.Min(b.pos, b.client.Sub(b.size)))
	b.RestoreRealPosition()
}

// Scale grows or shrinks the item around its center. Any real scaling keeps
// the item inside the top-left quadrant and no larger than the shorter side
// of the client area.
func (b *Base) Scale(factor float32) {
	b.factor = factor
	scaled := b.size.Mul(factor - 1)
	b.pos = b.pos.Sub(scaled.Mul(0.5))
	b.size = b.size.Add(scaled)
	if factor != 1 {
		b.pos = geom.Max(geom.Point{}, b.pos)
		b.size = geom.Min(geom.Splat(min(b.client.X, b.client.Y)), b.size)
	}
	b.updateBorders()
}

// Rotate adds deg degrees to the cumulative angle.
func (b *Base) Rotate(deg float32) {
	b.angleCumulative += deg
	b.angleApplied = deg
}

// PaintTransform returns the rotation around the painted center and keeps it
// for hit testing.
func (b *Base) PaintTransform() f32.Affine2D {
	b.lastMatrix = f32.Affine2D{}.Rotate(b.RenderCenter(), geom.DegToRad(b.angleCumulative))
	return b.lastMatrix
}

// LastMatrix returns the transform of the last paint.
func (b *Base) LastMatrix() f32.Affine2D {
	return b.lastMatrix
}

// HitRect reports whether p falls inside the rectangle at r with size s, as
// painted with the last transform.
func (b *Base) HitRect(p, r, s geom.Point) bool {
	local := b.lastMatrix.Invert().Transform(p)
	return local.X >= r.X && local.Y >= r.Y && local.X <= r.X+s.X && local.Y <= r.Y+s.Y
}

// InBounds reports whether p is inside the painted item.
func (b *Base) InBounds(p geom.Point) bool {
	return b.HitRect(p, b.renderPos, b.size)
}

// HitCircle reports whether p is within radius of c.
func HitCircle(p, c geom.Point, radius float32) bool {
	return geom.Mag(p.Sub(c)) <= radius
}

func (b *Base) updateBorders() {
	b.borders = b.client.Sub(b.size)
}

// ComputeElasticPoint folds the unbounded distance d into [0, border] like a
// ball bouncing between two walls. It reports false, leaving the caller's
// coordinate alone, when border is not positive.
func ComputeElasticPoint(d, border float32) (float32, bool) {
	if border <= 0 {
		return 0, false
	}
	dist := d
	if dist < 0 {
		dist = -dist
	}
	q := int(dist / border)
	r := dist - border*float32(q)
	if q%2 == 0 {
		return r, true
	}
	return border - r, true
}
