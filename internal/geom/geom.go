// Package geom provides the 2D point helpers shared by the manipulation and widget code.
package geom

import (
	"math"

	"gioui.org/f32"
	"golang.org/x/exp/constraints"
)

// Point is a 2D vector in logical units. Y grows downwards.
type Point = f32.Point

// Pt returns the point (x, y).
func Pt(x, y float32) Point {
	return f32.Pt(x, y)
}

// Splat returns a point with both components set to v.
func Splat(v float32) Point {
	return Point{X: v, Y: v}
}

// MulComp multiplies two points component-wise.
func MulComp(a, b Point) Point {
	return Point{X: a.X * b.X, Y: a.Y * b.Y}
}

// Min returns the component-wise minimum of a and b.
func Min(a, b Point) Point {
	return Point{X: minF(a.X, b.X), Y: minF(a.Y, b.Y)}
}

// Max returns the component-wise maximum of a and b.
func Max(a, b Point) Point {
	return Point{X: maxF(a.X, b.X), Y: maxF(a.Y, b.Y)}
}

// ClampPoint bounds p component-wise to [lo, hi].
func ClampPoint(p, lo, hi Point) Point {
	return Max(lo, Min(p, hi))
}

// Mag returns the length of p.
func Mag(p Point) float32 {
	return float32(math.Hypot(float64(p.X), float64(p.Y)))
}

// Cross returns the z component of a × b.
func Cross(a, b Point) float32 {
	return a.X*b.Y - a.Y*b.X
}

// Angle returns the direction of p in radians.
func Angle(p Point) float32 {
	return float32(math.Atan2(float64(p.Y), float64(p.X)))
}

// RotateRad rotates p by rad radians. With Y pointing down a positive angle
// turns clockwise on screen, matching f32.Affine2D.Rotate.
func RotateRad(p Point, rad float32) Point {
	sin, cos := math.Sincos(float64(rad))
	s, c := float32(sin), float32(cos)
	return Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// RotateDeg rotates p by deg degrees, see RotateRad.
func RotateDeg(p Point, deg float32) Point {
	return RotateRad(p, DegToRad(deg))
}

// Right returns a vector of the given length pointing along +X.
func Right(length float32) Point {
	return Point{X: length}
}

// Up returns a vector of the given length pointing up the screen.
func Up(length float32) Point {
	return Point{Y: -length}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 {
	return rad * 180 / math.Pi
}

// NormalizeAngle folds rad into (-π, π].
func NormalizeAngle(rad float32) float32 {
	a := math.Mod(float64(rad), 2*math.Pi)
	switch {
	case a > math.Pi:
		a -= 2 * math.Pi
	case a <= -math.Pi:
		a += 2 * math.Pi
	}
	return float32(a)
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
