// Package render defines the drawing surface the scene paints on and a
// software rasterizer that implements it.
package render

import (
	"errors"
	"image"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
)

// Rect is an axis-aligned rectangle in logical units.
type Rect struct {
	Min, Max geom.Point
}

// RectAt returns the rectangle with top-left pos and the given size.
func RectAt(pos, size geom.Point) Rect {
	return Rect{Min: pos, Max: pos.Add(size)}
}

// Size returns the width and height of r.
func (r Rect) Size() geom.Point {
	return r.Max.Sub(r.Min)
}

// Center returns the middle of r.
func (r Rect) Center() geom.Point {
	return r.Min.Add(r.Size().Mul(0.5))
}

// TextSize selects one of the two label sizes.
type TextSize int

const (
	// TextSmall is used for value labels.
	TextSmall TextSize = iota
	// TextMedium is used for dial and ghost scale labels.
	TextMedium
)

// Canvas receives draw calls in logical coordinates.
type Canvas interface {
	// SetTransform replaces the transform applied to subsequent calls.
	SetTransform(m f32.Affine2D)
	FillRect(r Rect, b Brush)
	FillRoundedRect(r Rect, radius float32, b Brush)
	FillEllipse(center geom.Point, rx, ry float32, b Brush)
	// FillTiltedRect fills a bar of the given size whose near edge starts
	// distance away from base along the direction deg (degrees, clockwise
	// from +X).
	FillTiltedRect(base geom.Point, distance, deg float32, size geom.Point, b Brush)
	// DrawText centers text horizontally in r, aligned to its top.
	DrawText(r Rect, text string, size TextSize, b Brush)
}

// Renderer is a Canvas with a device lifecycle.
type Renderer interface {
	Canvas
	// BeginFrame starts a frame of size physical pixels where one logical
	// unit spans scale pixels. It rebuilds a discarded device.
	BeginFrame(size image.Point, scale float32) error
	// EndFrame finishes the frame. recreate reports that the device was lost
	// and has to be discarded before the next frame.
	EndFrame() (recreate bool, err error)
	// DiscardDeviceResources drops the device.
	DiscardDeviceResources()
}

// FrameSink consumes finished frames. The image is only valid during the call.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

var (
	// ErrDeviceLost may be returned by a FrameSink to force a device rebuild.
	ErrDeviceLost = errors.New("render device lost")
	// ErrFrameInProgress reports a BeginFrame without a matching EndFrame.
	ErrFrameInProgress = errors.New("frame already in progress")
	// ErrNoFrame reports an EndFrame without a BeginFrame.
	ErrNoFrame = errors.New("no frame in progress")
)
