package widget

import (
	"fmt"
	"math"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
	"github.com/frudas24/touchsliders/internal/render"
)

var (
	pointerStroke = geom.Pt(16, 4)
	identity      = f32.Affine2D{}
)

func percent(v float32) string {
	return fmt.Sprintf("%d%%", int(v*100))
}

// Paint draws the control and, on top of it, its dial.
func (c *Control) Paint(cv render.Canvas) {
	cv.SetTransform(c.PaintTransform())
	cv.FillRect(render.RectAt(c.RenderPos(), c.Size()), render.LightGrey)
	if c.kind == Knob {
		c.paintKnob(cv)
	} else {
		c.paintSlider(cv)
	}
	cv.SetTransform(identity)
	if c.dial != nil {
		c.dial.Paint(cv)
	}
}

func (c *Control) paintSlider(cv render.Canvas) {
	rp, s := c.RenderPos(), c.Size()
	border := s.X / 4
	topBorder := s.Y * 0.1
	bottom, height := c.Track()
	top := bottom - c.value*height

	cv.FillRect(render.Rect{Min: geom.Pt(rp.X+border, top), Max: geom.Pt(rp.X+s.X-border, bottom)}, render.ControllerBrush(c.controller))
	cv.DrawText(render.RectAt(rp, geom.Pt(s.X, topBorder)), percent(c.value), render.TextSmall, render.DimGrey)
	c.paintGhost(cv, height)
}

// paintGhost draws the fine scale that follows the finger during a relative drag.
func (c *Control) paintGhost(cv render.Canvas, height float32) {
	if c.usedDial || len(c.contacts) == 0 || c.eng.InertiaActive() || c.current.X == 0 || c.current.Y == 0 {
		return
	}
	const (
		ghostRange    = 0.5
		ghostWidth    = 250
		ticksPerLabel = 10
		fingerHalf    = 40
	)
	step := c.dragScale * height / 100
	lo := round2(geom.Clamp(c.raw-ghostRange/2, 0, 1))
	hi := round2(geom.Clamp(c.raw+ghostRange/2, 0, 1))
	span := hi - lo
	cur := c.current
	if geom.Mag(cur.Sub(c.Center())) <= ghostWidth/2 {
		return
	}

	dashY := cur.Y + c.raw*100*step - (lo+0.005)*100*step
	cv.FillRect(render.Rect{
		Min: geom.Pt(cur.X-ghostWidth/2, dashY-step*span*100),
		Max: geom.Pt(cur.X+ghostWidth/2, dashY),
	}, render.SemiDark)

	off := geom.Pt(ghostWidth/2-pointerStroke.X, 0)
	for _, deg := range []float32{135, 225} {
		cv.FillTiltedRect(cur.Sub(off), 0, deg, pointerStroke, render.White)
	}
	for _, deg := range []float32{45, -45} {
		cv.FillTiltedRect(cur.Add(off), 0, deg, pointerStroke, render.White)
	}

	dashWidth := float32(ghostWidth/2 - pointerStroke.X - fingerHalf - 2)
	first := int(math.Round(float64(100 * lo)))
	ticks := int(math.Round(float64(100 * span)))
	for i := 0; i <= ticks; i++ {
		tick := first + i
		long := tick%ticksPerLabel == 0
		w := dashWidth / 2
		if long {
			w = dashWidth
		}
		at := geom.Pt(cur.X, dashY)
		cv.FillTiltedRect(at, fingerHalf, 180, geom.Pt(w, 1), render.White)
		cv.FillTiltedRect(at, fingerHalf, 0, geom.Pt(w, 1), render.White)
		if long {
			left := geom.Pt(cur.X-fingerHalf-dashWidth, dashY-25)
			cv.DrawText(render.RectAt(left, geom.Pt(dashWidth/2, 100)), fmt.Sprintf("%d%%", tick), render.TextMedium, render.White)
		}
		dashY -= step
	}
}

func round2(v float32) float32 {
	return float32(math.Round(float64(v*100))) / 100
}

// knob marks sweep 270 degrees clockwise starting bottom-left.
const (
	knobStart = 135
	knobSweep = 270
)

func (c *Control) paintKnob(cv render.Canvas) {
	s := c.Size()
	border := s.Mul(1.0 / 8)
	center := c.RenderCenter()
	radius := min((s.X-border.X)/2, (s.Y-border.Y)/2)

	cv.FillEllipse(center, radius, radius, render.DarkGrey)
	mark := geom.Pt(10, 5)
	cv.FillTiltedRect(center, radius-mark.X, knobStart+c.value*knobSweep, mark, render.ControllerBrush(c.controller))
	for i := 0; i <= knobSweep; i += 30 {
		cv.FillTiltedRect(center, radius, float32(knobStart+i), geom.Pt(3, 1), render.Black)
	}
	label := render.Rect{
		Min: geom.Pt(center.X-s.X/3, center.Y-border.Y),
		Max: geom.Pt(center.X+s.X/3, center.Y+border.Y),
	}
	cv.DrawText(label, percent(c.value), render.TextSmall, render.DimGrey)
}

// dial pointer sits on the left of the inner ring
const dialPointer = 180

// Paint draws the rings, the value ladder and the pointer.
func (d *DialOverlay) Paint(cv render.Canvas) {
	if !d.shown {
		return
	}
	cv.SetTransform(identity)
	center := d.Center()
	outer := d.OuterRadius()
	cv.FillEllipse(center, outer, outer, render.SemiDark)
	cv.FillEllipse(center, dialInnerRadius, dialInnerRadius, render.White)
	cv.FillEllipse(center, 30, 30, render.DarkGrey)

	tip := center.Add(geom.RotateDeg(geom.Right(dialInnerRadius+2), dialPointer))
	cv.FillTiltedRect(tip, 0, dialPointer+45, pointerStroke, render.White)
	cv.FillTiltedRect(tip, 0, dialPointer-45, pointerStroke, render.White)

	const (
		marks        = 100
		bigMarkEvery = 10
	)
	angleStep := float32(dialAngleRange) / marks
	offset := (d.parent.raw-0.005)*dialAngleRange - dialPointer
	for n := 0; n <= marks; n++ {
		i := float32(n) * angleStep
		deg := offset - i
		size := geom.Pt(10, 1)
		switch {
		case n == 0:
			size = geom.Pt(dialInnerRadius, 3)
		case n%bigMarkEvery == 0:
			size = geom.Pt(15, 3)
		}
		size.X += i / 30
		brush := render.DarkGrey
		if n == 0 || n == marks {
			brush = render.Black
		}
		cv.FillTiltedRect(center, dialInnerRadius-size.X, deg, size, brush)

		if n%bigMarkEvery == 0 {
			m := f32.Affine2D{}.
				Offset(geom.Pt(0, -(dialInnerRadius+15))).
				Rotate(center, geom.DegToRad(deg+90))
			cv.SetTransform(m)
			box := render.Rect{Min: center.Sub(geom.Pt(25, 20)), Max: center.Add(geom.Pt(25, 20))}
			cv.DrawText(box, fmt.Sprintf("%d%%", n), render.TextMedium, render.White)
			cv.SetTransform(identity)
		}
	}
}

// Paint draws the gradient body and the gloss highlight.
func (sq *Square) Paint(cv render.Canvas) {
	const (
		radius = 10
		gloss  = 2.5
	)
	cv.SetTransform(sq.PaintTransform())
	rp, s := sq.RenderPos(), sq.Size()
	body := sq.color.gradient().Between(rp, geom.Pt(rp.X, rp.Y+s.Y))
	cv.FillRoundedRect(render.RectAt(rp, s), radius, body)

	shine := render.GradGlossy.Between(rp, rp.Add(geom.Pt(s.X/15, s.Y/2)))
	cv.FillRoundedRect(render.Rect{
		Min: rp.Add(geom.Splat(gloss)),
		Max: geom.Pt(rp.X+s.X-gloss, rp.Y+s.Y/2),
	}, radius, shine)
	cv.SetTransform(identity)
}
