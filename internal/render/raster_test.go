package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gioui.org/f32"

	"github.com/frudas24/touchsliders/internal/geom"
)

type countingSink struct {
	frames int
	err    error
}

func (s *countingSink) WriteFrame(*image.RGBA) error {
	s.frames++
	return s.err
}

func isBlack(c color.RGBA) bool { return c.R < 16 && c.G < 16 && c.B < 16 }

func isWhite(c color.RGBA) bool { return c.R > 240 && c.G > 240 && c.B > 240 }

// TestRaster_FillRect verifies a rectangle covers its pixels only.
func TestRaster_FillRect(t *testing.T) {
	r := NewRaster()
	if err := r.BeginFrame(image.Pt(10, 10), 1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	r.FillRect(Rect{Min: geom.Pt(2, 2), Max: geom.Pt(6, 6)}, Black)
	if recreate, err := r.EndFrame(); recreate || err != nil {
		t.Fatalf("end: %v %v", recreate, err)
	}
	img := r.Snapshot()
	if !isBlack(img.RGBAAt(4, 4)) || !isWhite(img.RGBAAt(8, 8)) {
		t.Fatalf("unexpected pixels %v %v", img.RGBAAt(4, 4), img.RGBAAt(8, 8))
	}
}

// TestRaster_ScaleAndTransform verifies logical units are scaled to pixels.
func TestRaster_ScaleAndTransform(t *testing.T) {
	r := NewRaster()
	_ = r.BeginFrame(image.Pt(20, 20), 2)
	r.SetTransform(f32.Affine2D{}.Offset(geom.Pt(5, 0)))
	r.FillRect(Rect{Min: geom.Pt(0, 0), Max: geom.Pt(2, 2)}, Black)
	_, _ = r.EndFrame()
	img := r.Snapshot()
	if !isBlack(img.RGBAAt(11, 1)) {
		t.Fatalf("expected offset scaled square at (11,1), got %v", img.RGBAAt(11, 1))
	}
	if !isWhite(img.RGBAAt(1, 1)) {
		t.Fatalf("origin must stay clear, got %v", img.RGBAAt(1, 1))
	}
}

// TestRaster_DeviceLoss verifies a lost device skips draws, asks for
// recreation and is rebuilt by the next BeginFrame.
func TestRaster_DeviceLoss(t *testing.T) {
	sink := &countingSink{}
	r := NewRaster(WithSinks(sink))
	_ = r.BeginFrame(image.Pt(8, 8), 1)
	_, _ = r.EndFrame()

	r.LoseDevice()
	if err := r.BeginFrame(image.Pt(8, 8), 1); err != nil {
		t.Fatalf("begin on lost device: %v", err)
	}
	before := r.Stats()
	r.FillEllipse(geom.Pt(4, 4), 2, 2, Black)
	after := r.Stats()
	if after.DrawCalls != before.DrawCalls || after.Skipped != before.Skipped+1 {
		t.Fatalf("draw call reached a stale device: %+v", after)
	}
	recreate, err := r.EndFrame()
	if !recreate || err != nil {
		t.Fatalf("expected recreate request, got %v %v", recreate, err)
	}
	if sink.frames != 1 {
		t.Fatalf("lost frame must not be published, got %d", sink.frames)
	}

	r.DiscardDeviceResources()
	if err := r.BeginFrame(image.Pt(8, 8), 1); err != nil {
		t.Fatalf("begin after discard: %v", err)
	}
	r.FillEllipse(geom.Pt(4, 4), 2, 2, Black)
	if recreate, _ := r.EndFrame(); recreate {
		t.Fatalf("rebuilt device must not be lost")
	}
	if s := r.Stats(); s.Devices != 2 || s.DrawCalls != after.DrawCalls+1 || sink.frames != 2 {
		t.Fatalf("unexpected stats after rebuild: %+v frames %d", s, sink.frames)
	}
}

// TestRaster_ResizeLosesDevice verifies a size change is reported as device loss.
func TestRaster_ResizeLosesDevice(t *testing.T) {
	r := NewRaster()
	_ = r.BeginFrame(image.Pt(8, 8), 1)
	_, _ = r.EndFrame()
	_ = r.BeginFrame(image.Pt(16, 8), 1)
	if recreate, _ := r.EndFrame(); !recreate {
		t.Fatalf("expected recreate on resize")
	}
}

// TestRaster_SinkLoss verifies ErrDeviceLost from a sink requests recreation.
func TestRaster_SinkLoss(t *testing.T) {
	sink := &countingSink{err: ErrDeviceLost}
	r := NewRaster(WithSinks(sink))
	_ = r.BeginFrame(image.Pt(4, 4), 1)
	if recreate, err := r.EndFrame(); !recreate || err != nil {
		t.Fatalf("expected recreate without error, got %v %v", recreate, err)
	}
	other := errors.New("boom")
	sink.err = other
	r.DiscardDeviceResources()
	_ = r.BeginFrame(image.Pt(4, 4), 1)
	if recreate, err := r.EndFrame(); recreate || !errors.Is(err, other) {
		t.Fatalf("expected plain sink error, got %v %v", recreate, err)
	}
}

// TestRaster_FrameLifecycle verifies construction limits and pairing errors.
func TestRaster_FrameLifecycle(t *testing.T) {
	r := NewRaster(WithMaxPixels(100))
	if err := r.BeginFrame(image.Pt(20, 20), 1); err == nil {
		t.Fatalf("expected oversize device failure")
	}
	if _, err := r.EndFrame(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	_ = r.BeginFrame(image.Pt(5, 5), 1)
	if err := r.BeginFrame(image.Pt(5, 5), 1); !errors.Is(err, ErrFrameInProgress) {
		t.Fatalf("expected ErrFrameInProgress, got %v", err)
	}
}

// TestRaster_DrawText verifies labels produce ink.
func TestRaster_DrawText(t *testing.T) {
	r := NewRaster()
	_ = r.BeginFrame(image.Pt(60, 20), 1)
	r.DrawText(Rect{Max: geom.Pt(60, 20)}, "42%", TextSmall, Black)
	_, _ = r.EndFrame()
	img := r.Snapshot()
	ink := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			if !isWhite(img.RGBAAt(x, y)) {
				ink++
			}
		}
	}
	if ink == 0 {
		t.Fatalf("expected text pixels")
	}
}

// TestLinearGradient_Stops verifies colours at both ends of the axis.
func TestLinearGradient_Stops(t *testing.T) {
	g := GradRed.Between(geom.Pt(0, 0), geom.Pt(0, 100))
	src := g.Source(f32.Affine2D{})
	top := color.NRGBAModel.Convert(src.At(0, 0)).(color.NRGBA)
	bottom := color.NRGBAModel.Convert(src.At(0, 99)).(color.NRGBA)
	// offset 0 is maroon, offset 1 is red
	if top.R > 0x82 || bottom.R < 0xfc {
		t.Fatalf("unexpected gradient ends %v %v", top, bottom)
	}
}

// TestTiltedRect_Corners verifies the bar geometry.
func TestTiltedRect_Corners(t *testing.T) {
	p1, p2, p3, p4 := TiltedRect(geom.Pt(0, 0), 10, 90, geom.Pt(5, 2))
	// pointing down: near edge at y=10, bar extends to y=15
	if absF(p1.X-1) > 1e-4 || absF(p1.Y-10) > 1e-4 || absF(p2.X+1) > 1e-4 || absF(p3.Y-15) > 1e-4 || absF(p4.Y-15) > 1e-4 {
		t.Fatalf("unexpected corners %v %v %v %v", p1, p2, p3, p4)
	}
}

func absF(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
