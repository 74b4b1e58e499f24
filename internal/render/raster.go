package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"gioui.org/f32"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/vector"

	"github.com/frudas24/touchsliders/internal/geom"
)

const defaultMaxPixels = 8192 * 8192

// Stats counts renderer activity.
type Stats struct {
	Frames    uint64
	Devices   uint64
	DrawCalls uint64
	Skipped   uint64
}

// RasterOption customizes a Raster.
type RasterOption func(*Raster)

// WithSinks adds consumers of finished frames.
func WithSinks(sinks ...FrameSink) RasterOption {
	return func(r *Raster) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithRasterLogger sets the logger.
func WithRasterLogger(log *logrus.Entry) RasterOption {
	return func(r *Raster) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMaxPixels bounds the device size.
func WithMaxPixels(n int) RasterOption {
	return func(r *Raster) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

type device struct {
	img  *image.RGBA
	ras  *vector.Rasterizer
	size image.Point
}

// Raster is a software Renderer drawing into an RGBA buffer. Drawing must
// happen on one goroutine; Snapshot may be called from any goroutine.
type Raster struct {
	dev       *device
	lost      bool
	inFrame   bool
	scale     float32
	full      f32.Affine2D
	sinks     []FrameSink
	maxPixels int
	stats     Stats
	log       *logrus.Entry

	mu   sync.Mutex
	last *image.RGBA
}

// NewRaster returns a renderer without a device. The device is created by
// the first BeginFrame.
func NewRaster(opts ...RasterOption) *Raster {
	r := &Raster{
		maxPixels: defaultMaxPixels,
		log:       logrus.StandardLogger().WithField("component", "render"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddSink registers another frame consumer.
func (r *Raster) AddSink(s FrameSink) {
	r.sinks = append(r.sinks, s)
}

// BeginFrame starts a frame, creating the device when there is none.
func (r *Raster) BeginFrame(size image.Point, scale float32) error {
	if r.inFrame {
		return ErrFrameInProgress
	}
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("render: invalid frame size %v", size)
	}
	if scale <= 0 || math.IsNaN(float64(scale)) {
		return fmt.Errorf("render: invalid scale %v", scale)
	}
	if r.dev == nil {
		dev, err := r.newDevice(size)
		if err != nil {
			return err
		}
		r.dev = dev
		r.lost = false
	} else if r.dev.size != size {
		r.lost = true
	}
	r.inFrame = true
	r.scale = scale
	r.SetTransform(f32.Affine2D{})
	if !r.lost {
		draw.Draw(r.dev.img, r.dev.img.Bounds(), image.White, image.Point{}, draw.Src)
	}
	return nil
}

func (r *Raster) newDevice(size image.Point) (*device, error) {
	if size.X*size.Y > r.maxPixels {
		return nil, fmt.Errorf("render: device %dx%d exceeds %d pixels", size.X, size.Y, r.maxPixels)
	}
	r.stats.Devices++
	r.log.WithFields(logrus.Fields{"w": size.X, "h": size.Y}).Debug("device created")
	return &device{
		img:  image.NewRGBA(image.Rectangle{Max: size}),
		ras:  vector.NewRasterizer(size.X, size.Y),
		size: size,
	}, nil
}

// EndFrame publishes the frame to the sinks. A lost device publishes nothing
// and asks for recreation.
func (r *Raster) EndFrame() (bool, error) {
	if !r.inFrame {
		return false, ErrNoFrame
	}
	r.inFrame = false
	if r.dev == nil || r.lost {
		return true, nil
	}
	r.stats.Frames++
	r.mu.Lock()
	if r.last == nil || r.last.Bounds() != r.dev.img.Bounds() {
		r.last = image.NewRGBA(r.dev.img.Bounds())
	}
	copy(r.last.Pix, r.dev.img.Pix)
	r.mu.Unlock()

	var firstErr error
	for _, s := range r.sinks {
		err := s.WriteFrame(r.dev.img)
		switch {
		case err == nil:
		case errors.Is(err, ErrDeviceLost):
			r.lost = true
		default:
			r.log.WithError(err).Warn("frame sink failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return r.lost, firstErr
}

// DiscardDeviceResources drops the device. The next BeginFrame rebuilds it.
func (r *Raster) DiscardDeviceResources() {
	r.dev = nil
	r.lost = false
}

// LoseDevice marks the device as lost, as a GPU reset would.
func (r *Raster) LoseDevice() {
	r.lost = true
}

// Stats returns activity counters.
func (r *Raster) Stats() Stats {
	return r.stats
}

// Snapshot returns a copy of the last published frame, or nil.
func (r *Raster) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	out := image.NewRGBA(r.last.Bounds())
	copy(out.Pix, r.last.Pix)
	return out
}

// SetTransform sets the logical transform; the device scale is applied on top.
func (r *Raster) SetTransform(m f32.Affine2D) {
	r.full = f32.Affine2D{}.Scale(f32.Point{}, geom.Splat(r.scale)).Mul(m)
}

// ready reports whether draw calls may touch the device.
func (r *Raster) ready() bool {
	if !r.inFrame || r.dev == nil || r.lost {
		r.stats.Skipped++
		return false
	}
	r.stats.DrawCalls++
	return true
}

// FillRect fills r with b.
func (r *Raster) FillRect(rc Rect, b Brush) {
	if !r.ready() {
		return
	}
	p := r.newPath()
	p.moveTo(rc.Min)
	p.lineTo(geom.Pt(rc.Max.X, rc.Min.Y))
	p.lineTo(rc.Max)
	p.lineTo(geom.Pt(rc.Min.X, rc.Max.Y))
	p.close()
	r.fill(p, b)
}

// FillRoundedRect fills rc with corners of the given radius.
func (r *Raster) FillRoundedRect(rc Rect, radius float32, b Brush) {
	if !r.ready() {
		return
	}
	s := rc.Size()
	radius = geom.Clamp(radius, 0, min(s.X, s.Y)/2)
	k := radius * (1 - kappa)
	x0, y0, x1, y1 := rc.Min.X, rc.Min.Y, rc.Max.X, rc.Max.Y
	p := r.newPath()
	p.moveTo(geom.Pt(x0+radius, y0))
	p.lineTo(geom.Pt(x1-radius, y0))
	p.cubeTo(geom.Pt(x1-k, y0), geom.Pt(x1, y0+k), geom.Pt(x1, y0+radius))
	p.lineTo(geom.Pt(x1, y1-radius))
	p.cubeTo(geom.Pt(x1, y1-k), geom.Pt(x1-k, y1), geom.Pt(x1-radius, y1))
	p.lineTo(geom.Pt(x0+radius, y1))
	p.cubeTo(geom.Pt(x0+k, y1), geom.Pt(x0, y1-k), geom.Pt(x0, y1-radius))
	p.lineTo(geom.Pt(x0, y0+radius))
	p.cubeTo(geom.Pt(x0, y0+k), geom.Pt(x0+k, y0), geom.Pt(x0+radius, y0))
	p.close()
	r.fill(p, b)
}

// FillEllipse fills the ellipse with radii rx, ry around c.
func (r *Raster) FillEllipse(c geom.Point, rx, ry float32, b Brush) {
	if !r.ready() {
		return
	}
	kx, ky := rx*kappa, ry*kappa
	p := r.newPath()
	p.moveTo(geom.Pt(c.X+rx, c.Y))
	p.cubeTo(geom.Pt(c.X+rx, c.Y+ky), geom.Pt(c.X+kx, c.Y+ry), geom.Pt(c.X, c.Y+ry))
	p.cubeTo(geom.Pt(c.X-kx, c.Y+ry), geom.Pt(c.X-rx, c.Y+ky), geom.Pt(c.X-rx, c.Y))
	p.cubeTo(geom.Pt(c.X-rx, c.Y-ky), geom.Pt(c.X-kx, c.Y-ry), geom.Pt(c.X, c.Y-ry))
	p.cubeTo(geom.Pt(c.X+kx, c.Y-ry), geom.Pt(c.X+rx, c.Y-ky), geom.Pt(c.X+rx, c.Y))
	p.close()
	r.fill(p, b)
}

// FillTiltedRect fills a bar pointing away from base.
func (r *Raster) FillTiltedRect(base geom.Point, distance, deg float32, size geom.Point, b Brush) {
	if !r.ready() {
		return
	}
	p1, p2, p3, p4 := TiltedRect(base, distance, deg, size)
	p := r.newPath()
	p.moveTo(p1)
	p.lineTo(p2)
	p.lineTo(p3)
	p.lineTo(p4)
	p.close()
	r.fill(p, b)
}

// TiltedRect returns the corners of the bar drawn by FillTiltedRect.
func TiltedRect(base geom.Point, distance, deg float32, size geom.Point) (geom.Point, geom.Point, geom.Point, geom.Point) {
	near := base.Add(geom.RotateDeg(geom.Right(distance), deg))
	half := geom.RotateDeg(geom.Up(size.Y/2), deg)
	length := geom.RotateDeg(geom.Right(size.X), deg)
	p1 := near.Add(half)
	p2 := near.Sub(half)
	return p1, p2, p2.Add(length), p1.Add(length)
}

func (r *Raster) fill(p *path, b Brush) {
	if len(p.ops) == 0 {
		return
	}
	bounds := p.bounds().Intersect(r.dev.img.Bounds())
	if bounds.Empty() {
		return
	}
	ras := r.dev.ras
	ras.Reset(bounds.Dx(), bounds.Dy())
	ras.DrawOp = draw.Over
	off := geom.Pt(float32(bounds.Min.X), float32(bounds.Min.Y))
	for _, op := range p.ops {
		p0, p1, p2 := op.pts[0].Sub(off), op.pts[1].Sub(off), op.pts[2].Sub(off)
		switch op.kind {
		case opMove:
			ras.MoveTo(p0.X, p0.Y)
		case opLine:
			ras.LineTo(p0.X, p0.Y)
		case opCube:
			ras.CubeTo(p0.X, p0.Y, p1.X, p1.Y, p2.X, p2.Y)
		case opClose:
			ras.ClosePath()
		}
	}
	ras.Draw(r.dev.img, bounds, b.Source(r.full), bounds.Min)
}
