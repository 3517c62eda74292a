// Package screenshot is the kbinani/screenshot capture backend: display
// enumeration, overlay backgrounds and a single-shot capture stream.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"

	"copyshot/src/capture"
	"copyshot/src/geometry"
)

var errNoDisplays = errors.New("no active displays found")

// Target is the capture target handle for one display.
type Target struct {
	Index  int
	Bounds image.Rectangle // physical pixels, virtual-screen space
	Scale  float64
}

type captureFunc func(image.Rectangle) (*image.RGBA, error)

// Enumerator lists active displays. Scale converts physical pixels to the
// logical units the overlay works in.
type Enumerator struct {
	Scale float64

	numDisplays func() int
	bounds      func(int) image.Rectangle
	captureRect captureFunc
}

func NewEnumerator(scale float64) *Enumerator {
	if scale <= 0 {
		scale = 1
	}
	return &Enumerator{
		Scale:       scale,
		numDisplays: screenshot.NumActiveDisplays,
		bounds:      screenshot.GetDisplayBounds,
		captureRect: screenshot.CaptureRect,
	}
}

// Displays returns one descriptor per active display, frames in logical
// units of the global desktop.
func (e *Enumerator) Displays() ([]geometry.Display, error) {
	n := e.numDisplays()
	if n == 0 {
		return nil, errNoDisplays
	}
	out := make([]geometry.Display, 0, n)
	for i := 0; i < n; i++ {
		b := e.bounds(i)
		out = append(out, geometry.Display{
			ID: displayID(i, b),
			Frame: geometry.Rect{
				X:      float64(b.Min.X) / e.Scale,
				Y:      float64(b.Min.Y) / e.Scale,
				Width:  float64(b.Dx()) / e.Scale,
				Height: float64(b.Dy()) / e.Scale,
			},
			ScaleFactor: e.Scale,
			Target:      Target{Index: i, Bounds: b, Scale: e.Scale},
		})
	}
	return out, nil
}

// Targets re-enumerates the displays the capture API can address now.
func (e *Enumerator) Targets() ([]geometry.Display, error) {
	return e.Displays()
}

// Background captures the whole display, used behind the selection overlay.
func (e *Enumerator) Background(d geometry.Display) (*image.RGBA, error) {
	t, ok := d.Target.(Target)
	if !ok {
		return nil, fmt.Errorf("unsupported capture target %T", d.Target)
	}
	img, err := e.captureRect(t.Bounds)
	if err != nil {
		return nil, classify(err)
	}
	return img, nil
}

func displayID(i int, b image.Rectangle) string {
	return fmt.Sprintf("display-%d@%d,%d+%dx%d", i, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
}

// PixelRect converts a source rect in logical display-local units into the
// physical virtual-screen rectangle for t, clipped to the display.
func PixelRect(t Target, src geometry.Rect) image.Rectangle {
	scale := t.Scale
	if scale <= 0 {
		scale = 1
	}
	r := image.Rect(
		int(math.Round(src.X*scale)),
		int(math.Round(src.Y*scale)),
		int(math.Round(src.MaxX()*scale)),
		int(math.Round(src.MaxY()*scale)),
	).Add(t.Bounds.Min)
	return r.Intersect(t.Bounds)
}

// Opener opens single-shot capture streams backed by kbinani/screenshot.
type Opener struct {
	captureRect captureFunc
}

func NewOpener() *Opener {
	return &Opener{captureRect: screenshot.CaptureRect}
}

// Origin: kbinani reports top-left-origin virtual-screen coordinates on
// every platform it supports.
func (o *Opener) Origin() geometry.Origin { return geometry.TopLeft }

func (o *Opener) Open(ctx context.Context, req geometry.CaptureRequest, queueDepth int) (capture.Stream, error) {
	t, ok := req.Target.(Target)
	if !ok {
		return nil, fmt.Errorf("unsupported capture target %T", req.Target)
	}
	rect := PixelRect(t, req.SourceRect)
	if rect.Empty() {
		return nil, fmt.Errorf("source rect %v outside display %v", req.SourceRect, t.Bounds)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	s := &stream{
		frames: make(chan capture.Frame, queueDepth),
		done:   make(chan struct{}),
	}
	go s.run(o.captureRect, rect, int(req.OutputWidth), int(req.OutputHeight))
	return s, nil
}

type stream struct {
	frames chan capture.Frame
	done   chan struct{}
	once   sync.Once
}

func (s *stream) Frame() <-chan capture.Frame { return s.frames }

func (s *stream) Stop() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *stream) run(grab captureFunc, rect image.Rectangle, w, h int) {
	var f capture.Frame
	img, err := grab(rect)
	if err != nil {
		f.Err = classify(err)
	} else {
		f.Image = capture.Image{RGBA: scaleTo(img, w, h)}
	}
	select {
	case s.frames <- f:
	case <-s.done:
		log.Printf("screenshot: stream stopped before frame was taken")
	}
}

// scaleTo resizes img to w x h. A zero size or a matching size returns img
// unchanged.
func scaleTo(img *image.RGBA, w, h int) *image.RGBA {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "not permitted") || strings.Contains(msg, "access denied") {
		return fmt.Errorf("%w: %w", capture.ErrPermissionDenied, err)
	}
	return err
}

var _ capture.StreamOpener = (*Opener)(nil)
