// Package geometry maps a selection drawn on one display's overlay to the
// pixel source rectangle of the matching capture target.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// MinSelectionSpan is the smallest width/height (exclusive, in local units)
// that still counts as a capture request.
const MinSelectionSpan = 5

// ErrDisplayMismatch is returned by MatchTarget when no capture target
// corresponds to the selection's display.
var ErrDisplayMismatch = errors.New("no capture target matches the selected display")

// Rect is a real-valued rectangle. Width and Height are never negative.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Point is a position in overlay-local units.
type Point struct {
	X float64
	Y float64
}

// RectFromPoints returns the rectangle spanned by two corner points.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// MaxX, MaxY and MidY are the right edge, far vertical edge and vertical
// midpoint in the rectangle's own coordinate space.
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MaxY() float64 { return r.Y + r.Height }
func (r Rect) MidY() float64 { return r.Y + r.Height/2 }

// Scaled multiplies every field by f.
func (r Rect) Scaled(f float64) Rect {
	return Rect{X: r.X * f, Y: r.Y * f, Width: r.Width * f, Height: r.Height * f}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.X, r.Y, r.Width, r.Height)
}

// Handle is the capture backend's opaque reference to one display.
type Handle interface{}

// Display describes one connected display. Frame is in global desktop
// space; ScaleFactor converts frame units to physical pixels.
type Display struct {
	ID          string
	Frame       Rect
	ScaleFactor float64
	Target      Handle
}

func (d Display) scale() float64 {
	if d.ScaleFactor <= 0 {
		return 1
	}
	return d.ScaleFactor
}

// Selection is a rectangle local to the overlay surface it was drawn on.
// Scale is the pixels-per-unit density measured on that surface; zero means
// the display's ScaleFactor applies.
type Selection struct {
	Rect    Rect
	Display Display
	Scale   float64
}

// Cancels reports whether the selection is too small to be a capture request.
func (s Selection) Cancels() bool {
	return s.Rect.Width <= MinSelectionSpan || s.Rect.Height <= MinSelectionSpan
}

// CaptureRequest is always derived through Map.
type CaptureRequest struct {
	SourceRect   Rect
	OutputWidth  uint32
	OutputHeight uint32
	Target       Handle
}

// Origin is the vertical coordinate convention of a coordinate space.
type Origin int

const (
	TopLeft Origin = iota
	BottomLeft
)

func (o Origin) String() string {
	if o == BottomLeft {
		return "bottom-left"
	}
	return "top-left"
}

// FlipVertical converts a top-left-origin rectangle inside a frame of the
// given height into the equivalent bottom-left-origin rectangle. The
// conversion is its own inverse.
func FlipVertical(frameHeight float64, r Rect) Rect {
	r.Y = frameHeight - r.Y - r.Height
	return r
}

// OutputSize returns the physical pixel size of a selection captured from a
// display with the given scale factor.
func OutputSize(r Rect, scaleFactor float64) (uint32, uint32) {
	if scaleFactor <= 0 {
		scaleFactor = 1
	}
	return uint32(math.Round(r.Width * scaleFactor)), uint32(math.Round(r.Height * scaleFactor))
}

// Map derives the capture request for a selection on the matched target.
// origin is the vertical convention of the capture API; selections are
// always top-left-origin. Output size follows the originating display's
// density, never the primary display's: a measured Selection.Scale is
// converted into the target's frame units first.
func Map(sel Selection, target Display, origin Origin) CaptureRequest {
	scale := target.scale()
	src := sel.Rect
	if sel.Scale > 0 && sel.Scale != scale {
		src = src.Scaled(sel.Scale / scale)
	}
	w, h := OutputSize(src, scale)
	if origin == BottomLeft {
		src = FlipVertical(target.Frame.Height, src)
	}
	return CaptureRequest{
		SourceRect:   src,
		OutputWidth:  w,
		OutputHeight: h,
		Target:       target.Target,
	}
}

// MatchTarget picks the capture target for a display. Identifier equality
// wins; otherwise the first candidate with identical frame x, width and
// height is used. It never guesses beyond that.
func MatchTarget(d Display, candidates []Display) (Display, error) {
	if d.ID != "" {
		for _, c := range candidates {
			if c.ID == d.ID {
				return c, nil
			}
		}
	}
	for _, c := range candidates {
		if c.Frame.X == d.Frame.X && c.Frame.Width == d.Frame.Width && c.Frame.Height == d.Frame.Height {
			return c, nil
		}
	}
	return Display{}, fmt.Errorf("%w: display %q frame %s", ErrDisplayMismatch, d.ID, d.Frame)
}
