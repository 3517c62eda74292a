// Package textassembly rebuilds reading order from unordered OCR fragments.
package textassembly

import (
	"math"
	"sort"
	"strings"

	"copyshot/src/geometry"
)

// Fragment is one recognized string. Box is in unit image-fraction space
// with a bottom-left origin, so larger Y is higher on screen.
type Fragment struct {
	Text       string
	Confidence float32
	Box        geometry.Rect
}

// Top is the visual top edge in bottom-left-origin space.
func (f Fragment) Top() float64 { return f.Box.Y + f.Box.Height }

func (f Fragment) MidY() float64 { return f.Box.MidY() }

// lineThreshold is the share of a fragment's height within which two
// vertical positions count as the same line.
const lineThreshold = 0.5

// Assemble orders fragments top-to-bottom, left-to-right and joins them,
// separating fragments on one line with a space and lines with "\n".
// An empty input yields "".
func Assemble(fragments []Fragment) string {
	if len(fragments) == 0 {
		return ""
	}

	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)

	// The line comparator below is not transitive, so a stable sort over it
	// depends on input order. Fixing a canonical order first keeps the
	// result a function of the fragment set alone.
	sort.SliceStable(sorted, func(i, j int) bool { return canonicalLess(sorted[i], sorted[j]) })
	sort.SliceStable(sorted, func(i, j int) bool { return readingLess(sorted[i], sorted[j]) })

	var b strings.Builder
	var lastY float64
	for i, f := range sorted {
		if i > 0 {
			if math.Abs(f.MidY()-lastY) > f.Box.Height*lineThreshold {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.Text)
		lastY = f.MidY()
	}
	return b.String()
}

func readingLess(a, b Fragment) bool {
	threshold := a.Box.Height * lineThreshold
	if math.Abs(a.Top()-b.Top()) > threshold {
		return a.Top() > b.Top()
	}
	return a.Box.X < b.Box.X
}

func canonicalLess(a, b Fragment) bool {
	switch {
	case a.Top() != b.Top():
		return a.Top() > b.Top()
	case a.Box.X != b.Box.X:
		return a.Box.X < b.Box.X
	case a.Box.Height != b.Box.Height:
		return a.Box.Height < b.Box.Height
	case a.Box.Width != b.Box.Width:
		return a.Box.Width < b.Box.Width
	case a.Text != b.Text:
		return a.Text < b.Text
	default:
		return a.Confidence < b.Confidence
	}
}
