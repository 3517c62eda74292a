package overlay

import (
	"log"
	"sync"

	"copyshot/src/geometry"
)

// State is the gesture state of one Surface.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateFinished
	StateCancelled
	// StateTornDown marks a surface closed before it finished; its gesture
	// was discarded without emitting.
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// Terminal reports whether the surface no longer accepts input.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCancelled || s == StateTornDown
}

// Drag is the immutable anchor/current pair of an in-progress gesture.
type Drag struct {
	Anchor  geometry.Point
	Current geometry.Point
}

func (d Drag) Rect() geometry.Rect { return geometry.RectFromPoints(d.Anchor, d.Current) }

func (d Drag) moved(p geometry.Point) Drag { return Drag{Anchor: d.Anchor, Current: p} }

// Result is what a surface emits exactly once: a selection, or a cancellation.
type Result struct {
	Selection geometry.Selection
	Cancelled bool
}

// View is a rendering snapshot of a surface.
type View struct {
	State     State
	Drag      Drag
	Dragging  bool
	Crosshair geometry.Point
	Hovering  bool
}

// Surface is the selection state machine for one display. Input methods are
// called from the UI goroutine; Teardown may come from any goroutine.
type Surface struct {
	display geometry.Display

	mu        sync.Mutex
	state     State
	drag      Drag
	crosshair geometry.Point
	hovering  bool
	scale     float64
	emit      func(*Surface, Result)
}

// NewSurface returns an idle surface. emit receives the surface's single
// result; it is called without the surface lock held.
func NewSurface(display geometry.Display, emit func(*Surface, Result)) *Surface {
	return &Surface{display: display, emit: emit}
}

func (s *Surface) Display() geometry.Display { return s.display }

// SetScale records the pixels-per-unit density the surface is rendered at.
// Non-positive values are ignored.
func (s *Surface) SetScale(f float64) {
	if f <= 0 {
		return
	}
	s.mu.Lock()
	s.scale = f
	s.mu.Unlock()
}

// Scale is the measured density, or the display's ScaleFactor until one
// has been recorded.
func (s *Surface) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scale > 0 {
		return s.scale
	}
	if s.display.ScaleFactor > 0 {
		return s.display.ScaleFactor
	}
	return 1
}

func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Surface) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		State:     s.state,
		Drag:      s.drag,
		Dragging:  s.state == StateDragging,
		Crosshair: s.crosshair,
		Hovering:  s.hovering,
	}
}

// Hover moves the crosshair without starting a gesture.
func (s *Surface) Hover(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.crosshair = p
	s.hovering = true
}

func (s *Surface) PointerDown(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return
	}
	s.state = StateDragging
	s.drag = Drag{Anchor: p, Current: p}
	s.crosshair = p
}

func (s *Surface) PointerMove(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.crosshair = p
	if s.state == StateDragging {
		s.drag = s.drag.moved(p)
	}
}

// PointerUp ends the gesture. Selections not larger than
// geometry.MinSelectionSpan in both dimensions emit a cancellation.
func (s *Surface) PointerUp(p geometry.Point) {
	s.mu.Lock()
	if s.state != StateDragging {
		s.mu.Unlock()
		return
	}
	s.drag = s.drag.moved(p)
	sel := geometry.Selection{Rect: s.drag.Rect(), Display: s.display, Scale: s.scale}
	var res Result
	if sel.Cancels() {
		log.Printf("overlay: selection %v on %s too small, cancelling", sel.Rect, s.display.ID)
		s.state = StateCancelled
		res = Result{Cancelled: true}
	} else {
		s.state = StateFinished
		res = Result{Selection: sel}
	}
	emit := s.emit
	s.mu.Unlock()

	if emit != nil {
		emit(s, res)
	}
}

// Cancel is the escape-equivalent input, valid while idle or dragging.
func (s *Surface) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateCancelled
	emit := s.emit
	s.mu.Unlock()

	if emit != nil {
		emit(s, Result{Cancelled: true})
	}
}

// Teardown discards any in-progress gesture without emitting. It reports
// whether the surface was still live.
func (s *Surface) Teardown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = StateTornDown
	s.drag = Drag{}
	return true
}

// retire forces the surface into StateTornDown whatever its state. The
// group uses it on every surface that lost the race to decide the outcome.
func (s *Surface) retire() {
	s.mu.Lock()
	s.state = StateTornDown
	s.drag = Drag{}
	s.mu.Unlock()
}
