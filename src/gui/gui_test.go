package gui

import (
	"context"
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"copyshot/src/geometry"
	"copyshot/src/overlay"
)

func TestHUDLabel(t *testing.T) {
	tests := []struct {
		r     geometry.Rect
		scale float64
		want  string
	}{
		{geometry.Rect{Width: 120, Height: 40}, 1, "120 × 40"},
		{geometry.Rect{Width: 120, Height: 40}, 2, "240 × 80"},
		{geometry.Rect{Width: 10.4, Height: 7.6}, 1.5, "16 × 11"},
	}
	for _, tt := range tests {
		if got := hudLabel(tt.r, tt.scale); got != tt.want {
			t.Errorf("hudLabel(%v, %v) = %q, want %q", tt.r, tt.scale, got, tt.want)
		}
	}
}

func TestHUDPosition(t *testing.T) {
	label := fyne.NewSize(60, 16)
	if p := hudPosition(geometry.Rect{X: 50, Y: 100, Width: 10, Height: 10}, label); p != fyne.NewPos(50, 80) {
		t.Errorf("above selection: got %v", p)
	}
	if p := hudPosition(geometry.Rect{X: 50, Y: 5, Width: 10, Height: 10}, label); p != fyne.NewPos(50, 9) {
		t.Errorf("no room above: got %v", p)
	}
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func TestSurfaceViewDrivesSurface(t *testing.T) {
	test.NewTempApp(t)

	var got []overlay.Result
	s := overlay.NewSurface(geometry.Display{ID: "d", ScaleFactor: 1}, func(_ *overlay.Surface, r overlay.Result) {
		got = append(got, r)
	})
	v := newSurfaceView(s, nil)
	w := test.NewWindow(v)
	defer w.Close()
	w.Resize(fyne.NewSize(400, 300))

	v.MouseMoved(mouse(20, 20))
	v.MouseDown(mouse(20, 20))
	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(120, 80)}})
	if s.State() != overlay.StateDragging {
		t.Fatalf("state = %v, want dragging", s.State())
	}
	v.DragEnd()
	v.MouseUp(mouse(120, 80))

	if len(got) != 1 || got[0].Cancelled {
		t.Fatalf("results = %+v, want one selection", got)
	}
	if got[0].Selection.Rect != (geometry.Rect{X: 20, Y: 20, Width: 100, Height: 60}) {
		t.Fatalf("selection = %v", got[0].Selection.Rect)
	}
}

func TestSecondaryClickCancels(t *testing.T) {
	test.NewTempApp(t)

	cancelled := false
	s := overlay.NewSurface(geometry.Display{}, func(_ *overlay.Surface, r overlay.Result) { cancelled = r.Cancelled })
	v := newSurfaceView(s, nil)
	ev := mouse(5, 5)
	ev.Button = desktop.MouseButtonSecondary
	v.MouseDown(ev)
	if !cancelled || s.State() != overlay.StateCancelled {
		t.Fatalf("cancelled=%v state=%v", cancelled, s.State())
	}
}

func TestOverlayPresentAndDismiss(t *testing.T) {
	a := test.NewTempApp(t)
	o := NewOverlay(a, nil)
	o.place = func(fyne.Window, image.Rectangle) bool { return true }
	g := overlay.NewGroup([]geometry.Display{{ID: "a"}, {ID: "b"}})

	if err := o.Present(context.Background(), g.Surfaces()); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if o.Open() != 2 {
		t.Fatalf("open windows = %d, want 2", o.Open())
	}
	o.Dismiss()
	if o.Open() != 0 {
		t.Fatalf("open windows = %d after dismiss", o.Open())
	}
}

func TestOverlayWithoutApp(t *testing.T) {
	if err := NewOverlay(nil, nil).Present(context.Background(), nil); err == nil {
		t.Fatal("expected error without an app")
	}
}

func TestSurfaceViewUsesCanvasScale(t *testing.T) {
	test.NewTempApp(t)

	var got []overlay.Result
	s := overlay.NewSurface(geometry.Display{ID: "uhd", ScaleFactor: 1}, func(_ *overlay.Surface, r overlay.Result) {
		got = append(got, r)
	})
	v := newSurfaceView(s, nil)
	v.scale = func() float32 { return 2 }
	w := test.NewWindow(v)
	defer w.Close()
	w.Resize(fyne.NewSize(400, 300))

	v.MouseDown(mouse(20, 20))
	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(120, 80)}})
	rect := s.Snapshot().Drag.Rect()
	if label := hudLabel(rect, s.Scale()); label != "200 × 120" {
		t.Fatalf("hud = %q, want 200 × 120", label)
	}
	v.DragEnd()

	if len(got) != 1 || got[0].Cancelled {
		t.Fatalf("results = %+v, want one selection", got)
	}
	if got[0].Selection.Scale != 2 {
		t.Fatalf("selection scale = %v, want 2", got[0].Selection.Scale)
	}
}

func TestSurfaceViewFollowsScaledTestCanvas(t *testing.T) {
	test.NewTempApp(t)

	s := overlay.NewSurface(geometry.Display{ID: "uhd", ScaleFactor: 1}, nil)
	v := newSurfaceView(s, nil)
	w := test.NewWindow(v)
	defer w.Close()
	c, ok := w.Canvas().(interface{ SetScale(float32) })
	if !ok {
		t.Skip("test canvas cannot change scale")
	}
	c.SetScale(2)
	v.scale = w.Canvas().Scale

	v.MouseDown(mouse(10, 10))
	if got := s.Scale(); got != 2 {
		t.Fatalf("surface scale = %v, want 2", got)
	}
}

type placement struct {
	window fyne.Window
	bounds image.Rectangle
}

func TestOverlayPlacesEachSurfaceOnItsDisplay(t *testing.T) {
	a := test.NewTempApp(t)
	o := NewOverlay(a, nil)
	var placed []placement
	o.place = func(w fyne.Window, b image.Rectangle) bool {
		placed = append(placed, placement{w, b})
		return true
	}
	g := overlay.NewGroup([]geometry.Display{
		{ID: "uhd", Frame: geometry.Rect{Width: 1920, Height: 1080}, ScaleFactor: 2},
		{ID: "hd", Frame: geometry.Rect{X: 1920, Width: 1920, Height: 1080}, ScaleFactor: 1},
	})

	if err := o.Present(context.Background(), g.Surfaces()); err != nil {
		t.Fatalf("Present: %v", err)
	}
	defer o.Dismiss()

	want := []image.Rectangle{image.Rect(0, 0, 3840, 2160), image.Rect(1920, 0, 3840, 1080)}
	if len(placed) != len(want) || o.Open() != len(want) {
		t.Fatalf("placed %d windows, open %d; want %d", len(placed), o.Open(), len(want))
	}
	for i, p := range placed {
		if p.bounds != want[i] {
			t.Errorf("window %d placed at %v, want %v", i, p.bounds, want[i])
		}
		if p.window != o.windows[i] {
			t.Errorf("window %d is not the one presenting surface %d", i, i)
		}
	}
}

func TestOverlayDropsSurfacesItCannotPlace(t *testing.T) {
	a := test.NewTempApp(t)
	o := NewOverlay(a, nil)
	o.place = func(fyne.Window, image.Rectangle) bool { return false }
	g := overlay.NewGroup([]geometry.Display{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	if err := o.Present(context.Background(), g.Surfaces()); err != nil {
		t.Fatalf("Present: %v", err)
	}
	defer o.Dismiss()

	if o.Open() != 1 {
		t.Fatalf("open windows = %d, want 1", o.Open())
	}
	states := []overlay.State{g.Surfaces()[0].State(), g.Surfaces()[1].State(), g.Surfaces()[2].State()}
	if states[0] != overlay.StateIdle || states[1] != overlay.StateTornDown || states[2] != overlay.StateTornDown {
		t.Fatalf("states = %v, want idle then torn down", states)
	}
	if g.Live() != 1 {
		t.Fatalf("Live = %d, want 1", g.Live())
	}
}

func TestOverlayPlacementPanicIsContained(t *testing.T) {
	a := test.NewTempApp(t)
	o := NewOverlay(a, nil)
	o.place = func(fyne.Window, image.Rectangle) bool { panic("no native handle") }
	g := overlay.NewGroup([]geometry.Display{{ID: "a"}})

	if err := o.Present(context.Background(), g.Surfaces()); err != nil {
		t.Fatalf("Present: %v", err)
	}
	defer o.Dismiss()
	if o.Open() != 1 {
		t.Fatalf("open windows = %d, want 1", o.Open())
	}
}

func TestOverlayScaleMeasurement(t *testing.T) {
	tests := []struct {
		name  string
		fixed bool
	}{
		{"measured", false},
		{"fixed", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := test.NewTempApp(t)
			o := NewOverlay(a, nil)
			o.place = func(fyne.Window, image.Rectangle) bool { return true }
			if tt.fixed {
				o.FixScale()
			}
			g := overlay.NewGroup([]geometry.Display{{ID: "a", ScaleFactor: 1.5}})
			if err := o.Present(context.Background(), g.Surfaces()); err != nil {
				t.Fatalf("Present: %v", err)
			}
			defer o.Dismiss()

			want := 1.5
			if c := o.windows[0].Canvas().Scale(); !tt.fixed && c > 0 {
				want = float64(c)
			}
			if got := g.Surfaces()[0].Scale(); got != want {
				t.Fatalf("surface scale = %v, want %v", got, want)
			}
		})
	}
}

func TestPixelBounds(t *testing.T) {
	tests := []struct {
		d    geometry.Display
		want image.Rectangle
	}{
		{geometry.Display{Frame: geometry.Rect{Width: 1920, Height: 1080}, ScaleFactor: 2}, image.Rect(0, 0, 3840, 2160)},
		{geometry.Display{Frame: geometry.Rect{X: -1280, Width: 1280, Height: 1024}}, image.Rect(-1280, 0, 0, 1024)},
		{geometry.Display{Frame: geometry.Rect{X: 1280, Y: 0, Width: 1706.6667, Height: 960}, ScaleFactor: 1.5}, image.Rect(1920, 0, 4480, 1440)},
	}
	for _, tt := range tests {
		if got := pixelBounds(tt.d); got != tt.want {
			t.Errorf("pixelBounds(%v) = %v, want %v", tt.d.Frame, got, tt.want)
		}
	}
}
