package gui

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"copyshot/src/geometry"
	"copyshot/src/overlay"
)

const hintText = "Drag to select text    ESC cancel"

var (
	shadeColor     = color.NRGBA{A: 110}
	selectionFill  = color.NRGBA{R: 255, G: 255, B: 255, A: 40}
	selectionEdge  = color.NRGBA{R: 0, G: 120, B: 212, A: 255}
	crosshairColor = color.NRGBA{R: 255, G: 255, B: 255, A: 140}
	labelColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// surfaceView draws one surface and forwards input into it.
type surfaceView struct {
	widget.BaseWidget

	surface    *overlay.Surface
	background image.Image
	last       geometry.Point

	// scale reports the canvas density; nil keeps the display's factor.
	scale func() float32
}

func newSurfaceView(s *overlay.Surface, background image.Image) *surfaceView {
	v := &surfaceView{surface: s, background: background}
	v.ExtendBaseWidget(v)
	return v
}

func toPoint(p fyne.Position) geometry.Point {
	return geometry.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (v *surfaceView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		v.surface.Cancel()
		return
	}
	if v.scale != nil {
		v.surface.SetScale(float64(v.scale()))
	}
	v.last = toPoint(ev.Position)
	v.surface.PointerDown(v.last)
	v.Refresh()
}

func (v *surfaceView) MouseUp(ev *desktop.MouseEvent) {
	v.last = toPoint(ev.Position)
	v.surface.PointerUp(v.last)
	v.Refresh()
}

func (v *surfaceView) Dragged(ev *fyne.DragEvent) {
	v.last = toPoint(ev.Position)
	v.surface.PointerMove(v.last)
	v.Refresh()
}

// DragEnd finishes the gesture at the last dragged point; a MouseUp that
// follows is ignored by the surface.
func (v *surfaceView) DragEnd() {
	v.surface.PointerUp(v.last)
	v.Refresh()
}

func (v *surfaceView) MouseIn(ev *desktop.MouseEvent) {
	v.surface.Hover(toPoint(ev.Position))
	v.Refresh()
}

func (v *surfaceView) MouseMoved(ev *desktop.MouseEvent) {
	v.surface.PointerMove(toPoint(ev.Position))
	v.Refresh()
}

func (v *surfaceView) MouseOut() {}

func (v *surfaceView) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (v *surfaceView) CreateRenderer() fyne.WidgetRenderer {
	r := &surfaceRenderer{
		view:      v,
		shade:     canvas.NewRectangle(shadeColor),
		selection: canvas.NewRectangle(selectionFill),
		hLine:     canvas.NewLine(crosshairColor),
		vLine:     canvas.NewLine(crosshairColor),
		hud:       canvas.NewText("", labelColor),
		hint:      canvas.NewText(hintText, labelColor),
	}
	if v.background != nil {
		r.background = canvas.NewImageFromImage(v.background)
		r.background.FillMode = canvas.ImageFillStretch
	}
	r.selection.StrokeColor = selectionEdge
	r.selection.StrokeWidth = 1.5
	r.hud.TextSize = 12
	r.hint.TextSize = 14
	r.hint.TextStyle = fyne.TextStyle{Bold: true}
	return r
}

type surfaceRenderer struct {
	view       *surfaceView
	background *canvas.Image
	shade      *canvas.Rectangle
	selection  *canvas.Rectangle
	hLine      *canvas.Line
	vLine      *canvas.Line
	hud        *canvas.Text
	hint       *canvas.Text
	size       fyne.Size
}

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, 7)
	if r.background != nil {
		objs = append(objs, r.background)
	}
	return append(objs, r.shade, r.selection, r.hLine, r.vLine, r.hud, r.hint)
}

func (r *surfaceRenderer) MinSize() fyne.Size { return fyne.NewSize(1, 1) }

func (r *surfaceRenderer) Destroy() {}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.size = size
	if r.background != nil {
		r.background.Resize(size)
		r.background.Move(fyne.NewPos(0, 0))
	}
	r.shade.Resize(size)
	r.shade.Move(fyne.NewPos(0, 0))
	r.hint.Move(fyne.NewPos(16, 16))
	r.place(r.view.surface.Snapshot())
}

func (r *surfaceRenderer) Refresh() {
	r.place(r.view.surface.Snapshot())
	for _, o := range r.Objects() {
		o.Refresh()
	}
}

// place positions the feedback objects for the current gesture.
func (r *surfaceRenderer) place(view overlay.View) {
	c := view.Crosshair
	r.hLine.Position1 = fyne.NewPos(0, float32(c.Y))
	r.hLine.Position2 = fyne.NewPos(r.size.Width, float32(c.Y))
	r.vLine.Position1 = fyne.NewPos(float32(c.X), 0)
	r.vLine.Position2 = fyne.NewPos(float32(c.X), r.size.Height)
	showCrosshair := !view.State.Terminal() && (view.Hovering || view.Dragging || c != geometry.Point{})
	setVisible(r.hLine, showCrosshair)
	setVisible(r.vLine, showCrosshair)

	if !view.Dragging {
		r.selection.Hide()
		r.hud.Hide()
		return
	}
	rect := view.Drag.Rect()
	r.selection.Move(fyne.NewPos(float32(rect.X), float32(rect.Y)))
	r.selection.Resize(fyne.NewSize(float32(rect.Width), float32(rect.Height)))
	r.selection.Show()

	r.hud.Text = hudLabel(rect, r.view.surface.Scale())
	r.hud.Move(hudPosition(rect, r.hud.MinSize()))
	r.hud.Show()
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}

// hudLabel is the live "W × H" readout in physical pixels.
func hudLabel(r geometry.Rect, scale float64) string {
	w, h := geometry.OutputSize(r, scale)
	return fmt.Sprintf("%d × %d", w, h)
}

// hudPosition places the readout just above the selection, or inside its top
// edge when there is no room above.
func hudPosition(r geometry.Rect, label fyne.Size) fyne.Position {
	y := float32(r.Y) - label.Height - 4
	if y < 0 {
		y = float32(r.Y) + 4
	}
	x := float32(math.Max(r.X, 0))
	return fyne.NewPos(x, y)
}
