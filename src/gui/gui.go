// Package gui renders selection surfaces as full-screen fyne windows and
// feeds pointer and keyboard input back into them.
package gui

import (
	"context"
	"errors"
	"image"
	"log"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"copyshot/src/geometry"
	"copyshot/src/overlay"
)

// BackgroundSource captures the current contents of a display.
type BackgroundSource interface {
	Background(d geometry.Display) (*image.RGBA, error)
}

// Overlay is the fyne implementation of overlay.Presenter.
type Overlay struct {
	app         fyne.App
	backgrounds BackgroundSource

	// place moves a shown window onto a display's pixel bounds and reports
	// whether the platform honoured it.
	place      func(w fyne.Window, bounds image.Rectangle) bool
	fixedScale bool

	mu      sync.Mutex
	windows []fyne.Window
}

func NewOverlay(app fyne.App, backgrounds BackgroundSource) *Overlay {
	return &Overlay{app: app, backgrounds: backgrounds, place: placeWindow}
}

// FixScale stops surfaces from measuring their canvas scale, leaving each
// display's configured ScaleFactor in charge.
func (o *Overlay) FixScale() { o.fixedScale = true }

// Present opens one full-screen window per surface, each moved onto its own
// display before going full screen. Where the platform cannot place windows
// only the first unplaced surface is shown; the rest are torn down so two
// windows never stack on one monitor.
func (o *Overlay) Present(ctx context.Context, surfaces []*overlay.Surface) error {
	if o.app == nil {
		return errors.New("no fyne app")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Screenshots are taken before any overlay window is visible.
	backgrounds := make([]image.Image, len(surfaces))
	if o.backgrounds != nil {
		for i, s := range surfaces {
			img, err := o.backgrounds.Background(s.Display())
			if err != nil {
				log.Printf("gui: background for %s unavailable: %v", s.Display().ID, err)
				continue
			}
			backgrounds[i] = img
		}
	}

	fyne.DoAndWait(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		floating := false
		for i, s := range surfaces {
			w := o.newWindow()
			s := s
			view := newSurfaceView(s, backgrounds[i])
			if !o.fixedScale {
				view.scale = w.Canvas().Scale
			}
			w.SetPadded(false)
			w.SetContent(view)
			w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
				if ev.Name == fyne.KeyEscape {
					s.Cancel()
				}
			})
			w.Show()
			if !o.placeOn(w, s.Display()) {
				if floating {
					log.Printf("gui: cannot place a window on %s, dropping its surface", s.Display().ID)
					w.Close()
					s.Teardown()
					continue
				}
				floating = true
			}
			w.SetOnClosed(s.Cancel)
			w.SetFullScreen(true)
			w.RequestFocus()
			if !o.fixedScale {
				s.SetScale(float64(w.Canvas().Scale()))
			}
			o.windows = append(o.windows, w)
		}
	})
	log.Printf("gui: presented %d of %d selection windows", o.Open(), len(surfaces))
	return nil
}

func (o *Overlay) placeOn(w fyne.Window, d geometry.Display) (ok bool) {
	if o.place == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("gui: placing window on %s panicked: %v", d.ID, r)
			ok = false
		}
	}()
	return o.place(w, pixelBounds(d))
}

// pixelBounds is a display's frame in physical desktop pixels.
func pixelBounds(d geometry.Display) image.Rectangle {
	scale := d.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	f := d.Frame.Scaled(scale)
	return image.Rect(
		int(math.Round(f.X)), int(math.Round(f.Y)),
		int(math.Round(f.MaxX())), int(math.Round(f.MaxY())),
	)
}

func (o *Overlay) newWindow() fyne.Window {
	if drv, ok := o.app.Driver().(desktop.Driver); ok {
		return drv.CreateSplashWindow()
	}
	return o.app.NewWindow("CopyShot")
}

// Dismiss closes every overlay window and returns once they are closed.
func (o *Overlay) Dismiss() {
	o.mu.Lock()
	windows := o.windows
	o.windows = nil
	o.mu.Unlock()
	if len(windows) == 0 {
		return
	}
	fyne.DoAndWait(func() {
		for _, w := range windows {
			w.SetOnClosed(nil)
			w.Close()
		}
	})
	log.Printf("gui: dismissed %d selection windows", len(windows))
}

// Open reports how many overlay windows are up.
func (o *Overlay) Open() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.windows)
}

var _ overlay.Presenter = (*Overlay)(nil)
