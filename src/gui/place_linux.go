//go:build linux

package gui

import (
	"image"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// placeWindow configures the X11 window to cover the display's pixel
// bounds. Wayland sessions report no X11 handle and are left unplaced.
func placeWindow(w fyne.Window, b image.Rectangle) bool {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return false
	}
	var handle uintptr
	nw.RunNative(func(ctx any) {
		switch c := ctx.(type) {
		case driver.X11WindowContext:
			handle = c.WindowHandle
		case *driver.X11WindowContext:
			handle = c.WindowHandle
		}
	})
	if handle == 0 {
		return false
	}

	conn, err := xgb.NewConn()
	if err != nil {
		log.Printf("gui: X11 connection for window placement failed: %v", err)
		return false
	}
	defer conn.Close()

	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{uint32(int32(b.Min.X)), uint32(int32(b.Min.Y)), uint32(b.Dx()), uint32(b.Dy())}
	if err := xproto.ConfigureWindowChecked(conn, xproto.Window(handle), mask, values).Check(); err != nil {
		log.Printf("gui: moving window to %v failed: %v", b, err)
		return false
	}
	return true
}
