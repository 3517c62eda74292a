//go:build windows

package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
	"github.com/lxn/win"
)

// placeWindow moves the native window over the display's pixel bounds and
// keeps it above everything else.
func placeWindow(w fyne.Window, b image.Rectangle) bool {
	nw, ok := w.(driver.NativeWindow)
	if !ok {
		return false
	}
	placed := false
	nw.RunNative(func(ctx any) {
		var hwnd uintptr
		switch c := ctx.(type) {
		case driver.WindowsWindowContext:
			hwnd = c.HWND
		case *driver.WindowsWindowContext:
			hwnd = c.HWND
		}
		if hwnd == 0 {
			return
		}
		placed = win.SetWindowPos(win.HWND(hwnd), win.HWND_TOPMOST,
			int32(b.Min.X), int32(b.Min.Y), int32(b.Dx()), int32(b.Dy()),
			win.SWP_SHOWWINDOW)
	})
	return placed
}
