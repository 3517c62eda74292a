// Package tray is the menu-bar presence: capture and quit actions plus an
// idle/capturing status line.
package tray

import (
	"errors"
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type Config struct {
	Title     string
	Hotkey    string
	OnCapture func()
	OnQuit    func()
}

type Tray struct {
	cfg    Config
	menu   *fyne.Menu
	status *fyne.MenuItem
}

// Status is the status line text for the given state.
func Status(title, hotkey string, capturing bool) string {
	if capturing {
		return fmt.Sprintf("%s - capturing...", title)
	}
	if hotkey == "" {
		return fmt.Sprintf("%s - idle", title)
	}
	return fmt.Sprintf("%s - press %s to capture", title, hotkey)
}

// New installs the system tray on app. It fails when the driver has no tray.
func New(app fyne.App, cfg Config) (*Tray, error) {
	desk, ok := app.(desktop.App)
	if !ok {
		return nil, errors.New("system tray not supported by this driver")
	}
	if cfg.Title == "" {
		cfg.Title = "CopyShot"
	}
	t := &Tray{cfg: cfg}
	t.status = fyne.NewMenuItem(Status(cfg.Title, cfg.Hotkey, false), nil)
	t.status.Disabled = true

	capture := fyne.NewMenuItem("Capture Text", func() {
		if cfg.OnCapture != nil {
			cfg.OnCapture()
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if cfg.OnQuit != nil {
			cfg.OnQuit()
		}
	})
	quit.IsQuit = true

	t.menu = fyne.NewMenu(cfg.Title, t.status, fyne.NewMenuItemSeparator(), capture, quit)
	desk.SetSystemTrayIcon(Icon())
	desk.SetSystemTrayMenu(t.menu)
	return t, nil
}

// SetCapturing updates the status line. Safe from any goroutine.
func (t *Tray) SetCapturing(capturing bool) {
	label := Status(t.cfg.Title, t.cfg.Hotkey, capturing)
	log.Printf("tray: %s", label)
	fyne.Do(func() {
		t.status.Label = label
		t.menu.Refresh()
	})
}
