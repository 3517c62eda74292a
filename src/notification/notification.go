// Package notification turns capture outcomes into user-facing messages.
package notification

import (
	"fmt"
	"log"
	"unicode/utf8"

	"fyne.io/fyne/v2"

	"copyshot/src/logutil"
	"copyshot/src/orchestrator"
)

const previewLimit = 200

// Message is one desktop notification.
type Message struct {
	Title string
	Body  string
}

// Format builds the notification for a capture result. The second return is
// false for outcomes that stay silent, which is only a user cancellation.
func Format(text string, err error) (Message, bool) {
	if err == nil {
		if text == "" {
			return Message{Title: "No text found", Body: "The selected region contained no recognizable text."}, true
		}
		return Message{Title: "Text Copied", Body: preview(text)}, true
	}
	switch orchestrator.KindOf(err) {
	case orchestrator.UserCancelled:
		return Message{}, false
	case orchestrator.Busy:
		return Message{Title: "Capture in progress", Body: "Finish the current capture first."}, true
	case orchestrator.PermissionDenied:
		return Message{Title: "Screen recording not permitted", Body: "Allow screen capture for CopyShot and try again."}, true
	case orchestrator.DisplayMismatch:
		return Message{Title: "Display changed", Body: "The selected display could not be captured. Try again."}, true
	case orchestrator.StreamStartFailure:
		return Message{Title: "Capture failed", Body: "The screen capture could not be started."}, true
	case orchestrator.FrameTimeout:
		return Message{Title: "Capture timed out", Body: "No image was received from the display."}, true
	case orchestrator.OCREngineFailure:
		return Message{Title: "Text recognition failed", Body: err.Error()}, true
	default:
		return Message{Title: "Capture failed", Body: err.Error()}, true
	}
}

// preview truncates to 200 characters, on a rune boundary.
func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	return string([]rune(text)[:previewLimit]) + "..."
}

// Desktop shows notifications through the fyne app. A nil app, or a
// disabled notifier, only logs.
type Desktop struct {
	app     fyne.App
	enabled bool
}

func NewDesktop(app fyne.App, enabled bool) *Desktop {
	return &Desktop{app: app, enabled: enabled}
}

func (d *Desktop) Notify(text string, err error) {
	msg, ok := Format(text, err)
	if !ok {
		log.Printf("notification: capture cancelled (silent)")
		return
	}
	log.Printf("notification: %s: %s", msg.Title, logutil.Sanitize(msg.Body))
	if !d.enabled || d.app == nil {
		return
	}
	d.app.SendNotification(fyne.NewNotification(msg.Title, msg.Body))
}

// ShowBlockingError reports a startup failure before the app is running.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	fmt.Printf("%s: %s\n", title, message)
}
