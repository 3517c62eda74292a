package notification

import (
	"errors"
	"strings"
	"testing"

	"copyshot/src/capture"
	"copyshot/src/orchestrator"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		err       error
		wantTitle string
		silent    bool
	}{
		{"success", "Hello", nil, "Text Copied", false},
		{"empty", "", nil, "No text found", false},
		{"cancelled", "", orchestrator.ErrUserCancelled, "", true},
		{"busy", "", orchestrator.ErrBusy, "Capture in progress", false},
		{"permission", "", &orchestrator.Error{Kind: orchestrator.PermissionDenied, Err: capture.ErrPermissionDenied}, "Screen recording not permitted", false},
		{"timeout", "", orchestrator.ErrFrameTimeout, "Capture timed out", false},
		{"ocr", "", orchestrator.ErrOCREngineFailure, "Text recognition failed", false},
		{"generic", "", errors.New("disk on fire"), "Capture failed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Format(tt.text, tt.err)
			if ok == tt.silent {
				t.Fatalf("shown = %v, want %v", ok, !tt.silent)
			}
			if msg.Title != tt.wantTitle {
				t.Fatalf("title = %q, want %q", msg.Title, tt.wantTitle)
			}
		})
	}
}

func TestFormatPreviewTruncates(t *testing.T) {
	long := strings.Repeat("é", 250)
	msg, _ := Format(long, nil)
	if !strings.HasSuffix(msg.Body, "...") || len([]rune(msg.Body)) != 203 {
		t.Fatalf("preview has %d runes, want 200 plus ellipsis", len([]rune(msg.Body)))
	}
	msg, _ = Format("short", nil)
	if msg.Body != "short" {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestGenericFailureCarriesMessage(t *testing.T) {
	msg, _ := Format("", &orchestrator.Error{Kind: orchestrator.Failure, Err: errors.New("no displays")})
	if !strings.Contains(msg.Body, "no displays") {
		t.Fatalf("body = %q, want the underlying message", msg.Body)
	}
}

func TestDesktopWithoutAppOnlyLogs(t *testing.T) {
	d := NewDesktop(nil, true)
	d.Notify("text", nil)
	d.Notify("", orchestrator.ErrUserCancelled)
}
