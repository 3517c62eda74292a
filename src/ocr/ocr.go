// Package ocr is the text recognizer behind the capture pipeline.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"copyshot/src/capture"
	"copyshot/src/textassembly"
)

// ErrEngine marks a recognizer fault, as opposed to finding no text.
var ErrEngine = errors.New("ocr engine failure")

type Accuracy int

const (
	Accurate Accuracy = iota
	Fast
)

func (a Accuracy) String() string {
	if a == Fast {
		return "fast"
	}
	return "accurate"
}

// ParseAccuracy accepts "fast" or "accurate", case-insensitively.
func ParseAccuracy(s string) (Accuracy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accurate":
		return Accurate, nil
	case "fast":
		return Fast, nil
	default:
		return Accurate, fmt.Errorf("unknown OCR accuracy %q (want fast or accurate)", s)
	}
}

// Options are the caller-supplied recognition settings.
type Options struct {
	Languages          []string // BCP-47 tags
	Accuracy           Accuracy
	LanguageCorrection bool
}

// Recognizer turns an image into unordered fragments. An image without
// text yields no fragments and a nil error.
type Recognizer interface {
	Recognize(ctx context.Context, img capture.Image, opts Options) ([]textassembly.Fragment, error)
}
