package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"copyshot/src/capture"
	"copyshot/src/geometry"
	"copyshot/src/textassembly"
)

// client is the subset of *gosseract.Client the engine drives.
type client interface {
	SetImageFromBytes(data []byte) error
	SetLanguage(langs ...string) error
	SetVariable(key gosseract.SettableVariable, value string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// TesseractEngine recognizes text lines with gosseract.
type TesseractEngine struct {
	clientFactory func() client
}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: func() client { return gosseract.NewClient() }}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize returns one fragment per text line, boxes in unit space with a
// bottom-left origin.
func (e *TesseractEngine) Recognize(ctx context.Context, img capture.Image, opts Options) ([]textassembly.Fragment, error) {
	if img.RGBA == nil || img.Width() == 0 || img.Height() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrEngine)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	langs, err := TesseractLanguages(opts.Languages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}

	prepared := Preprocess(img.RGBA, opts.Accuracy)
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return nil, fmt.Errorf("%w: encode image: %w", ErrEngine, err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(langs...); err != nil {
		return nil, fmt.Errorf("%w: set languages: %w", ErrEngine, err)
	}
	if !opts.LanguageCorrection {
		for _, v := range []string{"load_system_dawg", "load_freq_dawg"} {
			if err := c.SetVariable(gosseract.SettableVariable(v), "0"); err != nil {
				return nil, fmt.Errorf("%w: set variable %s: %w", ErrEngine, v, err)
			}
		}
	}
	if opts.Accuracy == Fast {
		if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
			return nil, fmt.Errorf("%w: set page segmentation: %w", ErrEngine, err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: set image: %w", ErrEngine, err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("%w: recognize: %w", ErrEngine, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frags := toFragments(boxes, prepared.Bounds())
	log.Printf("ocr: %d lines from %dx%d image (langs=%v accuracy=%v)", len(frags), img.Width(), img.Height(), langs, opts.Accuracy)
	return frags, nil
}

// toFragments converts top-left pixel boxes to unit-space bottom-left boxes.
func toFragments(boxes []gosseract.BoundingBox, bounds image.Rectangle) []textassembly.Fragment {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	if w == 0 || h == 0 {
		return nil
	}
	out := make([]textassembly.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		r := b.Box.Sub(bounds.Min)
		out = append(out, textassembly.Fragment{
			Text:       text,
			Confidence: float32(b.Confidence / 100.0),
			Box: geometry.Rect{
				X:      float64(r.Min.X) / w,
				Y:      (h - float64(r.Max.Y)) / h,
				Width:  float64(r.Dx()) / w,
				Height: float64(r.Dy()) / h,
			},
		})
	}
	return out
}
