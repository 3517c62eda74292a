package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"copyshot/src/capture"
	"copyshot/src/geometry"
	"copyshot/src/ocr"
	"copyshot/src/textassembly"
)

type fakeRecognizer struct {
	frags []textassembly.Fragment
	err   error
	got   capture.Image
	opts  ocr.Options
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img capture.Image, opts ocr.Options) ([]textassembly.Fragment, error) {
	f.got = img
	f.opts = opts
	return f.frags, f.err
}

func withRecognizer(t *testing.T, r ocr.Recognizer) {
	t.Helper()
	orig := newRecognizer
	newRecognizer = func() ocr.Recognizer { return r }
	t.Cleanup(func() { newRecognizer = orig })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OCR_LANGUAGES", "OCR_ACCURACY", "OCR_LANGUAGE_CORRECTION", "OCR_DEADLINE_SEC", "COPYSHOT_ENV"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func frag(text string, y float64) textassembly.Fragment {
	return textassembly.Fragment{Text: text, Box: geometry.Rect{X: 0.1, Y: y, Width: 0.5, Height: 0.1}, Confidence: 0.9}
}

func TestPNGValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"ValidPNG", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}, false},
		{"InvalidMagic", []byte{0x00, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, true},
		{"TooShort", []byte{0x89, 'P', 'N', 'G'}, true},
		{"Empty", []byte{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePNG(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePNG() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLegacyArgs(t *testing.T) {
	in := []string{"copyshot-ocr", "-file", "a.png", "-json", "-lang=de", "--verbose", "-x"}
	want := []string{"copyshot-ocr", "--file", "a.png", "--json", "--lang=de", "--verbose", "-x"}
	if got := normalizeLegacyArgs(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeLegacyArgs = %q, want %q", got, want)
	}
}

func TestRunPlainTextFromStdin(t *testing.T) {
	clearEnv(t)
	rec := &fakeRecognizer{frags: []textassembly.Fragment{frag("second", 0.2), frag("first", 0.7)}}
	withRecognizer(t, rec)

	var out bytes.Buffer
	err := runWithArgs([]string{"copyshot-ocr", "--file", "-", "--lang", "fr", "--accuracy", "fast"}, bytes.NewReader(pngBytes(t, 40, 20)), &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "first\nsecond" {
		t.Fatalf("output = %q", out.String())
	}
	if w, h := rec.got.Width(), rec.got.Height(); w != 40 || h != 20 {
		t.Fatalf("recognizer got %dx%d image", w, h)
	}
	want := ocr.Options{Languages: []string{"fr"}, Accuracy: ocr.Fast}
	if !reflect.DeepEqual(rec.opts, want) {
		t.Fatalf("options = %+v, want %+v", rec.opts, want)
	}
}

func TestRunJSONFromFile(t *testing.T) {
	clearEnv(t)
	withRecognizer(t, &fakeRecognizer{frags: []textassembly.Fragment{frag("héllo", 0.5)}})

	path := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(path, pngBytes(t, 10, 10), 0600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := runWithArgs([]string{"copyshot-ocr", "-file", path, "-json"}, nil, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var result OCRResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if result.Text != "héllo" || result.CharCount != 5 || result.Source != path || result.Timestamp == "" {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunErrors(t *testing.T) {
	clearEnv(t)
	tooBig := append(append([]byte{}, pngMagic...), make([]byte, maxFileSize)...)
	tests := []struct {
		name  string
		args  []string
		stdin []byte
		rec   *fakeRecognizer
		want  string
	}{
		{"missing file flag", []string{"copyshot-ocr"}, nil, &fakeRecognizer{}, "file"},
		{"empty input", []string{"copyshot-ocr", "--file", "-"}, []byte{}, &fakeRecognizer{}, "empty"},
		{"not png", []string{"copyshot-ocr", "--file", "-"}, []byte("GIF89a.."), &fakeRecognizer{}, "magic"},
		{"too large", []string{"copyshot-ocr", "--file", "-"}, tooBig, &fakeRecognizer{}, "maximum size"},
		{"corrupt png", []string{"copyshot-ocr", "--file", "-"}, append(append([]byte{}, pngMagic...), 1, 2, 3), &fakeRecognizer{}, "decode"},
		{"engine failure", []string{"copyshot-ocr", "--file", "-"}, nil, &fakeRecognizer{err: errors.New("no traineddata")}, "no traineddata"},
		{"bad accuracy", []string{"copyshot-ocr", "--file", "-", "--accuracy", "turbo"}, nil, &fakeRecognizer{}, "configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRecognizer(t, tt.rec)
			stdin := tt.stdin
			if stdin == nil {
				stdin = pngBytes(t, 8, 8)
			}
			err := runWithArgs(tt.args, bytes.NewReader(stdin), &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
