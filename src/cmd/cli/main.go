package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"copyshot/src/capture"
	"copyshot/src/config"
	"copyshot/src/ocr"
	"copyshot/src/textassembly"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	filePath   string
	jsonOutput bool
	verbose    bool
	languages  string
	accuracy   string
}

// newRecognizer is swapped in tests.
var newRecognizer = func() ocr.Recognizer { return ocr.NewTesseractEngine() }

func main() {
	if err := runWithArgs(normalizeLegacyArgs(os.Args), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		args = []string{"copyshot-ocr"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, stdin, stdout)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "copyshot-ocr",
		Short:         "Recognize text in a PNG image",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, stdin, stdout)
		},
	}

	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().StringVar(&opts.languages, "lang", "", "Comma-separated recognition languages (overrides OCR_LANGUAGES)")
	cmd.Flags().StringVar(&opts.accuracy, "accuracy", "", "Recognition accuracy: accurate or fast (overrides OCR_ACCURACY)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(opts cliOptions, stdin io.Reader, stdout io.Writer) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
		fmt.Fprintf(os.Stderr, "[verbose] Starting OCR tool\n")
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		LanguagesOverride: opts.languages,
		AccuracyOverride:  opts.accuracy,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Languages=%v Accuracy=%s\n", cfg.OCRLanguages, cfg.OCRAccuracy)
	}

	imageData, err := readInput(opts.filePath, stdin)
	if err != nil {
		return err
	}
	if err := validatePNG(imageData); err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] Read %d bytes, PNG validation passed\n", len(imageData))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OCRDeadline())
	defer cancel()

	startTime := time.Now()
	text, err := recognize(ctx, newRecognizer(), imageData, cfg.RecognitionOptions())
	elapsed := time.Since(startTime)
	if err != nil {
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "[verbose] OCR failed after %v: %v\n", elapsed, err)
		}
		return fmt.Errorf("OCR failed: %w", err)
	}
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] OCR completed in %v, extracted %d characters\n", elapsed, utf8.RuneCountInString(text))
	}

	return outputResult(stdout, text, opts.filePath, elapsed, opts.jsonOutput)
}

func readInput(filePath string, stdin io.Reader) ([]byte, error) {
	var r io.Reader = stdin
	if filePath != "-" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func validatePNG(data []byte) error {
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return nil
}

// recognize decodes a PNG and runs it through the same recognition and
// reading-order assembly as a screen capture.
func recognize(ctx context.Context, r ocr.Recognizer, data []byte, opts ocr.Options) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode PNG: %w", err)
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	frags, err := r.Recognize(ctx, capture.Image{RGBA: rgba}, opts)
	if err != nil {
		return "", err
	}
	return textassembly.Assemble(frags), nil
}

type OCRResult struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
	CharCount int     `json:"character_count"`
}

func outputResult(w io.Writer, text string, sourcePath string, elapsed time.Duration, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprint(w, text)
		return err
	}
	result := OCRResult{
		Text:      text,
		Source:    sourcePath,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
		CharCount: utf8.RuneCountInString(text),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"file", "json", "verbose", "lang", "accuracy"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}
