package runtimeinit

import (
	"fmt"
	"log"
	"strings"

	"copyshot/src/clipboard"
	"copyshot/src/config"
	"copyshot/src/notification"
	"copyshot/src/ocr"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)

	// ShowBlockingError surfaces startup failures in a dialog, for the
	// resident app where stderr is invisible.
	ShowBlockingError bool

	// SkipClipboard is set by front ends that only print to stdout.
	SkipClipboard bool
}

func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	langs, err := ocr.TesseractLanguages(cfg.OCRLanguages)
	if err != nil {
		if opts.ShowBlockingError {
			notification.ShowBlockingError("Invalid OCR language", fmt.Sprintf("OCR_LANGUAGES could not be parsed: %v", err))
		}
		return nil, fmt.Errorf("invalid OCR_LANGUAGES: %w", err)
	}
	log.Printf("OCR languages %v -> %s, accuracy %s", cfg.OCRLanguages, strings.Join(langs, "+"), cfg.OCRAccuracy)

	if opts.SkipClipboard {
		return cfg, nil
	}
	if err := clipboard.Init(); err != nil {
		if opts.ShowBlockingError {
			notification.ShowBlockingError("Clipboard unavailable", err.Error())
		}
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	return cfg, nil
}
