package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"copyshot/src/ocr"
)

const (
	AltEnvPathVar       = "COPYSHOT_ENV"
	DefaultHotkey       = "Ctrl+Alt+Q"
	DefaultLanguages    = "en-US"
	DefaultFrameTimeout = 8
	DefaultOCRDeadline  = 20
)

// LoadOptions carries command-line overrides; empty fields are ignored.
type LoadOptions struct {
	LanguagesOverride string
	AccuracyOverride  string
}

type Config struct {
	Hotkey                string
	EnableFileLogging     bool
	OCRLanguages          []string
	OCRAccuracy           ocr.Accuracy
	OCRLanguageCorrection bool
	FrameTimeoutSec       int
	OCRDeadlineSec        int

	// DisplayScale forces one pixels-per-unit factor on every display. Zero
	// lets each overlay window measure its own canvas scale.
	DisplayScale      float64
	ShowNotifications bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use COPYSHOT_ENV as a path to a config file
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	languages := getEnvWithDefault("OCR_LANGUAGES", DefaultLanguages)
	if o := strings.TrimSpace(opts.LanguagesOverride); o != "" {
		languages = o
	}
	accuracyValue := os.Getenv("OCR_ACCURACY")
	if o := strings.TrimSpace(opts.AccuracyOverride); o != "" {
		accuracyValue = o
	}
	accuracy, err := ocr.ParseAccuracy(accuracyValue)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_ACCURACY: %w", err)
	}

	cfg := &Config{
		Hotkey:                getEnvWithDefault("HOTKEY", DefaultHotkey),
		EnableFileLogging:     getBool("ENABLE_FILE_LOGGING", false),
		OCRLanguages:          splitList(languages),
		OCRAccuracy:           accuracy,
		OCRLanguageCorrection: getBool("OCR_LANGUAGE_CORRECTION", false),
		FrameTimeoutSec:       getPositiveInt("FRAME_TIMEOUT_SEC", DefaultFrameTimeout),
		OCRDeadlineSec:        getPositiveInt("OCR_DEADLINE_SEC", DefaultOCRDeadline),
		DisplayScale:          getScale("DISPLAY_SCALE", 0),
		ShowNotifications:     getBool("SHOW_NOTIFICATIONS", true),
	}
	return cfg, nil
}

// RecognitionOptions are the OCR settings passed to every capture.
func (c *Config) RecognitionOptions() ocr.Options {
	return ocr.Options{
		Languages:          append([]string(nil), c.OCRLanguages...),
		Accuracy:           c.OCRAccuracy,
		LanguageCorrection: c.OCRLanguageCorrection,
	}
}

func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.FrameTimeoutSec) * time.Second
}

func (c *Config) OCRDeadline() time.Duration {
	return time.Duration(c.OCRDeadlineSec) * time.Second
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(AltEnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getScale(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
