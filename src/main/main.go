package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"copyshot/src/clipboard"
	"copyshot/src/config"
	"copyshot/src/eventloop"
	"copyshot/src/gui"
	"copyshot/src/logutil"
	"copyshot/src/notification"
	"copyshot/src/ocr"
	"copyshot/src/orchestrator"
	"copyshot/src/overlay"
	"copyshot/src/runtimeinit"
	"copyshot/src/screenshot"
	"copyshot/src/tray"
)

const (
	appID    = "io.copyshot.app"
	appTitle = "CopyShot"
)

type mainOptions struct {
	runOnce   bool
	stdout    bool
	languages string
	accuracy  string
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	opts := &mainOptions{}
	cmd := newRootCmd(opts, run)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions, runFn func(mainOptions) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "copyshot",
		Short:         "Select a screen region and copy its text",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFn(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture once, copy the text to the clipboard and exit")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "With --run-once, print the text instead of copying it")
	cmd.Flags().StringVar(&opts.languages, "lang", "", "Comma-separated recognition languages (overrides OCR_LANGUAGES)")
	cmd.Flags().StringVar(&opts.accuracy, "accuracy", "", "Recognition accuracy: accurate or fast (overrides OCR_ACCURACY)")
	return cmd
}

// normalizeLegacyArgs maps Go-style single-dash long flags to cobra's
// double-dash form.
func normalizeLegacyArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 1; i < len(out); i++ {
		arg := out[i]
		for _, name := range []string{"run-once", "stdout", "lang", "accuracy"} {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				out[i] = "-" + arg
				break
			}
		}
	}
	return out
}

func run(opts mainOptions) error {
	if opts.stdout && !opts.runOnce {
		return errors.New("--stdout requires --run-once")
	}
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:       config.LoadOptions{LanguagesOverride: opts.languages, AccuracyOverride: opts.accuracy},
		SetupLogging:      logutil.Setup,
		ShowBlockingError: !opts.runOnce,
		SkipClipboard:     opts.stdout,
	})
	if err != nil {
		return err
	}

	a := app.NewWithID(appID)
	displays := screenshot.NewEnumerator(cfg.DisplayScale)
	orch, err := newOrchestrator(a, displays, cfg)
	if err != nil {
		return err
	}
	defer orch.Close()
	logDisplays(displays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			log.Printf("signal received, shutting down")
			cancel()
			fyne.Do(a.Quit)
		case <-ctx.Done():
		}
	}()

	notifier := notification.NewDesktop(a, cfg.ShowNotifications)
	if opts.runOnce {
		return runOnce(ctx, a, orch, notifier, cfg, opts.stdout)
	}
	return runResident(ctx, cancel, a, orch, notifier, cfg)
}

func newOrchestrator(a fyne.App, displays *screenshot.Enumerator, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	ov := gui.NewOverlay(a, displays)
	if cfg.DisplayScale > 0 {
		ov.FixScale()
	}
	return orchestrator.New(orchestrator.Options{
		Displays:     displays,
		Selector:     overlay.NewSelector(ov),
		Opener:       screenshot.NewOpener(),
		Recognizer:   ocr.NewTesseractEngine(),
		FrameTimeout: cfg.FrameTimeout(),
		OCRDeadline:  cfg.OCRDeadline(),
	})
}

func logDisplays(e *screenshot.Enumerator) {
	displays, err := e.Displays()
	if err != nil {
		log.Printf("MONITOR: %v", err)
		return
	}
	log.Printf("MONITOR: Detected %d displays", len(displays))
	for _, d := range displays {
		log.Printf("MONITOR: %s frame=%v scale=%.2f", d.ID, d.Frame, d.ScaleFactor)
	}
}

func runResident(ctx context.Context, cancel context.CancelFunc, a fyne.App, orch *orchestrator.Orchestrator, notifier *notification.Desktop, cfg *config.Config) error {
	log.Printf("%s initialized, hotkey %s, OCR deadline %ds", appTitle, cfg.Hotkey, cfg.OCRDeadlineSec)

	var loop *eventloop.Loop
	t, err := tray.New(a, tray.Config{
		Title:     appTitle,
		Hotkey:    cfg.Hotkey,
		OnCapture: func() { loop.Trigger() },
		OnQuit: func() {
			cancel()
			a.Quit()
		},
	})
	if err != nil {
		return err
	}
	loop = eventloop.New(orch, clipboard.Sink{}, notifier, t, cfg.RecognitionOptions())
	if err := loop.StartHotkey(cfg.Hotkey); err != nil {
		notification.ShowBlockingError("Hotkey unavailable", err.Error())
		return err
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
		}
	}()

	a.Run()
	cancel()
	<-loopDone
	return nil
}

func runOnce(ctx context.Context, a fyne.App, orch *orchestrator.Orchestrator, notifier *notification.Desktop, cfg *config.Config, toStdout bool) error {
	log.Printf("Running capture once with OCR deadline %ds", cfg.OCRDeadlineSec)

	errCh := make(chan error, 1)
	go func() {
		defer fyne.Do(a.Quit)
		errCh <- captureOnce(ctx, orch, notifier, cfg.RecognitionOptions(), toStdout)
	}()
	a.Run()

	var runErr error
	select {
	case runErr = <-errCh:
	default:
		// The app quit under a running capture; its windows are gone with it.
		orch.Cancel()
		log.Printf("app quit before the capture finished")
		return nil
	}
	if orchestrator.KindOf(runErr) == orchestrator.UserCancelled {
		log.Printf("capture cancelled")
		return nil
	}
	return runErr
}

func captureOnce(ctx context.Context, orch *orchestrator.Orchestrator, notifier *notification.Desktop, opts ocr.Options, toStdout bool) error {
	text, err := orch.Capture(ctx, opts)
	if err != nil {
		notifier.Notify("", err)
		return err
	}
	log.Printf("OCR extracted text (%d bytes): %s", len(text), logutil.Sanitize(text))
	if toStdout {
		return deliver(text, os.Stdout, nil)
	}
	err = deliver(text, nil, clipboard.Write)
	notifier.Notify(text, err)
	return err
}

// deliver writes text to w when set, otherwise to the clipboard. Empty text
// leaves the clipboard untouched.
func deliver(text string, w io.Writer, write func(string) error) error {
	if w != nil {
		// Print (not Println) so piped output is exactly the recognized text.
		_, err := fmt.Fprint(w, text)
		return err
	}
	if text == "" {
		return nil
	}
	if err := write(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}
