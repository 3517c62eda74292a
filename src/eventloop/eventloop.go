package eventloop

import (
	"context"
	"log"

	"copyshot/src/hotkey"
	"copyshot/src/logutil"
	"copyshot/src/ocr"
	"copyshot/src/orchestrator"
)

// Capturer is the orchestrator as seen by the loop.
type Capturer interface {
	Capture(ctx context.Context, opts ocr.Options) (string, error)
	Cancel()
}

type ClipboardSink interface {
	Write(text string)
}

type Notifier interface {
	Notify(text string, err error)
}

// StatusSink mirrors the busy flag, typically into the tray menu.
type StatusSink interface {
	SetCapturing(capturing bool)
}

// Loop is the single-threaded coordinator between triggers (hotkey, tray)
// and the capture orchestrator.
type Loop struct {
	capturer Capturer
	sink     ClipboardSink
	notifier Notifier
	status   StatusSink
	opts     ocr.Options

	busy     bool
	results  chan result
	triggers chan struct{}
	stop     func()
}

type result struct {
	text string
	err  error
}

// New creates a loop. notifier and status may be nil.
func New(c Capturer, sink ClipboardSink, notifier Notifier, status StatusSink, opts ocr.Options) *Loop {
	return &Loop{
		capturer: c,
		sink:     sink,
		notifier: notifier,
		status:   status,
		opts:     opts,
		results:  make(chan result, 1),
		triggers: make(chan struct{}, 4),
	}
}

// Trigger requests a capture. It never blocks; surplus triggers are dropped.
func (l *Loop) Trigger() {
	select {
	case l.triggers <- struct{}{}:
	default:
	}
}

// StartHotkey registers a global hotkey that posts triggers into the loop.
func (l *Loop) StartHotkey(combo string) error {
	if combo == "" {
		return nil
	}
	stop, err := hotkey.Listen(combo, l.Trigger)
	if err != nil {
		return err
	}
	l.stop = stop
	return nil
}

// Run processes triggers and results until ctx is cancelled. A capture in
// flight at that point is cancelled and awaited.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if l.stop != nil {
			l.stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			if l.busy {
				l.capturer.Cancel()
				l.handleResult(<-l.results)
			}
			return ctx.Err()
		case <-l.triggers:
			l.handleTrigger(ctx)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.status != nil {
		l.status.SetCapturing(b)
	}
}

func (l *Loop) handleTrigger(ctx context.Context) {
	if l.busy {
		log.Printf("handleTrigger: capture in flight, skipping")
		l.notify("", orchestrator.ErrBusy)
		return
	}
	l.setBusy(true)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in capture goroutine: %v", r)
				l.results <- result{err: orchestrator.ErrOCREngineFailure}
			}
		}()
		text, err := l.capturer.Capture(ctx, l.opts)
		l.results <- result{text: text, err: err}
	}()
}

func (l *Loop) handleResult(res result) {
	defer l.setBusy(false)
	if res.err != nil {
		log.Printf("handleResult: capture error: %v", res.err)
		l.notify("", res.err)
		return
	}
	log.Printf("handleResult: recognized %d bytes: %s", len(res.text), logutil.Sanitize(res.text))
	if res.text != "" {
		l.sink.Write(res.text)
	}
	l.notify(res.text, nil)
}

func (l *Loop) notify(text string, err error) {
	if l.notifier != nil {
		l.notifier.Notify(text, err)
	}
}
