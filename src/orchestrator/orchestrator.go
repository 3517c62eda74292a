// Package orchestrator drives one capture end to end: selection across all
// displays, target matching, the single-shot capture, OCR and reading-order
// assembly.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"copyshot/src/capture"
	"copyshot/src/geometry"
	"copyshot/src/ocr"
	"copyshot/src/textassembly"
	"copyshot/src/worker"
)

const defaultOCRDeadline = 20 * time.Second

type DisplayEnumerator interface {
	Displays() ([]geometry.Display, error)
}

// TargetSource lists the displays the capture API can address.
type TargetSource interface {
	Targets() ([]geometry.Display, error)
}

// Selector shows one selection surface per display and returns the first
// finisher. It must have torn every surface down before returning.
type Selector interface {
	Select(ctx context.Context, displays []geometry.Display) (geometry.Selection, bool, error)
}

type Options struct {
	Displays     DisplayEnumerator
	Targets      TargetSource // defaults to Displays when it also implements TargetSource
	Selector     Selector
	Opener       capture.StreamOpener
	Recognizer   ocr.Recognizer
	FrameTimeout time.Duration
	OCRDeadline  time.Duration
}

// Orchestrator is single-flight: a Capture while another is running fails
// with Busy and leaves the running one alone.
type Orchestrator struct {
	displays     DisplayEnumerator
	targets      TargetSource
	selector     Selector
	opener       capture.StreamOpener
	pool         *worker.Pool
	frameTimeout time.Duration
	ocrDeadline  time.Duration

	inFlight atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Displays == nil {
		return nil, errors.New("display enumerator is required")
	}
	if opts.Selector == nil {
		return nil, errors.New("selector is required")
	}
	if opts.Opener == nil {
		return nil, errors.New("stream opener is required")
	}
	if opts.Recognizer == nil {
		return nil, errors.New("recognizer is required")
	}
	targets := opts.Targets
	if targets == nil {
		ts, ok := opts.Displays.(TargetSource)
		if !ok {
			return nil, errors.New("target source is required")
		}
		targets = ts
	}
	deadline := opts.OCRDeadline
	if deadline <= 0 {
		deadline = defaultOCRDeadline
	}
	return &Orchestrator{
		displays:     opts.Displays,
		targets:      targets,
		selector:     opts.Selector,
		opener:       opts.Opener,
		pool:         worker.New(opts.Recognizer, 1),
		frameTimeout: opts.FrameTimeout,
		ocrDeadline:  deadline,
	}, nil
}

// Close stops the OCR worker. Capture must not be called afterwards.
func (o *Orchestrator) Close() { o.pool.Close() }

func (o *Orchestrator) InFlight() bool { return o.inFlight.Load() }

// Cancel aborts the running capture, if any. The running Capture returns
// UserCancelled once every surface and stream is torn down.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		log.Printf("orchestrator: cancel requested")
		cancel()
	}
}

// Capture runs one selection-to-text operation. An empty string with a nil
// error means the region held no text. Failures are *Error values.
func (o *Orchestrator) Capture(ctx context.Context, opts ocr.Options) (string, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		log.Printf("orchestrator: capture already in flight")
		return "", ErrBusy
	}
	defer o.inFlight.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
		cancel()
	}()

	text, err := o.run(ctx, opts)
	if err != nil {
		e := classify(err)
		if e.Kind == UserCancelled {
			log.Printf("orchestrator: capture cancelled")
		} else {
			log.Printf("orchestrator: capture failed: %v", e)
		}
		return "", e
	}
	return text, nil
}

func (o *Orchestrator) run(ctx context.Context, opts ocr.Options) (string, error) {
	displays, err := o.displays.Displays()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate displays: %w", err)
	}

	sel, cancelled, err := o.selector.Select(ctx, displays)
	if err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	if cancelled || ctx.Err() != nil {
		return "", ErrUserCancelled
	}
	if sel.Cancels() {
		log.Printf("orchestrator: selection %v below minimum size", sel.Rect)
		return "", ErrUserCancelled
	}

	targets, err := o.targets.Targets()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate capture targets: %w", err)
	}
	target, err := geometry.MatchTarget(sel.Display, targets)
	if err != nil {
		return "", err
	}
	req := geometry.Map(sel, target, o.opener.Origin())
	log.Printf("orchestrator: selection %v on %s -> %v at %dx%d", sel.Rect, sel.Display.ID, req.SourceRect, req.OutputWidth, req.OutputHeight)

	img, err := capture.NewSession(o.opener, o.frameTimeout).Run(ctx, req)
	if err != nil {
		return "", err
	}

	frags, err := o.recognize(ctx, img, opts)
	if err != nil {
		return "", err
	}
	return textassembly.Assemble(frags), nil
}

type ocrResult struct {
	frags []textassembly.Fragment
	err   error
}

// recognize hands img to the worker pool and waits for its completion.
func (o *Orchestrator) recognize(ctx context.Context, img capture.Image, opts ocr.Options) ([]textassembly.Fragment, error) {
	jobCtx, cancel := context.WithTimeout(ctx, o.ocrDeadline)
	defer cancel()

	done := make(chan ocrResult, 1)
	if !o.pool.Submit(jobCtx, img, opts, func(frags []textassembly.Fragment, err error) {
		done <- ocrResult{frags, err}
	}) {
		return nil, errors.New("OCR worker queue full")
	}
	res := <-done
	switch {
	case ctx.Err() != nil:
		// A result that raced the cancellation is discarded.
		return nil, fmt.Errorf("%w: %w", capture.ErrCancelled, ctx.Err())
	case res.err == nil:
		return res.frags, nil
	case errors.Is(res.err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: deadline %v exceeded", ocr.ErrEngine, o.ocrDeadline)
	default:
		return nil, res.err
	}
}
