// Package capture runs one single-shot capture stream per capture attempt.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"copyshot/src/geometry"
)

// QueueDepth is the frame queue depth requested from every stream.
const QueueDepth = 1

// DefaultFrameTimeout bounds the wait for the single frame.
const DefaultFrameTimeout = 8 * time.Second

var (
	ErrPermissionDenied = errors.New("screen capture permission denied")
	ErrStreamStart      = errors.New("capture stream failed to start")
	ErrFrameTimeout     = errors.New("no frame received from capture stream")
	ErrCancelled        = errors.New("capture cancelled")
	errSessionInUse     = errors.New("capture session already running")
)

type State int

const (
	StateIdle State = iota
	StateOpening
	StateAwaitingFrame
	StateDelivered
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateAwaitingFrame:
		return "awaiting-frame"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Image is a captured pixel buffer.
type Image struct {
	RGBA *image.RGBA
}

func (i Image) Width() int {
	if i.RGBA == nil {
		return 0
	}
	return i.RGBA.Bounds().Dx()
}

func (i Image) Height() int {
	if i.RGBA == nil {
		return 0
	}
	return i.RGBA.Bounds().Dy()
}

// Frame resolves a stream: an image, or the error that prevented one.
type Frame struct {
	Image Image
	Err   error
}

// Stream is an open single-shot capture stream. The Frame channel yields at
// most one value.
type Stream interface {
	Frame() <-chan Frame
	Stop() error
}

// StreamOpener is the platform capture API.
type StreamOpener interface {
	// Open starts a stream for req. A refused screen-recording permission
	// should be reported as ErrPermissionDenied.
	Open(ctx context.Context, req geometry.CaptureRequest, queueDepth int) (Stream, error)
	// Origin is the vertical origin convention of the stream's source rect.
	Origin() geometry.Origin
}

// Session owns at most one stream at a time and releases it on every exit
// path. A Session returns to idle after each Run.
type Session struct {
	opener  StreamOpener
	timeout time.Duration

	mu      sync.Mutex
	state   State
	outcome State
	cancel  context.CancelFunc
}

func NewSession(opener StreamOpener, frameTimeout time.Duration) *Session {
	if frameTimeout <= 0 {
		frameTimeout = DefaultFrameTimeout
	}
	return &Session{opener: opener, timeout: frameTimeout}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome is the terminal state of the last Run, or StateIdle if none ran.
func (s *Session) Outcome() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Cancel aborts a running capture. It is a no-op when the session is idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("capture: %v -> %v", s.state, st)
	s.state = st
}

// Run opens a stream for req, waits for one frame and stops the stream.
func (s *Session) Run(ctx context.Context, req geometry.CaptureRequest) (Image, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return Image{}, errSessionInUse
	}
	s.state = StateOpening
	s.cancel = cancel
	s.mu.Unlock()

	log.Printf("capture: opening stream src=%v out=%dx%d", req.SourceRect, req.OutputWidth, req.OutputHeight)
	stream, err := s.opener.Open(ctx, req, QueueDepth)
	if err != nil {
		if ctx.Err() != nil {
			return s.finish(StateCancelled, nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
		}
		if !errors.Is(err, ErrPermissionDenied) {
			err = fmt.Errorf("%w: %w", ErrStreamStart, err)
		}
		return s.finish(StateFailed, nil, err)
	}
	if ctx.Err() != nil {
		return s.finish(StateCancelled, stream, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}
	s.setState(StateAwaitingFrame)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case f, ok := <-stream.Frame():
		switch {
		case !ok:
			return s.finish(StateFailed, stream, fmt.Errorf("%w: stream closed", ErrFrameTimeout))
		case f.Err != nil:
			if errors.Is(f.Err, ErrPermissionDenied) {
				return s.finish(StateFailed, stream, f.Err)
			}
			return s.finish(StateFailed, stream, fmt.Errorf("%w: %w", ErrFrameTimeout, f.Err))
		}
		s.finish(StateDelivered, stream, nil)
		return f.Image, nil
	case <-timer.C:
		return s.finish(StateFailed, stream, fmt.Errorf("%w after %v", ErrFrameTimeout, s.timeout))
	case <-ctx.Done():
		return s.finish(StateCancelled, stream, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}
}

// finish stops the stream, records the terminal state and returns the
// session to idle.
func (s *Session) finish(terminal State, stream Stream, err error) (Image, error) {
	if stream != nil {
		if stopErr := stream.Stop(); stopErr != nil {
			log.Printf("capture: stream stop failed (ignored): %v", stopErr)
		}
	}
	s.mu.Lock()
	log.Printf("capture: %v -> %v -> idle", s.state, terminal)
	s.outcome = terminal
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()
	return Image{}, err
}
