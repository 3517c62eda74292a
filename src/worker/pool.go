package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"copyshot/src/capture"
	"copyshot/src/ocr"
	"copyshot/src/textassembly"
)

// ResultCallback is invoked on OCR completion (from a worker goroutine).
// Callers pass a closure that posts back into their own context safely.
type ResultCallback func(frags []textassembly.Fragment, err error)

// Pool is a fixed-size OCR worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	recognizer ocr.Recognizer
	jobs       chan job
	wg         sync.WaitGroup
}

type job struct {
	ctx  context.Context
	img  capture.Image
	opts ocr.Options
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(r ocr.Recognizer, size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{recognizer: r, jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: Starting OCR for %dx%d image", j.img.Width(), j.img.Height())
				frags, err := recognizeWithContext(j.ctx, p.recognizer, j.img, j.opts)
				log.Printf("Worker: OCR completed, fragments=%d, err=%v", len(frags), err)
				j.cb(frags, err)
			}
		}()
	}
}

// Submit enqueues an OCR job if the single-slot queue is free. Returns false if dropped.
// The image is handed over; the caller must not touch it afterwards.
func (p *Pool) Submit(ctx context.Context, img capture.Image, opts ocr.Options, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, img: img, opts: opts, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// recognizeWithContext runs the recognizer, returning early when ctx ends.
func recognizeWithContext(ctx context.Context, r ocr.Recognizer, img capture.Image, opts ocr.Options) ([]textassembly.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Fast path: without a deadline or cancellation the recognizer runs inline.
	if ctx.Done() == nil {
		return r.Recognize(ctx, img, opts)
	}
	type result struct {
		frags []textassembly.Fragment
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		frags, err := r.Recognize(ctx, img, opts)
		resCh <- result{frags, err}
	}()
	select {
	case res := <-resCh:
		return res.frags, res.err
	case <-ctx.Done():
		// The engine may keep running in the background; its result is dropped.
		return nil, ctx.Err()
	}
}
