package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"copyshot/src/capture"
	"copyshot/src/ocr"
	"copyshot/src/textassembly"
	"copyshot/src/worker"
)

type stressOptions struct {
	file     string
	n        int
	workers  int
	mode     string
	deadline time.Duration
}

type counts struct {
	ok, busy, timeout, err int32
}

func main() {
	opts := &stressOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-ocr",
		Short:         "Stress test the OCR worker pool back-pressure",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts, ocr.NewTesseractEngine(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "image to recognize")
	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent submissions")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "worker pool size")
	cmd.Flags().StringVar(&opts.mode, "mode", "fast", "accurate|fast")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 20*time.Second, "per-job timeout")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWithOptions(opts stressOptions, r ocr.Recognizer, out io.Writer) error {
	accuracy, err := ocr.ParseAccuracy(opts.mode)
	if err != nil {
		return err
	}
	src, err := imaging.Open(opts.file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.file, err)
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	pool := worker.New(r, opts.workers)
	defer pool.Close()

	start := time.Now()
	c := stress(pool, capture.Image{RGBA: rgba}, ocr.Options{Accuracy: accuracy}, opts.n, opts.deadline)
	fmt.Fprintf(out, "launched=%d ok=%d busy=%d timeout=%d err=%d elapsed=%s\n",
		opts.n, c.ok, c.busy, c.timeout, c.err, time.Since(start))
	return nil
}

// stress submits n jobs at once and waits for every accepted one.
// Submissions the pool drops count as busy.
func stress(pool *worker.Pool, img capture.Image, opts ocr.Options, n int, deadline time.Duration) counts {
	var c counts
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), deadline)
			accepted := pool.Submit(ctx, img, opts, func(_ []textassembly.Fragment, err error) {
				defer wg.Done()
				defer cancel()
				switch {
				case err == nil:
					atomic.AddInt32(&c.ok, 1)
				case ctx.Err() != nil:
					atomic.AddInt32(&c.timeout, 1)
				default:
					atomic.AddInt32(&c.err, 1)
				}
			})
			if !accepted {
				cancel()
				atomic.AddInt32(&c.busy, 1)
				wg.Done()
			}
		}()
	}
	wg.Wait()
	return c
}
