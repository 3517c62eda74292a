// Package overlay implements the per-display region selection surfaces and
// the first-finisher-wins reduction across them.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"copyshot/src/geometry"
)

// Presenter renders surfaces and feeds user input into them.
type Presenter interface {
	// Present shows one full-screen window per surface. It returns once the
	// windows are up; input keeps flowing into the surfaces afterwards.
	Present(ctx context.Context, surfaces []*Surface) error
	// Dismiss closes every window and returns when they are gone.
	Dismiss()
}

// Group owns one surface per display. The first surface to finish or cancel
// decides the outcome and every other surface is torn down.
type Group struct {
	surfaces []*Surface

	once   sync.Once
	done   chan struct{}
	result Result
}

func NewGroup(displays []geometry.Display) *Group {
	g := &Group{done: make(chan struct{})}
	g.surfaces = make([]*Surface, 0, len(displays))
	for _, d := range displays {
		g.surfaces = append(g.surfaces, NewSurface(d, g.resolve))
	}
	return g
}

func (g *Group) Surfaces() []*Surface { return g.surfaces }

func (g *Group) resolve(winner *Surface, r Result) {
	g.once.Do(func() {
		g.result = r
		for _, s := range g.surfaces {
			if s != winner {
				s.retire()
			}
		}
		close(g.done)
	})
}

// Done is closed once the outcome is decided.
func (g *Group) Done() <-chan struct{} { return g.done }

// Wait blocks until a surface decides the outcome. There is no timeout;
// only user input or ctx ends the wait. On ctx cancellation every surface
// is torn down.
func (g *Group) Wait(ctx context.Context) (Result, error) {
	select {
	case <-g.done:
		return g.result, nil
	case <-ctx.Done():
		g.Close()
		return Result{Cancelled: true}, ctx.Err()
	}
}

// Close tears down every live surface and resolves the group as cancelled
// if nothing decided it yet.
func (g *Group) Close() {
	g.resolve(nil, Result{Cancelled: true})
	for _, s := range g.surfaces {
		s.Teardown()
	}
}

// Live counts surfaces still accepting input.
func (g *Group) Live() int {
	n := 0
	for _, s := range g.surfaces {
		if !s.State().Terminal() {
			n++
		}
	}
	return n
}

// Selector runs one selection round across all displays.
type Selector struct {
	presenter Presenter
}

func NewSelector(p Presenter) *Selector {
	return &Selector{presenter: p}
}

// Select blocks until the user finishes a selection on some display or
// cancels. Returns (selection, cancelled, error); when cancelled is true the
// selection is undefined and err is nil. Windows are dismissed and every
// surface is torn down before it returns.
func (s *Selector) Select(ctx context.Context, displays []geometry.Display) (geometry.Selection, bool, error) {
	if len(displays) == 0 {
		return geometry.Selection{}, false, errors.New("no displays to select on")
	}
	g := NewGroup(displays)
	defer g.Close()

	if err := s.presenter.Present(ctx, g.Surfaces()); err != nil {
		s.presenter.Dismiss()
		return geometry.Selection{}, false, fmt.Errorf("failed to present selection overlay: %w", err)
	}

	res, err := g.Wait(ctx)
	s.presenter.Dismiss()
	if err != nil {
		log.Printf("overlay: selection aborted: %v", err)
		return geometry.Selection{}, true, nil
	}
	if res.Cancelled {
		return geometry.Selection{}, true, nil
	}
	log.Printf("overlay: selection %v on display %s", res.Selection.Rect, res.Selection.Display.ID)
	return res.Selection, false, nil
}
