// Package lifecycle supervises the processors and periodic reader that
// make up one telemetry pipeline as a single group: any component
// failing cancels the others, and shutdown runs in the order the
// components were registered so a signal's processor always flushes
// through its exporter before anything downstream releases shared
// resources.
package lifecycle

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/pool"
)

// Component is anything the pipeline supervises. Every batch
// processor, the simple log processor, and the periodic metrics
// reader satisfy this with their own Run method.
type Component interface {
	Run(ctx context.Context) error
}

// Shutdowner is implemented by components exposing an explicit
// shutdown path in addition to their context-driven one.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Pipeline supervises a fixed set of components as one group.
type Pipeline struct {
	components []Component
}

// New builds a Pipeline supervising components, in the order given.
// Order matters for Shutdown: list processors before the readers or
// exporters they share a connection with.
func New(components ...Component) *Pipeline {
	return &Pipeline{components: components}
}

// Run starts every component concurrently and blocks until ctx is
// cancelled or a component returns a non-nil, non-cancellation error,
// at which point the group's context is cancelled and Run waits for
// every remaining component to return before reporting the failure.
func (p *Pipeline) Run(ctx context.Context) error {
	grp := pool.New().WithContext(ctx).WithCancelOnError()

	for _, c := range p.components {
		c := c
		grp.Go(func(ctx context.Context) error {
			return c.Run(ctx)
		})
	}

	// Wait joins every component's error; a component that merely
	// stopped because the group's context ended is not a failure.
	var failures func(error) []error
	failures = func(err error) []error {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			var out []error
			for _, e := range joined.Unwrap() {
				out = append(out, failures(e)...)
			}
			return out
		}
		if err == nil || errors.Is(err, context.Canceled) || (ctx.Err() != nil && errors.Is(err, ctx.Err())) {
			return nil
		}
		return []error{err}
	}
	return errors.Join(failures(grp.Wait())...)
}

// Shutdown calls Shutdown on every component that implements
// Shutdowner, in registration order, joining any errors. Each batch
// processor's Shutdown already force-flushes before shutting down its
// own exporter, so ordering components processors-first here also
// drains them before a reader or exporter they share a connection with
// is asked to release it.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	var errs []error
	for _, c := range p.components {
		sd, ok := c.(Shutdowner)
		if !ok {
			continue
		}
		if err := sd.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
