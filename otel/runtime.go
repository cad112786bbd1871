// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"

	"github.com/z5labs/otelpipe/app"
	"github.com/z5labs/otelpipe/config"
)

// Runtime wraps an inner application runtime and supervises the
// telemetry pipeline alongside it: the pipeline runs concurrently with
// the inner application and is shut down gracefully once either one
// returns.
//
// Do not create Runtime directly; use Build to construct it.
type Runtime struct {
	inner    app.Runtime
	pipeline *Pipeline
}

// Build constructs a Runtime builder that resolves a telemetry Pipeline
// from bootstrap and runs it alongside the application built by
// builder.
//
// Type parameter T must implement app.Runtime.
func Build[T app.Runtime](bootstrap Bootstrap, builder app.Builder[T]) app.Builder[Runtime] {
	return app.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		pipeline := config.Must(ctx, bootstrap)

		inner, err := builder.Build(ctx)
		if err != nil {
			return Runtime{}, err
		}

		return Runtime{inner: inner, pipeline: pipeline}, nil
	})
}

// Run starts the telemetry pipeline and the inner application runtime
// concurrently. Either one returning (including the inner runtime
// finishing normally) cancels the other's context; the pipeline is then
// shut down gracefully before Run returns. A pipeline failure and an
// inner runtime failure are both reported, joined.
func (rt Runtime) Run(ctx context.Context) (err error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipelineDone := make(chan error, 1)
	go func() {
		err := rt.pipeline.Run(runCtx)
		cancel()
		pipelineDone <- err
	}()

	innerErr := rt.inner.Run(runCtx)
	cancel()
	pipelineErr := <-pipelineDone
	if errors.Is(pipelineErr, context.Canceled) {
		pipelineErr = nil
	}

	shutdownErr := rt.pipeline.Shutdown(context.Background())

	return errors.Join(innerErr, pipelineErr, shutdownErr)
}
