package otelkit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Guard lifecycle states.
const (
	stateActive int32 = iota
	stateShuttingDown
	stateShutDown
)

// Guard owns every provider built by Setup and bounds their lifetimes.
//
// Hold it for the duration of the application and call Shutdown exactly once
// on the way out, typically with defer:
//
//	guard, err := otelkit.Setup(ctx, "my-service")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Shutdown(ctx)
//
// Go has no scope-exit destructors; a guard that is never shut down loses
// whatever telemetry is still buffered when the process exits.
type Guard struct {
	cfg       *Config
	providers []ownedProvider
	logger    *zap.Logger
	handleErr func(error)

	state atomic.Int32
	done  chan struct{}
}

func newGuard(cfg *Config, providers []ownedProvider, logger *zap.Logger, handleErr func(error)) *Guard {
	return &Guard{
		cfg:       cfg,
		providers: providers,
		logger:    logger,
		handleErr: handleErr,
		done:      make(chan struct{}),
	}
}

// Shutdown flushes then shuts down every owned provider, in that order,
// best-effort: one provider's failure never skips the others. Individual
// flush/shutdown errors go to the configured error handler and are never
// returned; from the caller's perspective Shutdown always completes.
//
// The provider teardown runs exactly once no matter how many times or from
// how many goroutines Shutdown is called. Later calls are no-ops that wait
// for the in-flight teardown (or the context) before returning. When ctx
// carries no deadline the teardown is bounded by the shutdown timeout.
//
// Events emitted concurrently with Shutdown may be dropped once teardown has
// begun.
func (g *Guard) Shutdown(ctx context.Context) {
	if g == nil {
		return
	}
	if !g.state.CompareAndSwap(stateActive, stateShuttingDown) {
		select {
		case <-g.done:
		case <-ctx.Done():
		}
		return
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ShutdownTimeout)
		defer cancel()
	}

	// Push anything still buffered in the logger into the providers first.
	if g.logger != nil {
		if err := syncLogger(g.logger); err != nil {
			g.handleErr(fmt.Errorf("syncing logger: %w", err))
		}
	}

	for _, p := range g.providers {
		if err := p.handle.ForceFlush(ctx); err != nil {
			g.handleErr(fmt.Errorf("flushing %s provider: %w", p.signal, err))
		}
		if err := p.handle.Shutdown(ctx); err != nil {
			g.handleErr(fmt.Errorf("shutting down %s provider: %w", p.signal, err))
		}
	}

	g.state.Store(stateShutDown)
	close(g.done)
}

// ForceFlush immediately exports all pending telemetry data.
//
// Callable any number of times while the guard is active; once shutdown has
// begun it is a no-op returning nil.
func (g *Guard) ForceFlush(ctx context.Context) error {
	if g == nil || g.state.Load() != stateActive {
		return nil
	}

	var errs []error
	for _, p := range g.providers {
		if err := p.handle.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing %s provider: %w", p.signal, err))
		}
	}
	return errors.Join(errs...)
}

// Config returns a copy of the resolved configuration this guard was built
// from.
func (g *Guard) Config() Config {
	if g == nil || g.cfg == nil {
		return Config{}
	}
	return *g.cfg
}

// Logger returns the composed logger. The same logger is installed globally
// via zap.ReplaceGlobals, so zap.L() works too.
func (g *Guard) Logger() *zap.Logger {
	if g == nil || g.logger == nil {
		return zap.L()
	}
	return g.logger
}
