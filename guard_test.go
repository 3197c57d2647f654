package otelkit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records flush/shutdown calls and can be made to fail.
type fakeProvider struct {
	mu            sync.Mutex
	calls         []string
	flushCalls    atomic.Int32
	shutdownCalls atomic.Int32
	flushErr      error
	shutdownErr   error
}

func (f *fakeProvider) ForceFlush(ctx context.Context) error {
	f.flushCalls.Add(1)
	f.mu.Lock()
	f.calls = append(f.calls, "flush")
	f.mu.Unlock()
	return f.flushErr
}

func (f *fakeProvider) Shutdown(ctx context.Context) error {
	f.shutdownCalls.Add(1)
	f.mu.Lock()
	f.calls = append(f.calls, "shutdown")
	f.mu.Unlock()
	return f.shutdownErr
}

func (f *fakeProvider) callSequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newFakeGuard(t *testing.T, handleErr func(error), fakes ...*fakeProvider) *Guard {
	t.Helper()
	clearOTelEnv(t)
	cfg := resolveConfig("test-service", &Options{})

	providers := make([]ownedProvider, 0, len(fakes))
	signals := []Signal{SignalTraces, SignalLogs, "extra"}
	for i, f := range fakes {
		providers = append(providers, ownedProvider{signal: signals[i%len(signals)], handle: f})
	}
	if handleErr == nil {
		handleErr = func(error) {}
	}
	return newGuard(cfg, providers, nil, handleErr)
}

func TestGuard_ShutdownFlushesThenShutsDown(t *testing.T) {
	fake := &fakeProvider{}
	guard := newFakeGuard(t, nil, fake)

	guard.Shutdown(context.Background())

	assert.Equal(t, []string{"flush", "shutdown"}, fake.callSequence())
}

func TestGuard_ShutdownIdempotent(t *testing.T) {
	fake := &fakeProvider{}
	guard := newFakeGuard(t, nil, fake)

	for i := 0; i < 5; i++ {
		guard.Shutdown(context.Background())
	}

	assert.Equal(t, int32(1), fake.flushCalls.Load())
	assert.Equal(t, int32(1), fake.shutdownCalls.Load())
}

func TestGuard_ShutdownConcurrent(t *testing.T) {
	fake := &fakeProvider{}
	guard := newFakeGuard(t, nil, fake)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard.Shutdown(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fake.flushCalls.Load())
	assert.Equal(t, int32(1), fake.shutdownCalls.Load())
}

func TestGuard_ShutdownBestEffort(t *testing.T) {
	var diagnostics []error
	failing := &fakeProvider{
		flushErr:    errors.New("flush exploded"),
		shutdownErr: errors.New("shutdown exploded"),
	}
	healthy := &fakeProvider{}

	guard := newFakeGuard(t, func(err error) {
		diagnostics = append(diagnostics, err)
	}, failing, healthy)

	guard.Shutdown(context.Background())

	// The failing provider must not prevent the healthy one from stopping.
	assert.Equal(t, int32(1), healthy.flushCalls.Load())
	assert.Equal(t, int32(1), healthy.shutdownCalls.Load())

	// Both errors surface on the diagnostic channel, none to the caller.
	require.Len(t, diagnostics, 2)
	assert.Contains(t, diagnostics[0].Error(), "flushing")
	assert.Contains(t, diagnostics[1].Error(), "shutting down")
}

func TestGuard_ForceFlush(t *testing.T) {
	fake := &fakeProvider{}
	guard := newFakeGuard(t, nil, fake)

	require.NoError(t, guard.ForceFlush(context.Background()))
	assert.Equal(t, int32(1), fake.flushCalls.Load())

	// Flush is repeatable while active.
	require.NoError(t, guard.ForceFlush(context.Background()))
	assert.Equal(t, int32(2), fake.flushCalls.Load())
}

func TestGuard_ForceFlushError(t *testing.T) {
	fake := &fakeProvider{flushErr: errors.New("collector unreachable")}
	guard := newFakeGuard(t, nil, fake)

	err := guard.ForceFlush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collector unreachable")
}

func TestGuard_ForceFlushAfterShutdownIsNoop(t *testing.T) {
	fake := &fakeProvider{}
	guard := newFakeGuard(t, nil, fake)

	guard.Shutdown(context.Background())
	flushesAfterShutdown := fake.flushCalls.Load()

	require.NoError(t, guard.ForceFlush(context.Background()))
	assert.Equal(t, flushesAfterShutdown, fake.flushCalls.Load())
}

func TestGuard_NilSafe(t *testing.T) {
	var guard *Guard

	assert.NotPanics(t, func() {
		guard.Shutdown(context.Background())
		_ = guard.ForceFlush(context.Background())
		_ = guard.Config()
		_ = guard.Logger()
	})
}
