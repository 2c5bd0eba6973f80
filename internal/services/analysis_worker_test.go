package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeGenerator struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	failed   []string
	reasons  []string
	done     chan struct{}
	doneOnce sync.Once
}

func (g *fakeGenerator) Generate(ctx context.Context, sessionID string) (*Analysis, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	if g.calls < len(g.errs) {
		err = g.errs[g.calls]
	}
	g.calls++
	if err == nil {
		g.signal()
		return &Analysis{ID: "AN1", SessionID: sessionID, Status: AnalysisReady}, nil
	}
	return nil, err
}

func (g *fakeGenerator) MarkFailed(sessionID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, sessionID)
	g.reasons = append(g.reasons, reason)
	g.signal()
	return nil
}

func (g *fakeGenerator) signal() {
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) failedSessions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.failed...)
}

func newTestWorker(gen *fakeGenerator) *AnalysisWorker {
	w := NewAnalysisWorker(gen, nil)
	w.retryDelay = time.Millisecond
	return w
}

func waitFor(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for worker")
	}
}

func TestWorkerRetriesUpstreamFailures(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{NewUpstreamError("timeout"), NewUpstreamError("timeout"), nil},
		done: make(chan struct{}),
	}
	w := newTestWorker(gen)
	w.Start()
	defer w.Stop()

	w.Enqueue("SES1")
	waitFor(t, gen.done)

	if got := gen.callCount(); got != 3 {
		t.Fatalf("Generate calls = %d, want 3", got)
	}
	if len(gen.failedSessions()) != 0 {
		t.Fatalf("successful retry must not mark failed: %v", gen.failed)
	}
}

func TestWorkerMarksFailedAfterExhaustion(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{NewUpstreamError("down"), NewUpstreamError("down"), NewUpstreamError("down")},
		done: make(chan struct{}),
	}
	w := newTestWorker(gen)
	w.Start()
	defer w.Stop()

	w.Enqueue("SES1")
	waitFor(t, gen.done)

	if got := gen.callCount(); got != 3 {
		t.Fatalf("Generate calls = %d, want 3", got)
	}
	failed := gen.failedSessions()
	if len(failed) != 1 || failed[0] != "SES1" {
		t.Fatalf("failed sessions = %v, want [SES1]", failed)
	}
}

func TestWorkerDoesNotRetryTerminalErrors(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{NewNotFoundError("screening session not found")},
		done: make(chan struct{}),
	}
	w := newTestWorker(gen)
	w.Start()
	defer w.Stop()

	w.Enqueue("SES1")
	waitFor(t, gen.done)

	if got := gen.callCount(); got != 1 {
		t.Fatalf("Generate calls = %d, want 1 (no retry)", got)
	}
	if len(gen.failedSessions()) != 1 {
		t.Fatalf("terminal error should still record FAILED")
	}
}
