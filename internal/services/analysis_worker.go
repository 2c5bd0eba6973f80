package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// analysisGenerator is the slice of AnalysisService the worker drives.
type analysisGenerator interface {
	Generate(ctx context.Context, sessionID string) (*Analysis, error)
	MarkFailed(sessionID, reason string) error
}

// AnalysisWorker runs analysis generation off the request path. Session
// completion hands it a session id and returns immediately; upstream
// failures are retried a bounded number of times before the session's
// analysis is recorded as FAILED.
type AnalysisWorker struct {
	gen         analysisGenerator
	log         *zap.Logger
	jobs        chan string
	quit        chan struct{}
	wg          sync.WaitGroup
	maxAttempts int
	retryDelay  time.Duration
}

func NewAnalysisWorker(gen analysisGenerator, log *zap.Logger) *AnalysisWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisWorker{
		gen:         gen,
		log:         log,
		jobs:        make(chan string, 64),
		quit:        make(chan struct{}),
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
	}
}

func (w *AnalysisWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop waits for the in-flight job to finish. Queued jobs are dropped; their
// analyses stay PENDING until a repeat completion call re-enqueues them.
func (w *AnalysisWorker) Stop() {
	close(w.quit)
	w.wg.Wait()
}

// Enqueue never blocks the caller. When the queue is full the job is dropped
// with a log entry; the analysis stays pending.
func (w *AnalysisWorker) Enqueue(sessionID string) {
	select {
	case w.jobs <- sessionID:
	default:
		w.log.Warn("analysis queue full, dropping job", zap.String("session_id", sessionID))
	}
}

func (w *AnalysisWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.quit:
			return
		case sessionID := <-w.jobs:
			w.process(sessionID)
		}
	}
}

func (w *AnalysisWorker) process(sessionID string) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		_, err := w.gen.Generate(context.Background(), sessionID)
		if err == nil {
			return
		}
		lastErr = err
		if se, ok := AsServiceError(err); ok && se.Code != ErrorUpstream {
			// invalid, missing or not-yet-completed sessions will not
			// improve with retries
			break
		}
		w.log.Warn("analysis generation failed",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < w.maxAttempts {
			select {
			case <-w.quit:
				return
			case <-time.After(w.retryDelay):
			}
		}
	}
	w.log.Error("analysis generation gave up", zap.String("session_id", sessionID), zap.Error(lastErr))
	if err := w.gen.MarkFailed(sessionID, fmt.Sprintf("analysis generation failed: %v", lastErr)); err != nil {
		w.log.Error("failed to record analysis failure", zap.String("session_id", sessionID), zap.Error(err))
	}
}
