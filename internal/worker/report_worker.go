package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ReportProcessor generates and stores the report of one evaluation.
type ReportProcessor interface {
	ProcessReport(ctx context.Context, evaluationID int64) error
}

// ReportWorker runs best-effort report generation off the request path.
type ReportWorker struct {
	processor ReportProcessor
	logger    *zap.Logger
	workers   int
	queue     chan int64

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReportWorker creates a pool of workers reading from a bounded queue.
func NewReportWorker(processor ReportProcessor, workers, queueSize int, logger *zap.Logger) *ReportWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &ReportWorker{
		processor: processor,
		logger:    logger,
		workers:   workers,
		queue:     make(chan int64, queueSize),
	}
}

// Start launches the goroutines. Calling it twice is a no-op.
func (w *ReportWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	w.logger.Info("report worker started", zap.Int("workers", w.workers), zap.Int("queue_size", cap(w.queue)))
}

// Enqueue schedules generation without blocking. It returns false when the
// queue is full or the worker has stopped; manual generation stays available.
func (w *ReportWorker) Enqueue(evaluationID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	select {
	case w.queue <- evaluationID:
		return true
	default:
		w.logger.Warn("report queue full; dropping job", zap.Int64("evaluation_id", evaluationID))
		return false
	}
}

// Stop drains queued jobs and waits for the goroutines to exit.
func (w *ReportWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if started {
		w.wg.Wait()
		w.cancel()
	}
	w.logger.Info("report worker stopped")
}

func (w *ReportWorker) run(ctx context.Context, index int) {
	defer w.wg.Done()
	for id := range w.queue {
		if err := w.processor.ProcessReport(ctx, id); err != nil {
			w.logger.Warn("automatic report generation failed",
				zap.Int("worker", index),
				zap.Int64("evaluation_id", id),
				zap.Error(err))
		}
	}
}
