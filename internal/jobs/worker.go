package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor drains whatever video work is queued at the moment of the
// call. The worker invokes it once per poll tick.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls the video job queue on a fixed interval and hands each pass
// to its processor.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a Worker. It does not poll until Start is called.
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop until the context is cancelled or Stop is
// called. A failed pass is logged and the loop keeps polling.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: video worker polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: video worker stopping, context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: video worker stopping, stop requested")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("jobs: processing pass failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and blocks until any in-flight pass has
// finished.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("jobs: video worker stopped")
}
