package jobs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/logger"
)

// Runner ingests a document that has already been saved.
type Runner interface {
	RunStored(ctx context.Context, doc *ingest.Document) (*ingest.Report, error)
}

// IngestionJob represents a stored brochure waiting to be ingested
type IngestionJob struct {
	Document *ingest.Document
}

// IngestionUpdate is sent to SSE subscribers when a run ends
type IngestionUpdate struct {
	DocumentID string         `json:"document_id"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Report     *ingest.Report `json:"report,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// IngestionWorker processes ingestion jobs one at a time in the background
type IngestionWorker struct {
	jobs   chan IngestionJob
	runner Runner
	log    *slog.Logger

	subscribers map[chan IngestionUpdate]bool
	subMux      sync.RWMutex

	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
}

// NewIngestionWorker creates a worker with a queue of the given size.
// Call Start to begin processing.
func NewIngestionWorker(runner Runner, queueSize int, log *slog.Logger) *IngestionWorker {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &IngestionWorker{
		jobs:        make(chan IngestionJob, queueSize),
		runner:      runner,
		log:         logger.Or(log).With("component", "ingestion_worker"),
		subscribers: make(map[chan IngestionUpdate]bool),
		done:        make(chan struct{}),
	}
}

// Start runs the worker loop until Stop is called. Runs are not tied to ctx
// cancellation once started; ctx only carries values.
func (w *IngestionWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run(context.WithoutCancel(ctx))
	w.log.Info("Ingestion worker started", "queue_size", cap(w.jobs))
}

// Stop closes the queue and waits for queued jobs to finish.
func (w *IngestionWorker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
}

// Enqueue adds a job to the queue. It reports false when the queue is full
// or the worker is stopped; the job is dropped in that case.
func (w *IngestionWorker) Enqueue(doc *ingest.Document) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		w.log.Warn("Ingestion worker stopped, dropping job", "document_id", doc.ID)
		return false
	}
	select {
	case w.jobs <- IngestionJob{Document: doc}:
		w.log.Info("Ingestion job enqueued", "document_id", doc.ID, "name", doc.Name)
		return true
	default:
		w.log.Warn("Ingestion job queue full, dropping job", "document_id", doc.ID)
		return false
	}
}

// Subscribe registers a channel to receive ingestion updates
func (w *IngestionWorker) Subscribe(ch chan IngestionUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	w.subscribers[ch] = true
}

// Unsubscribe removes a channel from ingestion updates and closes it
func (w *IngestionWorker) Unsubscribe(ch chan IngestionUpdate) {
	w.subMux.Lock()
	defer w.subMux.Unlock()
	if _, ok := w.subscribers[ch]; !ok {
		return
	}
	delete(w.subscribers, ch)
	close(ch)
}

func (w *IngestionWorker) run(ctx context.Context) {
	defer close(w.done)
	for job := range w.jobs {
		w.processJob(ctx, job)
	}
}

func (w *IngestionWorker) processJob(ctx context.Context, job IngestionJob) {
	doc := job.Document
	w.log.Info("Processing ingestion job", "document_id", doc.ID)

	update := IngestionUpdate{DocumentID: doc.ID, Name: doc.Name, Status: StatusCompleted}
	report, err := w.runner.RunStored(ctx, doc)
	update.Report = report
	if err != nil {
		w.log.Error("Ingestion job failed", "document_id", doc.ID, "error", err)
		update.Status = StatusFailed
		update.Error = err.Error()
	}

	w.broadcast(update)
}

func (w *IngestionWorker) broadcast(update IngestionUpdate) {
	w.subMux.RLock()
	defer w.subMux.RUnlock()
	for ch := range w.subscribers {
		select {
		case ch <- update:
		default:
			// Drop update if subscriber is slow
		}
	}
}
