package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/arclinic/medsynth/pkg/dataset"
)

// ExampleWriter buffers training-example inserts for a run and flushes them in
// batches inside a transaction. Large builds produce tens of thousands of
// examples; one transaction per row makes sqlite the bottleneck.
type ExampleWriter struct {
	mu     sync.Mutex
	buf    []dataset.TrainingExample
	cap    int
	ticker *time.Ticker
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	commitCh chan []dataset.TrainingExample
	db       *sql.DB
	runID    string
	OnError  func(error)

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

var ErrExampleWriterClosed = fmt.Errorf("example writer closed")

// NewExampleWriter creates a writer for the given run.
// bufferSize: flush when the buffer reaches this size.
// flushInterval: also flush after this duration (0 to disable).
func NewExampleWriter(db *sql.DB, runID string, bufferSize int, flushInterval time.Duration) *ExampleWriter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &ExampleWriter{
		buf:      make([]dataset.TrainingExample, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []dataset.TrainingExample, 2),
		db:       db,
		runID:    runID,
	}

	w.wg.Add(1)
	go w.committer()

	if flushInterval > 0 {
		w.ticker = time.NewTicker(flushInterval)
		w.wg.Add(1)
		go w.loop()
	}
	return w
}

// Submit enqueues one example for insertion.
func (w *ExampleWriter) Submit(ex dataset.TrainingExample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrExampleWriterClosed
	}
	w.buf = append(w.buf, ex)
	if len(w.buf) >= w.cap {
		w.flushLocked()
	}
	return nil
}

// flushLocked assumes w.mu is held. Sending on a full commitCh blocks Submit,
// which propagates backpressure to the producer.
func (w *ExampleWriter) flushLocked() {
	if len(w.buf) == 0 {
		return
	}
	batch := w.buf
	w.buf = make([]dataset.TrainingExample, 0, w.cap)

	select {
	case w.commitCh <- batch:
	case <-w.ctx.Done():
		err := fmt.Errorf("example writer: dropping batch of %d examples due to shutdown", len(batch))
		w.recordErr(err)
	}
}

func (w *ExampleWriter) committer() {
	defer w.wg.Done()
	for batch := range w.commitCh {
		if err := w.insertBatch(batch); err != nil {
			w.recordErr(err)
		}
	}
}

func (w *ExampleWriter) insertBatch(batch []dataset.TrainingExample) error {
	// Background context: flushing must survive writer shutdown.
	ctx := context.Background()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin example batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	stmt, err := tx.Prepare(`INSERT INTO training_examples (run_id, input_text, target, source) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare example insert: %w", err)
	}
	defer stmt.Close()

	for _, ex := range batch {
		if _, err := stmt.Exec(w.runID, ex.InputText, ex.Target, ex.Source); err != nil {
			return fmt.Errorf("insert example: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit example batch (%d rows): %w", len(batch), err)
	}
	return nil
}

func (w *ExampleWriter) recordErr(err error) {
	w.errMu.Lock()
	if w.lastErr == nil {
		w.lastErr = err
	}
	w.errMu.Unlock()
	if w.OnError != nil {
		w.OnError(err)
	}
}

func (w *ExampleWriter) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.ticker.C:
			w.mu.Lock()
			if len(w.buf) > 0 {
				w.flushLocked()
			}
			w.mu.Unlock()
		}
	}
}

// Close flushes any buffered examples, waits for pending inserts and returns
// the first asynchronous error recorded during the writer's lifetime.
func (w *ExampleWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrExampleWriterClosed
	}
	w.closed = true
	if w.ticker != nil {
		w.ticker.Stop()
	}
	if len(w.buf) > 0 {
		w.flushLocked()
	}
	w.mu.Unlock()

	w.cancel()
	close(w.commitCh)
	w.wg.Wait()

	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}
