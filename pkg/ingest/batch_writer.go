package ingest

import (
	"database/sql"
	"fmt"
)

// WriteFunc performs store writes inside a batch transaction.
type WriteFunc func(tx *sql.Tx) error

// TxBatcher buffers write functions and commits each batch in a single
// transaction. Batches bound transaction size so a long catalog run never
// holds one giant transaction, and every committed batch survives a later
// crash. The batcher is synchronous: the ingestion run is strictly
// sequential, so a flush happens inline on the Submit that fills the batch.
type TxBatcher struct {
	db     *sql.DB
	buf    []WriteFunc
	cap    int
	closed bool
}

// NewTxBatcher creates a batcher that flushes every batchSize submissions.
func NewTxBatcher(db *sql.DB, batchSize int) *TxBatcher {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &TxBatcher{
		db:  db,
		buf: make([]WriteFunc, 0, batchSize),
		cap: batchSize,
	}
}

// Submit enqueues a write function, flushing when the batch is full. An
// error from a flush means that batch rolled back.
func (b *TxBatcher) Submit(w WriteFunc) error {
	if b.closed {
		return ErrBatcherClosed
	}
	b.buf = append(b.buf, w)
	if len(b.buf) >= b.cap {
		return b.flush()
	}
	return nil
}

func (b *TxBatcher) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	batch := b.buf
	b.buf = b.buf[:0]

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

// Discard drops any buffered work without committing it and closes the
// batcher. Used when the run aborts: already-flushed batches stay
// committed, nothing further is.
func (b *TxBatcher) Discard() {
	b.buf = nil
	b.closed = true
}

// Close flushes the remaining partial batch and stops accepting submissions.
func (b *TxBatcher) Close() error {
	if b.closed {
		return ErrBatcherClosed
	}
	b.closed = true
	return b.flush()
}

// ErrBatcherClosed is returned by Submit and Close after the batcher shut down.
var ErrBatcherClosed = &BatcherError{"tx batcher closed"}

// BatcherError provides a simple typed error for batcher operations.
type BatcherError struct{ msg string }

func (e *BatcherError) Error() string { return e.msg }
