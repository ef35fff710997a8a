package ingest

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/aslrec/signdb/pkg/db"
)

func countWords(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		t.Fatalf("count words: %v", err)
	}
	return n
}

func insertWordFunc(gloss string) WriteFunc {
	return func(tx *sql.Tx) error {
		_, _, err := db.CreateOrGetWord(tx, gloss)
		return err
	}
}

func TestTxBatcherFlushesAtCapacity(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	tb := NewTxBatcher(conn, 2)
	if err := tb.Submit(insertWordFunc("a")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := countWords(t, conn); got != 0 {
		t.Fatalf("expected no commit before the batch fills, got %d words", got)
	}

	if err := tb.Submit(insertWordFunc("b")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := countWords(t, conn); got != 2 {
		t.Fatalf("expected full batch committed, got %d words", got)
	}

	if err := tb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestTxBatcherCloseFlushesRemainder(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	tb := NewTxBatcher(conn, 10)
	for _, g := range []string{"a", "b", "c"} {
		if err := tb.Submit(insertWordFunc(g)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := tb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := countWords(t, conn); got != 3 {
		t.Fatalf("expected partial batch flushed on close, got %d words", got)
	}

	if err := tb.Submit(insertWordFunc("d")); !errors.Is(err, ErrBatcherClosed) {
		t.Fatalf("expected ErrBatcherClosed, got %v", err)
	}
}

func TestTxBatcherDiscardDropsBufferedWork(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	tb := NewTxBatcher(conn, 2)
	if err := tb.Submit(insertWordFunc("a")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	tb.Discard()
	if got := countWords(t, conn); got != 0 {
		t.Fatalf("expected discarded work uncommitted, got %d words", got)
	}
	if err := tb.Submit(insertWordFunc("b")); !errors.Is(err, ErrBatcherClosed) {
		t.Fatalf("expected ErrBatcherClosed after discard, got %v", err)
	}
}

func TestTxBatcherRollsBackFailedBatch(t *testing.T) {
	conn := setupDB(t)
	defer conn.Close()

	tb := NewTxBatcher(conn, 2)
	if err := tb.Submit(insertWordFunc("a")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	err := tb.Submit(func(tx *sql.Tx) error {
		return fmt.Errorf("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected the write error surfaced, got %v", err)
	}
	// The whole batch rolled back, including the first write.
	if got := countWords(t, conn); got != 0 {
		t.Fatalf("expected rollback of the failed batch, got %d words", got)
	}
}
