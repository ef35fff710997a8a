// Package ingest drives the catalog through the word registry and video
// registrar, batching commits and accumulating a run summary.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aslrec/signdb/pkg/catalog"
	"github.com/aslrec/signdb/pkg/db"
)

// EntrySource abstracts the catalog reader so tests can feed literal
// fixtures. Next returns io.EOF when the catalog is exhausted.
type EntrySource interface {
	Next() (catalog.Entry, error)
}

// WarningKind classifies the non-fatal conditions a run accumulates.
type WarningKind string

const (
	// WarnInvalidSplit: the instance's split was absent or unrecognized
	// and train was substituted.
	WarnInvalidSplit WarningKind = "invalid_split"
	// WarnFailedInsert: one instance (or its word) could not be stored;
	// the rest of the run continued.
	WarnFailedInsert WarningKind = "failed_insert"
)

// Warning is one non-fatal condition recorded against a word.
type Warning struct {
	Kind       WarningKind
	Gloss      string
	ExternalID string
	Detail     string
}

func (w Warning) String() string {
	if w.ExternalID != "" {
		return fmt.Sprintf("[%s] %s/%s: %s", w.Kind, w.Gloss, w.ExternalID, w.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Kind, w.Gloss, w.Detail)
}

// Summary is the final report of an ingestion run.
type Summary struct {
	WordsInserted  int
	WordsSkipped   int // zero-instance entries, never given a word row
	VideosInserted int
	VideosSkipped  int // duplicates reused from an earlier run
	Warnings       []Warning
}

// Failures counts the per-instance insert failures among the warnings.
func (s Summary) Failures() int {
	n := 0
	for _, w := range s.Warnings {
		if w.Kind == WarnFailedInsert {
			n++
		}
	}
	return n
}

// Partial reports whether the run completed with non-fatal issues attached.
func (s Summary) Partial() bool { return len(s.Warnings) > 0 }

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "words inserted: %d\n", s.WordsInserted)
	fmt.Fprintf(&b, "words skipped (no instances): %d\n", s.WordsSkipped)
	fmt.Fprintf(&b, "videos inserted: %d\n", s.VideosInserted)
	fmt.Fprintf(&b, "videos skipped (duplicate): %d\n", s.VideosSkipped)
	fmt.Fprintf(&b, "warnings: %d (failures: %d)", len(s.Warnings), s.Failures())
	return b.String()
}

// Ingester is the run coordinator: it reads catalog entries, registers
// words and videos, and commits in batches of BatchSize words.
type Ingester struct {
	DB *sql.DB
	// BatchSize is the number of words committed per transaction.
	BatchSize int
	// ProgressEvery controls how often progress is reported, in words.
	ProgressEvery int
	// Logger receives progress and warning messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called with the number of entries read and videos
	// inserted so far. Counts are approximate until the current batch is
	// flushed.
	OnProgress func(words, videos int)
}

// NewIngester creates an Ingester with the defaults used by the original
// pipeline: commit every 100 words, report every 100 words.
func NewIngester(conn *sql.DB) *Ingester {
	return &Ingester{
		DB:            conn,
		BatchSize:     100,
		ProgressEvery: 100,
	}
}

// Run ingests the whole catalog. Re-running over an identical catalog is a
// no-op apart from the skipped counters: words and videos are looked up
// before insertion, so nothing is ever duplicated.
//
// A *catalog.MalformedError aborts the run; batches flushed before the
// abort stay committed, buffered work is discarded. All other per-entry
// problems accumulate into the summary and the run continues.
func (ig *Ingester) Run(ctx context.Context, src EntrySource) (Summary, error) {
	var sum Summary
	tb := NewTxBatcher(ig.DB, ig.BatchSize)

	words := 0
	for {
		select {
		case <-ctx.Done():
			tb.Discard()
			return sum, ctx.Err()
		default:
		}

		entry, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			tb.Discard()
			return sum, err
		}

		if len(entry.Instances) == 0 {
			sum.WordsSkipped++
			continue
		}

		e := entry
		if err := tb.Submit(func(tx *sql.Tx) error {
			return ig.ingestEntry(tx, e, &sum)
		}); err != nil {
			tb.Discard()
			return sum, err
		}

		words++
		if ig.ProgressEvery > 0 && words%ig.ProgressEvery == 0 {
			if ig.Logger != nil {
				ig.Logger.Printf("progress: %d entries read, %d videos inserted", words, sum.VideosInserted)
			}
			if ig.OnProgress != nil {
				ig.OnProgress(words, sum.VideosInserted)
			}
		}
	}

	if err := tb.Close(); err != nil {
		return sum, err
	}
	if ig.OnProgress != nil {
		ig.OnProgress(words, sum.VideosInserted)
	}
	return sum, nil
}

// ingestEntry registers one word and its instances inside the batch
// transaction. Instance failures are isolated: they become warnings and the
// remaining instances still register.
func (ig *Ingester) ingestEntry(tx *sql.Tx, e catalog.Entry, sum *Summary) error {
	wordID, created, err := db.CreateOrGetWord(tx, e.Gloss)
	if err != nil {
		ig.warn(sum, Warning{Kind: WarnFailedInsert, Gloss: e.Gloss, Detail: err.Error()})
		return nil
	}
	if created {
		sum.WordsInserted++
	}

	for _, in := range e.Instances {
		split, ok := db.NormalizeSplit(in.Split)
		if !ok {
			ig.warn(sum, Warning{
				Kind:       WarnInvalidSplit,
				Gloss:      e.Gloss,
				ExternalID: in.VideoID,
				Detail:     fmt.Sprintf("split %q, stored as %q", in.Split, split),
			})
		}

		_, inserted, err := db.RegisterVideo(tx, wordID, db.VideoParams{
			ExternalID:  in.VideoID,
			SourceURL:   in.URL,
			Split:       split,
			SignerID:    in.SignerID,
			FPS:         in.FPS,
			DurationSec: in.DurationSec(),
		})
		if err != nil {
			ig.warn(sum, Warning{Kind: WarnFailedInsert, Gloss: e.Gloss, ExternalID: in.VideoID, Detail: err.Error()})
			continue
		}
		if inserted {
			sum.VideosInserted++
		} else {
			sum.VideosSkipped++
		}
	}

	if _, err := db.RecomputeSampleCount(tx, wordID); err != nil {
		return fmt.Errorf("word %q: %w", e.Gloss, err)
	}
	return nil
}

func (ig *Ingester) warn(sum *Summary, w Warning) {
	sum.Warnings = append(sum.Warnings, w)
	if ig.Logger != nil {
		ig.Logger.Printf("warning: %s", w)
	}
}
