package main

import (
	"strings"
	"testing"

	"github.com/aslrec/signdb/pkg/db"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Metric", "Count"},
		[][]string{{"Words", "2"}, {"Videos", "5"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"Metric", "Count", "Words", "Videos", "5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output for headerless table")
	}
}

func TestCountRows(t *testing.T) {
	rows := countRows(db.Counts{Words: 2, Videos: 5, Downloaded: 3, Processed: 1, Frames: 30, Landmarks: 630})
	if len(rows) != 6 {
		t.Fatalf("expected 6 metric rows, got %d", len(rows))
	}
	if rows[0][0] != "Words" || rows[0][1] != "2" {
		t.Fatalf("unexpected first row: %v", rows[0])
	}
	if rows[5][0] != "Landmarks" || rows[5][1] != "630" {
		t.Fatalf("unexpected last row: %v", rows[5])
	}
}

func TestPendingRows(t *testing.T) {
	rows := pendingRows([]db.PendingVideo{
		{VideoID: 7, Gloss: "book", ExternalID: "69241", SourceURL: "https://example.com/69241.mp4", Split: db.SplitTrain},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := []string{"7", "book", "69241", "https://example.com/69241.mp4", "train"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("cell %d: got %q, want %q", i, rows[0][i], cell)
		}
	}
}

func TestWordStatsRows(t *testing.T) {
	rows := wordStatsRows([]db.WordStats{
		{Gloss: "book", Total: 4, Downloaded: 2, Processed: 1, Train: 2, Val: 1, Test: 1},
		{Gloss: "drink"},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "book" || rows[0][1] != "4" || rows[0][4] != "2" {
		t.Fatalf("unexpected book row: %v", rows[0])
	}
	if rows[1][0] != "drink" || rows[1][1] != "0" {
		t.Fatalf("zero-video word must render zeros: %v", rows[1])
	}
}
