package db

import "testing"

func TestGlobalCounts(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	bookID := registerTestVideo(t, conn, "book", "1")
	registerTestVideo(t, conn, "book", "2")
	registerTestVideo(t, conn, "drink", "3")

	if _, err := MarkDownloaded(conn, bookID, "/data/1.mp4"); err != nil {
		t.Fatalf("mark downloaded: %v", err)
	}
	if err := MarkProcessed(conn, bookID); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	// Frames and landmarks are written by the external extractor; insert
	// rows directly the way it would.
	res, err := conn.Exec(`INSERT INTO frames (video_id, frame_index, local_path) VALUES (?, 0, '/data/frames/1/0.jpg')`, bookID)
	if err != nil {
		t.Fatalf("insert frame: %v", err)
	}
	frameID, _ := res.LastInsertId()
	if _, err := conn.Exec(`INSERT INTO landmarks (frame_id, landmark_type, data) VALUES (?, 'hand', '[]')`, frameID); err != nil {
		t.Fatalf("insert landmark: %v", err)
	}

	c, err := GlobalCounts(conn)
	if err != nil {
		t.Fatalf("global counts: %v", err)
	}
	want := Counts{Words: 2, Videos: 3, Downloaded: 1, Processed: 1, Frames: 1, Landmarks: 1}
	if c != want {
		t.Fatalf("counts mismatch: got %+v, want %+v", c, want)
	}
}

func TestPerWordStats(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	bookID, _, err := CreateOrGetWord(conn, "book")
	if err != nil {
		t.Fatalf("word: %v", err)
	}
	for i, split := range []Split{SplitTrain, SplitTrain, SplitVal, SplitTest} {
		ext := string(rune('1' + i))
		if _, _, err := RegisterVideo(conn, bookID, VideoParams{ExternalID: ext, Split: split}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	videoID, err := findVideo(conn, bookID, VideoParams{ExternalID: "1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if _, err := MarkDownloaded(conn, videoID, "/data/1.mp4"); err != nil {
		t.Fatalf("mark downloaded: %v", err)
	}

	// A word with zero videos still gets a stats row.
	if _, _, err := CreateOrGetWord(conn, "drink"); err != nil {
		t.Fatalf("word: %v", err)
	}

	stats, err := PerWordStats(conn)
	if err != nil {
		t.Fatalf("per-word stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	// Ordered by gloss: book before drink.
	book, drink := stats[0], stats[1]
	if book.Gloss != "book" || drink.Gloss != "drink" {
		t.Fatalf("unexpected order: %q, %q", book.Gloss, drink.Gloss)
	}
	if book.Total != 4 || book.Downloaded != 1 || book.Processed != 0 {
		t.Fatalf("book counts wrong: %+v", book)
	}
	if book.Train != 2 || book.Val != 1 || book.Test != 1 {
		t.Fatalf("book split breakdown wrong: %+v", book)
	}
	if drink.Total != 0 || drink.Train != 0 || drink.Val != 0 || drink.Test != 0 {
		t.Fatalf("zero-video word must report all zeros: %+v", drink)
	}
}

func TestPendingDownloadsOrderAndLimit(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	// Register out of gloss order.
	zebraID := registerTestVideo(t, conn, "zebra", "z1")
	appleID := registerTestVideo(t, conn, "apple", "a1")
	bookID := registerTestVideo(t, conn, "book", "b1")

	pending, err := PendingDownloads(conn, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	order := []int64{appleID, bookID, zebraID}
	for i, want := range order {
		if pending[i].VideoID != want {
			t.Fatalf("expected gloss order %v, got %+v", order, pending)
		}
	}

	limited, err := PendingDownloads(conn, 2)
	if err != nil {
		t.Fatalf("pending limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit of 2 respected, got %d", len(limited))
	}
	if limited[0].Gloss != "apple" || limited[1].Gloss != "book" {
		t.Fatalf("unexpected limited listing: %+v", limited)
	}
}

func TestTopWords(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	bookID, _, err := CreateOrGetWord(conn, "book")
	if err != nil {
		t.Fatalf("word: %v", err)
	}
	drinkID, _, err := CreateOrGetWord(conn, "drink")
	if err != nil {
		t.Fatalf("word: %v", err)
	}
	for _, ext := range []string{"1", "2", "3"} {
		if _, _, err := RegisterVideo(conn, bookID, VideoParams{ExternalID: ext, Split: SplitTrain}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if _, _, err := RegisterVideo(conn, drinkID, VideoParams{ExternalID: "4", Split: SplitTrain}); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, id := range []int64{bookID, drinkID} {
		if _, err := RecomputeSampleCount(conn, id); err != nil {
			t.Fatalf("recompute: %v", err)
		}
	}

	top, err := TopWords(conn, 1)
	if err != nil {
		t.Fatalf("top words: %v", err)
	}
	if len(top) != 1 || top[0].Gloss != "book" || top[0].SampleCount != 3 {
		t.Fatalf("unexpected top words: %+v", top)
	}
}
