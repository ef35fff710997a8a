package db

import "fmt"

// Counts holds the global row counts reported to the operator.
type Counts struct {
	Words      int
	Videos     int
	Downloaded int
	Processed  int
	Frames     int
	Landmarks  int
}

// GlobalCounts returns totals across the whole store.
func GlobalCounts(x DBExecutor) (Counts, error) {
	var c Counts
	err := x.QueryRow(`SELECT
		(SELECT COUNT(*) FROM words),
		(SELECT COUNT(*) FROM videos),
		(SELECT COUNT(*) FROM videos WHERE downloaded = 1),
		(SELECT COUNT(*) FROM videos WHERE processed = 1),
		(SELECT COUNT(*) FROM frames),
		(SELECT COUNT(*) FROM landmarks)`,
	).Scan(&c.Words, &c.Videos, &c.Downloaded, &c.Processed, &c.Frames, &c.Landmarks)
	if err != nil {
		return Counts{}, fmt.Errorf("global counts: %w", err)
	}
	return c, nil
}

// WordStats is the per-word breakdown: totals plus the split distribution.
type WordStats struct {
	WordID     int64
	Gloss      string
	Total      int
	Downloaded int
	Processed  int
	Train      int
	Val        int
	Test       int
}

// PerWordStats returns one row per word, ordered by gloss. Words with zero
// videos are included with all-zero counts, not omitted.
func PerWordStats(x DBExecutor) ([]WordStats, error) {
	rows, err := x.Query(`SELECT w.id, w.gloss,
		COUNT(v.id),
		COALESCE(SUM(v.downloaded), 0),
		COALESCE(SUM(v.processed), 0),
		COALESCE(SUM(CASE WHEN v.split = 'train' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN v.split = 'val' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN v.split = 'test' THEN 1 ELSE 0 END), 0)
	FROM words w
	LEFT JOIN videos v ON v.word_id = w.id
	GROUP BY w.id, w.gloss
	ORDER BY w.gloss`)
	if err != nil {
		return nil, fmt.Errorf("per-word stats: %w", err)
	}
	defer rows.Close()

	var out []WordStats
	for rows.Next() {
		var ws WordStats
		if err := rows.Scan(&ws.WordID, &ws.Gloss, &ws.Total, &ws.Downloaded, &ws.Processed,
			&ws.Train, &ws.Val, &ws.Test); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// PendingVideo is one entry in the downloader's work queue.
type PendingVideo struct {
	VideoID    int64
	Gloss      string
	ExternalID string
	SourceURL  string
	Split      Split
}

// PendingDownloads lists videos with downloaded = false joined with their
// word's gloss, ordered by gloss. This is the query the external downloader
// polls. limit <= 0 means no bound.
func PendingDownloads(x DBExecutor, limit int) ([]PendingVideo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := x.Query(`SELECT v.id, w.gloss, v.external_video_id, v.source_url, v.split
		FROM videos v
		JOIN words w ON v.word_id = w.id
		WHERE v.downloaded = 0
		ORDER BY w.gloss, v.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending downloads: %w", err)
	}
	defer rows.Close()

	var out []PendingVideo
	for rows.Next() {
		var pv PendingVideo
		var split string
		if err := rows.Scan(&pv.VideoID, &pv.Gloss, &pv.ExternalID, &pv.SourceURL, &split); err != nil {
			return nil, err
		}
		pv.Split = Split(split)
		out = append(out, pv)
	}
	return out, rows.Err()
}

// TopWords returns the words with the most videos, by cached sample_count.
func TopWords(x DBExecutor, limit int) ([]Word, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := x.Query(
		`SELECT id, gloss, sample_count, created_at FROM words
		 ORDER BY sample_count DESC, gloss LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top words: %w", err)
	}
	defer rows.Close()

	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Gloss, &w.SampleCount, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
