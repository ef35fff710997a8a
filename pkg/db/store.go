package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor accepts either *sql.DB or *sql.Tx so store operations can run
// standalone or inside a batched ingestion transaction.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetWord returns the id of the word with the given gloss, creating
// it with sample_count = 0 when absent. The insert-or-ignore followed by a
// read makes the upsert safe against a concurrent creator: a conflict means
// the row already exists and is simply re-read. created reports whether
// this call inserted the row.
func CreateOrGetWord(x DBExecutor, gloss string) (id int64, created bool, err error) {
	trimmed := strings.TrimSpace(gloss)
	if trimmed == "" {
		return 0, false, fmt.Errorf("gloss must be non-empty")
	}

	res, err := x.Exec(
		`INSERT INTO words (gloss, sample_count) VALUES (?, 0) ON CONFLICT(gloss) DO NOTHING`,
		trimmed,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert word %q: %w", trimmed, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	if err := x.QueryRow(`SELECT id FROM words WHERE gloss = ?`, trimmed).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("read word %q: %w", trimmed, err)
	}
	return id, inserted > 0, nil
}

// GetWordID looks up a word id by its gloss. Returns sql.ErrNoRows when the
// gloss is unknown.
func GetWordID(x DBExecutor, gloss string) (int64, error) {
	var id int64
	err := x.QueryRow(`SELECT id FROM words WHERE gloss = ?`, gloss).Scan(&id)
	return id, err
}

// VideoParams carries the catalog fields for one video instance. Nil
// pointer fields are stored as NULL, never defaulted.
type VideoParams struct {
	ExternalID  string
	SourceURL   string
	Split       Split
	SignerID    *int64
	FPS         *float64
	DurationSec *float64
}

// RegisterVideo inserts a video instance under wordID, or returns the id of
// the existing row when the same instance was registered before. Identity
// is (word_id, external id), falling back to (word_id, source url) when the
// catalog carries no external id. created reports whether a new row was
// inserted; a false return with nil error is the duplicate-skip case.
func RegisterVideo(x DBExecutor, wordID int64, p VideoParams) (id int64, created bool, err error) {
	if p.ExternalID == "" && p.SourceURL == "" {
		return 0, false, fmt.Errorf("instance has neither video id nor url")
	}
	if _, ok := splitSet[p.Split]; !ok {
		return 0, false, fmt.Errorf("invalid split %q", p.Split)
	}

	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		id, err = findVideo(x, wordID, p)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, false, err
		}

		res, err := x.Exec(
			`INSERT INTO videos (word_id, external_video_id, source_url, split, signer_id, fps, duration_sec, downloaded, processed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)`,
			wordID, p.ExternalID, p.SourceURL, string(p.Split), p.SignerID, p.FPS, p.DurationSec,
		)
		if err != nil {
			// A concurrent writer beat us to the same instance; re-read it.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, false, err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}

	return 0, false, fmt.Errorf("could not register video after %d retries", maxRetries)
}

func findVideo(x DBExecutor, wordID int64, p VideoParams) (int64, error) {
	var id int64
	if p.ExternalID != "" {
		err := x.QueryRow(
			`SELECT id FROM videos WHERE word_id = ? AND external_video_id = ?`,
			wordID, p.ExternalID,
		).Scan(&id)
		return id, err
	}
	err := x.QueryRow(
		`SELECT id FROM videos WHERE word_id = ? AND external_video_id = '' AND source_url = ?`,
		wordID, p.SourceURL,
	).Scan(&id)
	return id, err
}

// RecomputeSampleCount sets the word's sample_count from the live count of
// its videos. Called after each word's instances are registered so the
// cached count self-heals even if an earlier run was interrupted.
func RecomputeSampleCount(x DBExecutor, wordID int64) (int, error) {
	var count int
	err := x.QueryRow(`SELECT COUNT(*) FROM videos WHERE word_id = ?`, wordID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count videos for word %d: %w", wordID, err)
	}
	if _, err := x.Exec(`UPDATE words SET sample_count = ? WHERE id = ?`, count, wordID); err != nil {
		return 0, fmt.Errorf("update sample_count for word %d: %w", wordID, err)
	}
	return count, nil
}

// GetVideo reads one video row.
func GetVideo(x DBExecutor, videoID int64) (Video, error) {
	var v Video
	var localPath sql.NullString
	var signerID sql.NullInt64
	var fps, duration sql.NullFloat64
	var split string
	err := x.QueryRow(
		`SELECT id, word_id, external_video_id, source_url, local_path, split,
		        signer_id, fps, duration_sec, downloaded, processed, created_at, updated_at
		 FROM videos WHERE id = ?`,
		videoID,
	).Scan(
		&v.ID, &v.WordID, &v.ExternalID, &v.SourceURL, &localPath, &split,
		&signerID, &fps, &duration, &v.Downloaded, &v.Processed, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return Video{}, err
	}
	v.Split = Split(split)
	if localPath.Valid {
		v.LocalPath = &localPath.String
	}
	if signerID.Valid {
		v.SignerID = &signerID.Int64
	}
	if fps.Valid {
		v.FPS = &fps.Float64
	}
	if duration.Valid {
		v.DurationSec = &duration.Float64
	}
	return v, nil
}
