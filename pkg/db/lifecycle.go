package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrVideoNotFound is returned by lifecycle operations on an unknown video id.
var ErrVideoNotFound = errors.New("video not found")

// ErrNotDownloaded is returned by MarkProcessed when the video has not been
// downloaded yet.
var ErrNotDownloaded = errors.New("video not downloaded")

// The lifecycle operations below are the mutation surface used by the
// external downloader and frame/landmark extractor. Each one appends a
// processing log entry; the downloaded/processed flags on the video row are
// advanced with conditional updates so concurrent workers cannot lose each
// other's transitions.

// MarkDownloading records that a worker started downloading the video.
func MarkDownloading(x DBExecutor, videoID int64) error {
	if err := videoExists(x, videoID); err != nil {
		return err
	}
	if err := appendLog(x, videoID, LogDownloading, nil, nil); err != nil {
		return fmt.Errorf("mark downloading video %d: %w", videoID, err)
	}
	return nil
}

// MarkDownloaded sets downloaded = true and local_path atomically. The
// update is conditioned on downloaded = 0, so of two racing workers exactly
// one wins and the stored path is the winner's. Both callers get their
// success log entry; won reports whether this call performed the update.
// The log entry carries elapsed seconds since the video's most recent
// downloading entry, when one exists.
func MarkDownloaded(x DBExecutor, videoID int64, localPath string) (won bool, err error) {
	if err := videoExists(x, videoID); err != nil {
		return false, err
	}

	elapsed, err := secondsSinceDownloading(x, videoID)
	if err != nil {
		return false, err
	}

	res, err := x.Exec(
		`UPDATE videos SET downloaded = 1, local_path = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND downloaded = 0`,
		localPath, videoID,
	)
	if err != nil {
		return false, fmt.Errorf("mark downloaded video %d: %w", videoID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := appendLog(x, videoID, LogSuccess, nil, elapsed); err != nil {
		return false, fmt.Errorf("log success for video %d: %w", videoID, err)
	}
	return rows > 0, nil
}

// MarkFailed records a failed attempt. The downloaded flag is left alone so
// the video stays visible to PendingDownloads and the worker may retry.
func MarkFailed(x DBExecutor, videoID int64, errorMessage string) error {
	if err := videoExists(x, videoID); err != nil {
		return err
	}
	if err := appendLog(x, videoID, LogFailed, &errorMessage, nil); err != nil {
		return fmt.Errorf("mark failed video %d: %w", videoID, err)
	}
	return nil
}

// MarkProcessed sets processed = true. Only a downloaded video can be
// processed; repeating the call on an already-processed video is a no-op.
func MarkProcessed(x DBExecutor, videoID int64) error {
	res, err := x.Exec(
		`UPDATE videos SET processed = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND downloaded = 1`,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("mark processed video %d: %w", videoID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if err := videoExists(x, videoID); err != nil {
			return err
		}
		return fmt.Errorf("video %d: %w", videoID, ErrNotDownloaded)
	}
	return nil
}

func videoExists(x DBExecutor, videoID int64) error {
	var one int
	err := x.QueryRow(`SELECT 1 FROM videos WHERE id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("video %d: %w", videoID, ErrVideoNotFound)
	}
	return err
}

func appendLog(x DBExecutor, videoID int64, status LogStatus, errorMessage *string, processingTime *float64) error {
	_, err := x.Exec(
		`INSERT INTO processing_logs (video_id, status, error_message, processing_time_sec)
		 VALUES (?, ?, ?, ?)`,
		videoID, string(status), errorMessage, processingTime,
	)
	return err
}

// secondsSinceDownloading returns the age of the most recent downloading
// log entry for the video, or nil when the worker never announced one.
func secondsSinceDownloading(x DBExecutor, videoID int64) (*float64, error) {
	var secs sql.NullFloat64
	err := x.QueryRow(
		`SELECT CAST(strftime('%s', 'now') AS REAL) - CAST(strftime('%s', created_at) AS REAL)
		 FROM processing_logs
		 WHERE video_id = ? AND status = ?
		 ORDER BY id DESC LIMIT 1`,
		videoID, string(LogDownloading),
	).Scan(&secs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read downloading entry for video %d: %w", videoID, err)
	}
	if !secs.Valid {
		return nil, nil
	}
	return &secs.Float64, nil
}
