package db

import "time"

// Split is the train/val/test partition assignment of a video instance.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

var splitSet = map[Split]struct{}{
	SplitTrain: {},
	SplitVal:   {},
	SplitTest:  {},
}

// NormalizeSplit maps a raw catalog split value onto the enumerated set.
// Unknown or empty values fall back to SplitTrain; ok reports whether the
// input was already valid.
func NormalizeSplit(raw string) (split Split, ok bool) {
	if _, found := splitSet[Split(raw)]; found {
		return Split(raw), true
	}
	return SplitTrain, false
}

// LogStatus is the status recorded in a processing log entry.
type LogStatus string

const (
	LogPending     LogStatus = "pending"
	LogDownloading LogStatus = "downloading"
	LogSuccess     LogStatus = "success"
	LogFailed      LogStatus = "failed"
)

// Word is a vocabulary term (gloss). SampleCount caches the live number of
// its videos and is recomputed after ingestion, never incremented ad hoc.
type Word struct {
	ID          int64
	Gloss       string
	SampleCount int
	CreatedAt   time.Time
}

// Video is one catalog instance of a word being signed. SignerID, FPS and
// DurationSec are nil when the catalog did not provide them; LocalPath is
// nil until the external downloader reports one.
type Video struct {
	ID          int64
	WordID      int64
	ExternalID  string
	SourceURL   string
	LocalPath   *string
	Split       Split
	SignerID    *int64
	FPS         *float64
	DurationSec *float64
	Downloaded  bool
	Processed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProcessingLog is one append-only history entry for a video. The
// downloaded/processed flags on the video row remain the authoritative
// current state; log entries only record attempts.
type ProcessingLog struct {
	ID             int64
	VideoID        int64
	Status         LogStatus
	ErrorMessage   *string
	ProcessingTime *float64
	CreatedAt      time.Time
}
