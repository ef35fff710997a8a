// Package catalog parses the WLASL-style catalog document: a JSON array of
// vocabulary entries, each a gloss with its list of video instances. The
// reader streams entries so the store-writing step stays decoupled and the
// parse is testable against literal fixtures.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Entry is one catalog record: a gloss and its video instances. An empty
// instance list is valid; the ingester counts such entries as skipped.
type Entry struct {
	Gloss     string     `json:"gloss"`
	Instances []Instance `json:"instances"`
}

// Instance is one video example of a gloss being performed. Pointer fields
// are nil when the catalog omits them.
type Instance struct {
	VideoID    string   `json:"video_id"`
	URL        string   `json:"url"`
	Split      string   `json:"split"`
	SignerID   *int64   `json:"signer_id"`
	FPS        *float64 `json:"fps"`
	FrameStart *int64   `json:"frame_start"`
	FrameEnd   *int64   `json:"frame_end"`
	Duration   *float64 `json:"duration"`
}

// DurationSec returns the explicit duration when the catalog provides one,
// otherwise derives it from the frame range and fps. Nil when neither is
// available.
func (in Instance) DurationSec() *float64 {
	if in.Duration != nil {
		return in.Duration
	}
	if in.FPS != nil && *in.FPS > 0 && in.FrameStart != nil && in.FrameEnd != nil {
		d := float64(*in.FrameEnd-*in.FrameStart) / *in.FPS
		return &d
	}
	return nil
}

// MalformedError indicates the catalog does not match the expected shape:
// a top-level array of objects each bearing a gloss string. It is fatal to
// an ingestion run.
type MalformedError struct {
	// Index is the zero-based position of the offending entry, or -1 when
	// the document itself is not an array.
	Index  int
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed catalog: %s", e.Reason)
	}
	return fmt.Sprintf("malformed catalog: entry %d: %s", e.Index, e.Reason)
}

// Reader streams catalog entries in document order. It is lazy: entries are
// decoded one Next call at a time, so arbitrarily large catalogs never sit
// in memory whole. Restart by constructing a new Reader over the source.
type Reader struct {
	dec     *json.Decoder
	started bool
	done    bool
	index   int
}

// NewReader returns a Reader over the catalog document in r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Next returns the next catalog entry. It returns io.EOF after the last
// entry and *MalformedError when the document shape is invalid.
func (r *Reader) Next() (Entry, error) {
	if r.done {
		return Entry{}, io.EOF
	}

	if !r.started {
		tok, err := r.dec.Token()
		if err != nil {
			r.done = true
			return Entry{}, &MalformedError{Index: -1, Reason: describeTokenErr(err)}
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			r.done = true
			return Entry{}, &MalformedError{Index: -1, Reason: fmt.Sprintf("top level is %v, expected an array", tok)}
		}
		r.started = true
	}

	if !r.dec.More() {
		r.done = true
		if _, err := r.dec.Token(); err != nil {
			return Entry{}, &MalformedError{Index: r.index, Reason: describeTokenErr(err)}
		}
		return Entry{}, io.EOF
	}

	var e Entry
	if err := r.dec.Decode(&e); err != nil {
		r.done = true
		return Entry{}, &MalformedError{Index: r.index, Reason: err.Error()}
	}
	if strings.TrimSpace(e.Gloss) == "" {
		r.done = true
		return Entry{}, &MalformedError{Index: r.index, Reason: "missing gloss"}
	}
	r.index++
	return e, nil
}

func describeTokenErr(err error) string {
	if err == io.EOF {
		return "empty document"
	}
	return err.Error()
}
