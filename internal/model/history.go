package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InputType tags what kind of upload produced a history entry.
type InputType string

const (
	InputImage  InputType = "image"
	InputVideo  InputType = "video"
	InputStream InputType = "stream"
)

// legacyNamespace seeds deterministic ids for entries written before ids existed.
var legacyNamespace = uuid.MustParse("6f1c2a5e-3d4b-4f7a-9c1e-8b2d0a7e5c43")

// naiveLayout is an ISO-8601 timestamp without a zone, read as local time.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Box is a single detection in pixel space.
type Box struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// HistoryEntry records one processed upload.
type HistoryEntry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	InputType      InputType `json:"input_type"`
	Filename       string    `json:"filename"`
	ResultFilename string    `json:"result_filename"`
	HorseCount     int       `json:"horse_count"`
	Boxes          []Box     `json:"boxes"`

	// Legacy is set when the entry was decoded from the count-only schema.
	Legacy bool `json:"-"`
}

// NewHistoryEntry builds an entry with a fresh id; HorseCount always follows len(boxes).
func NewHistoryEntry(inputType InputType, filename, resultFilename string, boxes []Box, now time.Time) *HistoryEntry {
	if boxes == nil {
		boxes = []Box{}
	}
	return &HistoryEntry{
		ID:             uuid.NewString(),
		Timestamp:      now,
		InputType:      inputType,
		Filename:       filename,
		ResultFilename: resultFilename,
		HorseCount:     len(boxes),
		Boxes:          boxes,
	}
}

// rawEntry accepts both the current schema and the older count-only one.
type rawEntry struct {
	ID             string    `json:"id"`
	Timestamp      string    `json:"timestamp"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	InputType      InputType `json:"input_type"`
	Filename       string    `json:"filename"`
	ResultFilename string    `json:"result_filename"`
	HorseCount     int       `json:"horse_count"`
	Boxes          []Box     `json:"boxes"`
}

// UnmarshalJSON decodes either schema and normalises legacy entries.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entry := HistoryEntry{
		ID:             raw.ID,
		InputType:      raw.InputType,
		Filename:       raw.Filename,
		ResultFilename: raw.ResultFilename,
		HorseCount:     raw.HorseCount,
		Boxes:          raw.Boxes,
	}

	switch {
	case raw.Timestamp != "":
		ts, err := ParseTimestamp(raw.Timestamp)
		if err != nil {
			return err
		}
		entry.Timestamp = ts
	case raw.Date != "":
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(raw.Date+" "+raw.Time), time.Local)
		if err != nil {
			ts, err = time.ParseInLocation("2006-01-02", raw.Date, time.Local)
			if err != nil {
				return fmt.Errorf("invalid legacy date %q: %w", raw.Date, err)
			}
		}
		entry.Timestamp = ts
		entry.Legacy = true
	}

	if entry.ID == "" {
		key := fmt.Sprintf("%s|%s|%s|%d", raw.Date, raw.Time, raw.Filename, raw.HorseCount)
		entry.ID = uuid.NewSHA1(legacyNamespace, []byte(key)).String()
		entry.Legacy = true
	}
	if entry.InputType == "" {
		entry.InputType = InputImage
	}
	if entry.ResultFilename == "" {
		entry.ResultFilename = entry.Filename
	}
	if entry.Boxes == nil {
		entry.Boxes = []Box{}
	}

	*e = entry
	return nil
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO-8601 timestamps.
func ParseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(naiveLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
	}
	return ts, nil
}

// HistoryFilter narrows entries for spreadsheet export.
type HistoryFilter struct {
	InputType  InputType
	DateAfter  time.Time
	DateBefore time.Time
}

// Match reports whether the entry passes the filter. Dates are inclusive days.
func (f HistoryFilter) Match(e HistoryEntry) bool {
	if f.InputType != "" && e.InputType != f.InputType {
		return false
	}
	day := truncateDay(e.Timestamp)
	if !f.DateAfter.IsZero() && day.Before(truncateDay(f.DateAfter)) {
		return false
	}
	if !f.DateBefore.IsZero() && day.After(truncateDay(f.DateBefore)) {
		return false
	}
	return true
}

// Apply returns the matching entries in their original order.
func (f HistoryFilter) Apply(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
