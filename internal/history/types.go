package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeLayout matches JavaScript's Date.toISOString, which is how the
// history was originally written.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ID identifies a record. On the wire it is either a string or a number;
// the original form is kept so a rewrite does not change it.
type ID struct {
	value   string
	numeric bool
}

func StringID(s string) ID {
	return ID{value: s}
}

func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), numeric: true}
}

func (id ID) String() string {
	return id.value
}

func (id ID) IsZero() bool {
	return id.value == ""
}

// Matches compares the canonical text form, so "17" and 17 are the same id.
func (id ID) Matches(s string) bool {
	return id.value == s
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

func (id ID) MarshalYAML() (any, error) {
	if id.numeric {
		n, err := strconv.ParseInt(id.value, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return id.value, nil
}

// Record is one saved session. Records are immutable once written.
type Record struct {
	ID            ID
	Topic         string
	CreatedAt     time.Time
	EndedAt       time.Time
	StudyDuration time.Duration
	RestDuration  time.Duration
}

// Normalize returns r at the precision it is persisted with: timestamps in
// UTC truncated to milliseconds, durations truncated to milliseconds.
func (r Record) Normalize() Record {
	r.CreatedAt = r.CreatedAt.Truncate(time.Millisecond).UTC()
	r.EndedAt = r.EndedAt.Truncate(time.Millisecond).UTC()
	r.StudyDuration = r.StudyDuration.Truncate(time.Millisecond)
	r.RestDuration = r.RestDuration.Truncate(time.Millisecond)
	return r
}

// normalized reports whether r survives a write and read unchanged.
func (r Record) normalized() bool {
	n := r.Normalize()
	return r.CreatedAt.Equal(n.CreatedAt) && r.CreatedAt.Location() == time.UTC &&
		r.EndedAt.Equal(n.EndedAt) && r.EndedAt.Location() == time.UTC &&
		r.StudyDuration == n.StudyDuration && r.RestDuration == n.RestDuration
}

// wireRecord is the persisted layout.
type wireRecord struct {
	ID            ID     `json:"id" yaml:"id"`
	Topic         string `json:"topic" yaml:"topic"`
	CreatedAt     string `json:"createdAt" yaml:"createdAt"`
	EndedAt       string `json:"endedAt" yaml:"endedAt"`
	StudyDuration int64  `json:"studyDuration" yaml:"studyDuration"`
	RestDuration  int64  `json:"restDuration" yaml:"restDuration"`
}

// legacyDuration is the nested layout older history entries used.
type legacyDuration struct {
	Study int64 `json:"study"`
	Rest  int64 `json:"rest"`
}

func (r Record) wire() wireRecord {
	return wireRecord{
		ID:            r.ID,
		Topic:         r.Topic,
		CreatedAt:     formatTime(r.CreatedAt),
		EndedAt:       formatTime(r.EndedAt),
		StudyDuration: r.StudyDuration.Milliseconds(),
		RestDuration:  r.RestDuration.Milliseconds(),
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

func (r Record) MarshalYAML() (any, error) {
	return r.wire(), nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w struct {
		wireRecord
		StudyDuration *int64          `json:"studyDuration"`
		RestDuration  *int64          `json:"restDuration"`
		Duration      *legacyDuration `json:"duration"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID.IsZero() {
		return fmt.Errorf("record has no id")
	}

	created, err := parseTime(w.CreatedAt)
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	ended, err := parseTime(w.EndedAt)
	if err != nil {
		return fmt.Errorf("endedAt: %w", err)
	}

	var study, rest int64
	switch {
	case w.StudyDuration != nil || w.RestDuration != nil:
		if w.StudyDuration != nil {
			study = *w.StudyDuration
		}
		if w.RestDuration != nil {
			rest = *w.RestDuration
		}
	case w.Duration != nil:
		study, rest = w.Duration.Study, w.Duration.Rest
	}
	if study < 0 || rest < 0 {
		return fmt.Errorf("negative duration in record %s", w.ID)
	}

	*r = Record{
		ID:            w.ID,
		Topic:         w.Topic,
		CreatedAt:     created,
		EndedAt:       ended,
		StudyDuration: time.Duration(study) * time.Millisecond,
		RestDuration:  time.Duration(rest) * time.Millisecond,
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
