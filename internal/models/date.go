package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the calendar date form used by date-only columns.
const DateLayout = "2006-01-02"

// Date is a calendar date read from client payloads. It accepts
// "YYYY-MM-DD" and RFC 3339 timestamps. A value that is neither does not
// fail decoding; it is flagged so the owning entry can be dropped on its
// own instead of rejecting the whole body.
type Date struct {
	time.Time
	malformed string
}

// NewDate returns the date of t in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Malformed returns the raw value when it could not be read as a date.
func (d Date) Malformed() (string, bool) {
	return d.malformed, d.malformed != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = Date{malformed: string(data)}
		return nil
	}
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(DateLayout, raw); err == nil {
		*d = Date{Time: t}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		*d = NewDate(t)
		return nil
	}
	*d = Date{malformed: raw}
	if raw == "" {
		d.malformed = `""`
	}
	return nil
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}
