package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedRange is returned when a "min-max" string cannot be parsed.
var ErrMalformedRange = errors.New("malformed range")

// Range is a min–max pair stored as a single "min-max" string column,
// e.g. price_range = "500000-750000" or size_range = "1200-1850".
// The zero value represents NULL.
type Range struct {
	Min   float64
	Max   float64
	Valid bool
}

// ParseRange parses "min-max". Both bounds must be non-negative and
// min must not exceed max. An empty string yields an invalid (NULL) Range.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, nil
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q must be in min-max form", ErrMalformedRange, s)
	}

	minVal, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid minimum in %q", ErrMalformedRange, s)
	}
	maxVal, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid maximum in %q", ErrMalformedRange, s)
	}
	if minVal < 0 || maxVal < 0 {
		return Range{}, fmt.Errorf("%w: bounds must be non-negative in %q", ErrMalformedRange, s)
	}
	if minVal > maxVal {
		return Range{}, fmt.Errorf("%w: minimum exceeds maximum in %q", ErrMalformedRange, s)
	}

	return Range{Min: minVal, Max: maxVal, Valid: true}, nil
}

// String renders the range as "min-max", or "" when not valid.
func (r Range) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.FormatFloat(r.Min, 'f', -1, 64) + "-" + strconv.FormatFloat(r.Max, 'f', -1, 64)
}

// Scan implements sql.Scanner for reading the text column.
func (r *Range) Scan(value interface{}) error {
	if value == nil {
		*r = Range{}
		return nil
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("failed to scan Range: expected string, got %T", value)
	}

	parsed, err := ParseRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer for writing the text column.
func (r Range) Value() (driver.Value, error) {
	if !r.Valid {
		return nil, nil
	}
	return r.String(), nil
}

// MarshalJSON renders the range as its "min-max" string, or null.
func (r Range) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a "min-max" string or null.
func (r *Range) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Range{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: expected string", ErrMalformedRange)
	}

	parsed, err := ParseRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
