package shome

import (
	"bytes"
	"strconv"
)

// Metric is an optional numeric reading. The cloud is inconsistent about
// numeric encoding: depending on firmware the same field arrives as a
// JSON number, a quoted number, an empty string, or is absent entirely.
// Valid is false for anything that does not parse.
type Metric struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers, quoted numbers, empty strings and null.
func (m *Metric) UnmarshalJSON(data []byte) error {
	m.Value, m.Valid = 0, false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil || unquoted == "" {
			return nil
		}
		data = []byte(unquoted)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	m.Value, m.Valid = v, true
	return nil
}

// Ptr returns the value as a pointer, nil when the reading is absent.
func (m Metric) Ptr() *float64 {
	if !m.Valid {
		return nil
	}
	v := m.Value
	return &v
}
