package domain

import (
	"encoding/json"
	"time"
)

// isoLayout matches JavaScript's Date.prototype.toISOString output, which is
// the format every persisted record carries.
const isoLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a UTC instant with millisecond precision.
//
// A value read from JSON whose text is not in isoLayout (another offset, more
// fractional digits, an empty string, null or anything unparseable) keeps that
// text and writes it back unchanged. Values built in Go always encode in
// isoLayout.
type Timestamp struct {
	time.Time
	src     string // JSON literal as read; empty when it was already canonical
	invalid bool
}

// Now returns the current instant truncated to milliseconds.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// Valid reports whether the stored text was a parseable timestamp.
func (t Timestamp) Valid() bool {
	return !t.invalid
}

func (t Timestamp) String() string {
	if t.src != "" {
		var s string
		if json.Unmarshal([]byte(t.src), &s) == nil {
			return s
		}
		return t.src
	}
	return t.UTC().Format(isoLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.src != "" {
		return []byte(t.src), nil
	}
	return json.Marshal(t.UTC().Format(isoLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{src: "null", invalid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		*t = Timestamp{src: string(b), invalid: true}
		return nil
	}
	*t = Timestamp{Time: parsed.UTC()}
	if string(b) != `"`+t.UTC().Format(isoLayout)+`"` {
		t.src = string(b)
	}
	return nil
}
