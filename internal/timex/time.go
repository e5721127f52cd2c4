package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// layouts accepted by Time, tried in order. Layouts without a zone are read
// as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time is a time.Time that decodes from JSON in RFC 3339 form as well as the
// zone-less forms clients commonly send ("2025-01-01T10:00:00",
// "2025-01-01"). It encodes as RFC 3339.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid datetime %s", string(b))
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTime parses s in any of the accepted layouts.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}
