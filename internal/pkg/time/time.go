// Package time holds time helpers shared by config and the wire formats.
package time

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the layout of envelope timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Duration is a time.Duration that reads from and writes to strings such as
// "5s" in JSON and environment variables.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}

	d.Duration = parsed
	return nil
}

// Timestamp formats t with TimestampLayout in local time.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
