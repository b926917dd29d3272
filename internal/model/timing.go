package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type TimingType string

const (
	TimingMeal     TimingType = "Meal-Related"
	TimingSpecific TimingType = "Specific-Time"
)

func (t TimingType) Valid() bool {
	return t == TimingMeal || t == TimingSpecific
}

type Frequency string

const (
	FrequencyDaily    Frequency = "Daily"
	FrequencyAsNeeded Frequency = "As-Needed"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyAsNeeded
}

// older clients send "As Needed"
func (f *Frequency) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(s), "as needed") {
		s = string(FrequencyAsNeeded)
	}
	*f = Frequency(s)
	return nil
}

// TimeOfDay is a wall-clock time without a date, serialised as "HH:MM:SS".
type TimeOfDay struct {
	Hour, Minute, Second int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

// FromDuration builds a TimeOfDay from an offset since midnight.
func FromDuration(d time.Duration) TimeOfDay {
	secs := int(d / time.Second)
	return TimeOfDay{Hour: secs / 3600 % 24, Minute: secs / 60 % 60, Second: secs % 60}
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Format12h renders e.g. "09:00 AM".
func (t TimeOfDay) Format12h() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("03:04 PM")
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Date is a calendar date serialised as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

// Timestamp is an incoming instant. Values without an offset, as sent by
// Python's isoformat(), are kept as wall-clock fields until Resolve places
// them in a zone.
type Timestamp struct {
	t     time.Time
	naive bool
}

// naive layouts; a fractional second after the seconds field is accepted
var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{t: t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t: t, naive: true}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid datetime %q", s)
}

// Resolve returns the instant, reading a naive value as wall-clock time in loc.
func (ts Timestamp) Resolve(loc *time.Location) time.Time {
	if !ts.naive {
		return ts.t
	}
	if loc == nil {
		loc = time.UTC
	}
	t := ts.t
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = v
	return nil
}
