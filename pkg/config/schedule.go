package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is a wall-clock time as seconds since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf returns the wall-clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" in 24-hour notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", s)
}

// String formats the time as HH:MM, or HH:MM:SS when seconds are set.
func (t TimeOfDay) String() string {
	h, m, s := int(t)/3600, int(t)%3600/60, int(t)%60
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// UnmarshalYAML decodes a quoted "HH:MM" string.
func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

// ParseWeekday accepts three-letter and full English day names in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sun", "sunday":
		return time.Sunday, nil
	case "mon", "monday":
		return time.Monday, nil
	case "tue", "tuesday":
		return time.Tuesday, nil
	case "wed", "wednesday":
		return time.Wednesday, nil
	case "thu", "thursday":
		return time.Thursday, nil
	case "fri", "friday":
		return time.Friday, nil
	case "sat", "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
}

// UnmarshalYAML decodes a schedule window.
func (s *Schedule) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Days     []string  `yaml:"days"`
		Start    TimeOfDay `yaml:"start"`
		End      TimeOfDay `yaml:"end"`
		Timezone string    `yaml:"timezone"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	days := make([]time.Weekday, 0, len(raw.Days))
	for _, d := range raw.Days {
		day, err := ParseWeekday(d)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		days = append(days, day)
	}

	s.Days = days
	s.Start = raw.Start
	s.End = raw.End
	s.Timezone = raw.Timezone
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	return nil
}
