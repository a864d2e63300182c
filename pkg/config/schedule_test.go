package config

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: NewTimeOfDay(9, 30, 0)},
		{in: "23:59:59", want: NewTimeOfDay(23, 59, 59)},
		{in: "24:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeOfDay_String(t *testing.T) {
	if got := NewTimeOfDay(9, 5, 0).String(); got != "09:05" {
		t.Errorf("String() = %q, want 09:05", got)
	}
	if got := NewTimeOfDay(17, 0, 7).String(); got != "17:00:07" {
		t.Errorf("String() = %q, want 17:00:07", got)
	}
}

func TestTimeOfDayOf(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 15, 0, time.UTC)
	if got := TimeOfDayOf(ts); got != NewTimeOfDay(14, 30, 15) {
		t.Errorf("TimeOfDayOf() = %v", got)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"sun":       time.Sunday,
		"Monday":    time.Monday,
		"TUE":       time.Tuesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"Fri":       time.Friday,
		" sat ":     time.Saturday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Errorf("ParseWeekday(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseWeekday("someday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
