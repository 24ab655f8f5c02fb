package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{
			name:    "UTC",
			tz:      "UTC",
			wantErr: false,
		},
		{
			name:    "empty string defaults to UTC",
			tz:      "",
			wantErr: false,
		},
		{
			name:    "Asia/Shanghai",
			tz:      "Asia/Shanghai",
			wantErr: false,
		},
		{
			name:    "invalid timezone",
			tz:      "Not/AZone",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimezone(%q) error = %v, wantErr %v", tt.tz, err, tt.wantErr)
			}
			if loc == nil {
				t.Errorf("ParseTimezone(%q) returned nil location", tt.tz)
			}
		})
	}
}

func TestDayStartEnd(t *testing.T) {
	loc, err := ParseTimezone("Asia/Shanghai")
	if err != nil {
		t.Fatal(err)
	}

	moment := time.Date(2026, 3, 15, 13, 45, 30, 0, loc)
	start := DayStart(moment)
	end := DayEnd(moment)

	if !start.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("DayStart = %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 16, 0, 0, 0, 0, loc)) {
		t.Errorf("DayEnd = %v", end)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("day length = %v", end.Sub(start))
	}
}

func TestTodayRangeContainsNow(t *testing.T) {
	start, end := TodayRange(nil)
	now := time.Now().Unix()

	if now < start || now >= end {
		t.Errorf("now %d outside today range [%d, %d)", now, start, end)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	hour, minute, err := ParseTimeOfDay("20:00")
	if err != nil {
		t.Fatal(err)
	}
	if hour != 20 || minute != 0 {
		t.Errorf("got %d:%d, want 20:00", hour, minute)
	}

	if _, _, err := ParseTimeOfDay("25:99"); err == nil {
		t.Error("expected error for invalid time of day")
	}
}
