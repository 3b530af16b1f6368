package models

import (
	"testing"
	"time"
)

func TestTimeOfDay_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tod   TimeOfDay
		valid bool
	}{
		{"midnight", TimeOfDay{0, 0}, true},
		{"noon", TimeOfDay{12, 0}, true},
		{"last minute", TimeOfDay{23, 59}, true},
		{"hour overflow", TimeOfDay{24, 0}, false},
		{"minute overflow", TimeOfDay{10, 60}, false},
		{"negative hour", TimeOfDay{-1, 30}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.tod.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", TimeOfDay{0, 0}, false},
		{"09:30", TimeOfDay{9, 30}, false},
		{"23:59", TimeOfDay{23, 59}, false},
		{"24:00", TimeOfDay{}, true},
		{"12:60", TimeOfDay{}, true},
		{"noon", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateSpec_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		date  DateSpec
		valid bool
	}{
		{"ordinary day", DateSpec{2025, time.May, 7}, true},
		{"leap day in leap year", DateSpec{2024, time.February, 29}, true},
		{"leap day in common year", DateSpec{2025, time.February, 29}, false},
		{"day 31 in 30-day month", DateSpec{2025, time.April, 31}, false},
		{"day zero", DateSpec{2025, time.April, 0}, false},
		{"month 13", DateSpec{2025, time.Month(13), 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.date.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestDateSpec_AddDays_RollsMonth(t *testing.T) {
	t.Parallel()

	got := DateSpec{2025, time.April, 30}.AddDays(1)
	want := DateSpec{2025, time.May, 1}
	if got != want {
		t.Errorf("AddDays(1) = %v, want %v", got, want)
	}

	got = DateSpec{2024, time.February, 28}.AddDays(1)
	want = DateSpec{2024, time.February, 29}
	if got != want {
		t.Errorf("AddDays(1) across leap day = %v, want %v", got, want)
	}
}

func TestParseDate_RejectsImpossibleDates(t *testing.T) {
	t.Parallel()

	if _, err := ParseDate("2025-06-31"); err == nil {
		t.Error("expected error for June 31")
	}
	d, err := ParseDate("2025-05-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-05-07" {
		t.Errorf("round trip = %s, want 2025-05-07", d.String())
	}
}

func TestKindFromIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		intent string
		want   CommandKind
	}{
		{"create_event", KindEvent},
		{"create_reminder", KindReminder},
		{"create_note", KindNote},
		{"open_settings", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			t.Parallel()
			if got := KindFromIntent(tt.intent); got != tt.want {
				t.Errorf("KindFromIntent(%q) = %v, want %v", tt.intent, got, tt.want)
			}
		})
	}
}
