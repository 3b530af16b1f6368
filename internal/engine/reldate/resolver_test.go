package reldate

import (
	"testing"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

// Wednesday, May 7 2025, 10:00 local.
var refNow = time.Date(2025, time.May, 7, 10, 0, 0, 0, time.UTC)

func TestResolve_Phrases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		want     models.DateSpec
		wantBias Bias
	}{
		{"today", "submit the report today", models.DateSpec{Year: 2025, Month: time.May, Day: 7}, BiasNone},
		{"tonight biases pm", "team dinner tonight at 7", models.DateSpec{Year: 2025, Month: time.May, Day: 7}, BiasPM},
		{"this morning", "dentist this morning", models.DateSpec{Year: 2025, Month: time.May, Day: 7}, BiasAM},
		{"this evening", "drinks this evening", models.DateSpec{Year: 2025, Month: time.May, Day: 7}, BiasPM},
		{"tomorrow", "call the plumber tomorrow", models.DateSpec{Year: 2025, Month: time.May, Day: 8}, BiasNone},
		{"tomorrow morning", "gym tomorrow morning", models.DateSpec{Year: 2025, Month: time.May, Day: 8}, BiasAM},
		{"tomorrow night", "movie tomorrow night", models.DateSpec{Year: 2025, Month: time.May, Day: 8}, BiasPM},
		{"bare future weekday", "review on friday", models.DateSpec{Year: 2025, Month: time.May, Day: 9}, BiasNone},
		{"bare past weekday rolls forward", "sync on monday", models.DateSpec{Year: 2025, Month: time.May, Day: 12}, BiasNone},
		{"same weekday means next week", "planning on wednesday", models.DateSpec{Year: 2025, Month: time.May, Day: 14}, BiasNone},
		{"next weekday", "lunch next tuesday", models.DateSpec{Year: 2025, Month: time.May, Day: 13}, BiasNone},
		{"this coming weekday", "demo this coming saturday", models.DateSpec{Year: 2025, Month: time.May, Day: 10}, BiasNone},
		{"first friday rolls to june", "board meeting the first friday", models.DateSpec{Year: 2025, Month: time.June, Day: 6}, BiasNone},
		{"second saturday this month", "market the second saturday of the month", models.DateSpec{Year: 2025, Month: time.May, Day: 10}, BiasNone},
		{"last friday of month", "retro the last friday of the month", models.DateSpec{Year: 2025, Month: time.May, Day: 30}, BiasNone},
		{"explicit iso date", "ship on 2025-12-24", models.DateSpec{Year: 2025, Month: time.December, Day: 24}, BiasNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tt.input, refNow)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.input, err)
			}
			if !got.Explicit {
				t.Errorf("Explicit = false, want true")
			}
			if got.Date != tt.want {
				t.Errorf("Date = %v, want %v", got.Date, tt.want)
			}
			if got.Bias != tt.wantBias {
				t.Errorf("Bias = %v, want %v", got.Bias, tt.wantBias)
			}
		})
	}
}

func TestResolve_UntilDateIsNotTheEventDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  models.DateSpec
	}{
		{
			"weekday phrase wins over until date",
			"standup every friday until 2025-12-31 at 9am",
			models.DateSpec{Year: 2025, Month: time.May, Day: 9},
		},
		{
			"until date alone falls back to today",
			"water the plants daily until 2025-06-30",
			models.DateSpec{Year: 2025, Month: time.May, Day: 7},
		},
		{
			"free-standing date still wins",
			"review on 2025-06-15 every week until 2025-12-31",
			models.DateSpec{Year: 2025, Month: time.June, Day: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Resolve(tt.input, refNow)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.input, err)
			}
			if got.Date != tt.want {
				t.Errorf("Date = %v, want %v", got.Date, tt.want)
			}
		})
	}
}

func TestResolve_DefaultsToToday(t *testing.T) {
	t.Parallel()

	got, err := Resolve("buy oat milk", refNow)
	if err != nil {
		t.Fatal(err)
	}
	if got.Explicit {
		t.Error("Explicit = true, want false")
	}
	if got.Date != (models.DateSpec{Year: 2025, Month: time.May, Day: 7}) {
		t.Errorf("Date = %v, want reference date", got.Date)
	}
}

func TestResolve_InvalidExplicitDate(t *testing.T) {
	t.Parallel()

	if _, err := Resolve("party on 2025-06-31", refNow); err == nil {
		t.Error("expected error for June 31")
	}
}

func TestResolve_NeverPast(t *testing.T) {
	t.Parallel()

	today := models.DateOf(refNow)
	for _, in := range []string{
		"on sunday", "on monday", "on tuesday", "on wednesday",
		"on thursday", "on friday", "on saturday",
		"the first monday", "the last sunday of the month",
	} {
		got, err := Resolve(in, refNow)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", in, err)
		}
		if got.Date.Before(today) || got.Date == today {
			t.Errorf("Resolve(%q) = %v, not strictly after %v", in, got.Date, today)
		}
	}
}

func TestNextWeekday_AlwaysWithinWeek(t *testing.T) {
	t.Parallel()

	today := models.DateOf(refNow)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		got := nextWeekday(today, wd)
		if got.Weekday() != wd {
			t.Errorf("nextWeekday(%v) landed on %v", wd, got.Weekday())
		}
		diff := got.Time(models.TimeOfDay{}, time.UTC).Sub(today.Time(models.TimeOfDay{}, time.UTC))
		days := int(diff.Hours() / 24)
		if days < 1 || days > 7 {
			t.Errorf("nextWeekday(%v) = %d days ahead, want 1..7", wd, days)
		}
	}
}
