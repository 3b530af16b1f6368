package recurrence

import (
	"testing"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

func TestParse_Phrases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantFreq     models.Frequency
		wantInterval int
		wantDays     []time.Weekday
	}{
		{"every weekday name", "standup every tuesday", models.FrequencyWeekly, 1, []time.Weekday{time.Tuesday}},
		{"every week", "sync every week", models.FrequencyWeekly, 1, nil},
		{"every two weeks", "payday every two weeks", models.FrequencyWeekly, 2, nil},
		{"every 3 weeks", "rotate every 3 weeks", models.FrequencyWeekly, 3, nil},
		{"every other day", "water plants every other day", models.FrequencyDaily, 2, nil},
		{"bare daily", "take vitamins daily", models.FrequencyDaily, 1, nil},
		{"bare weekly", "report weekly", models.FrequencyWeekly, 1, nil},
		{"bare monthly", "invoice monthly", models.FrequencyMonthly, 1, nil},
		{"annually", "renew annually", models.FrequencyYearly, 1, nil},
		{"every month", "rent every month", models.FrequencyMonthly, 1, nil},
		{"every year", "checkup every year", models.FrequencyYearly, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rule, diags, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if rule == nil {
				t.Fatalf("Parse(%q) = nil rule", tt.input)
			}
			if len(diags) != 0 {
				t.Errorf("unexpected diagnostics %v", diags)
			}
			if rule.Frequency != tt.wantFreq {
				t.Errorf("Frequency = %v, want %v", rule.Frequency, tt.wantFreq)
			}
			if rule.Interval != tt.wantInterval {
				t.Errorf("Interval = %d, want %d", rule.Interval, tt.wantInterval)
			}
			if len(rule.DaysOfWeek) != len(tt.wantDays) {
				t.Fatalf("DaysOfWeek = %v, want %v", rule.DaysOfWeek, tt.wantDays)
			}
			for i := range tt.wantDays {
				if rule.DaysOfWeek[i] != tt.wantDays[i] {
					t.Errorf("DaysOfWeek = %v, want %v", rule.DaysOfWeek, tt.wantDays)
				}
			}
		})
	}
}

func TestParse_NoRecurrence(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"lunch with Sam tomorrow",
		"ship the release on friday",
		"meet until we agree", // until without a frequency keyword
	} {
		rule, diags, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if rule != nil {
			t.Errorf("Parse(%q) = %+v, want nil", in, rule)
		}
		if len(diags) != 0 {
			t.Errorf("Parse(%q) diagnostics = %v, want none", in, diags)
		}
	}
}

func TestParse_UntilAndCount(t *testing.T) {
	t.Parallel()

	rule, diags, err := Parse("yoga every week until 2025-12-31")
	if err != nil {
		t.Fatal(err)
	}
	if rule.Until == nil || rule.Until.String() != "2025-12-31" {
		t.Errorf("Until = %v, want 2025-12-31", rule.Until)
	}

	rule, diags, err = Parse("yoga every week for 10 times")
	if err != nil {
		t.Fatal(err)
	}
	if rule.Count != 10 {
		t.Errorf("Count = %d, want 10", rule.Count)
	}

	// Both present: until wins, count dropped with a diagnostic.
	rule, diags, err = Parse("yoga every week until 2025-12-31 for 10 times")
	if err != nil {
		t.Fatal(err)
	}
	if rule.Until == nil || rule.Count != 0 {
		t.Errorf("rule = %+v, want until kept and count dropped", rule)
	}
	if len(diags) != 1 {
		t.Errorf("diagnostics = %v, want exactly one", diags)
	}
}

func TestParse_InvalidUntil(t *testing.T) {
	t.Parallel()

	if _, _, err := Parse("gym daily until 2025-02-30"); err == nil {
		t.Error("expected error for impossible until date")
	}
}

func TestFromFlags(t *testing.T) {
	t.Parallel()

	rule, diags, err := FromFlags("weekly", 0, "", 0, []time.Weekday{time.Monday})
	if err != nil {
		t.Fatal(err)
	}
	if rule.Interval != 1 {
		t.Errorf("Interval = %d, want default 1", rule.Interval)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}

	rule, diags, err = FromFlags("daily", 1, "2025-12-31", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rule.Until == nil || rule.Count != 0 || len(diags) != 1 {
		t.Errorf("rule = %+v diags = %v, want until kept, count dropped, one diagnostic", rule, diags)
	}

	if _, _, err := FromFlags("", 1, "", 0, nil); err == nil {
		t.Error("expected error for missing frequency")
	}
	if _, _, err := FromFlags("fortnightly", 1, "", 0, nil); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

func TestDefaultWeeklyDays(t *testing.T) {
	t.Parallel()

	start := models.DateSpec{Year: 2025, Month: time.May, Day: 9} // Friday

	rule := &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 1}
	DefaultWeeklyDays(rule, start)
	if len(rule.DaysOfWeek) != 1 || rule.DaysOfWeek[0] != time.Friday {
		t.Errorf("DaysOfWeek = %v, want [Friday]", rule.DaysOfWeek)
	}

	// Explicit day sets are never overwritten.
	rule = &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 1, DaysOfWeek: []time.Weekday{time.Monday}}
	DefaultWeeklyDays(rule, start)
	if rule.DaysOfWeek[0] != time.Monday {
		t.Errorf("DaysOfWeek = %v, want [Monday]", rule.DaysOfWeek)
	}

	// Non-weekly rules are untouched.
	rule = &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1}
	DefaultWeeklyDays(rule, start)
	if len(rule.DaysOfWeek) != 0 {
		t.Errorf("DaysOfWeek = %v, want empty", rule.DaysOfWeek)
	}
}
