package models

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency represents how often a recurring command repeats
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurrenceRule describes repeated occurrences of an event:
// a frequency, an interval, an optional termination (until-date or
// occurrence count, mutually exclusive), and for weekly rules an
// optional day-of-week set.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	Until     *DateSpec `json:"until,omitempty"`
	Count     int       `json:"count,omitempty"`
	// DaysOfWeek is only meaningful when Frequency is weekly.
	DaysOfWeek []time.Weekday `json:"days_of_week,omitempty"`
}

// Validate checks the rule invariants: known frequency, interval >= 1,
// until and count mutually exclusive, day sets only on weekly rules.
func (r *RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return fmt.Errorf("invalid frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("interval must be >= 1, got %d", r.Interval)
	}
	if r.Until != nil && r.Count > 0 {
		return fmt.Errorf("until and count are mutually exclusive")
	}
	if r.Count < 0 {
		return fmt.Errorf("count must be >= 1, got %d", r.Count)
	}
	if len(r.DaysOfWeek) > 0 && r.Frequency != FrequencyWeekly {
		return fmt.Errorf("days_of_week only apply to weekly recurrence")
	}
	for _, d := range r.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid day of week %d", d)
		}
	}
	return nil
}

var rruleFreq = map[Frequency]rrule.Frequency{
	FrequencyDaily:   rrule.DAILY,
	FrequencyWeekly:  rrule.WEEKLY,
	FrequencyMonthly: rrule.MONTHLY,
	FrequencyYearly:  rrule.YEARLY,
}

var rruleWeekday = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// RRule renders the rule as an RFC 5545 RRULE string anchored at the
// given start instant, for backends that speak iCalendar recurrence.
func (r *RecurrenceRule) RRule(start time.Time) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	opt := rrule.ROption{
		Freq:     rruleFreq[r.Frequency],
		Interval: r.Interval,
		Dtstart:  start,
	}
	if r.Count > 0 {
		opt.Count = r.Count
	}
	if r.Until != nil {
		// Until is inclusive of the whole day.
		opt.Until = r.Until.Time(TimeOfDay{Hour: 23, Minute: 59}, time.UTC)
	}
	for _, d := range r.DaysOfWeek {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday[d])
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("failed to build recurrence rule: %w", err)
	}
	return rule.String(), nil
}
