// Package recurrence extracts repetition rules from natural phrases
// ("every two weeks", "daily until 2025-12-31") and from explicit
// flag-style inputs. Output is the shared RecurrenceRule model.
package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var numberWords = map[string]int{
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var unitFreq = map[string]models.Frequency{
	"day":   models.FrequencyDaily,
	"week":  models.FrequencyWeekly,
	"month": models.FrequencyMonthly,
	"year":  models.FrequencyYearly,
}

var (
	reEveryUnit = regexp.MustCompile(
		`(?i)\bevery\s+(?:(\d+|other|two|three|four|five|six|seven|eight|nine|ten)\s+)?(day|week|month|year)s?\b`)
	reEveryWeekday = regexp.MustCompile(
		`(?i)\bevery\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	reBareFreq = regexp.MustCompile(`(?i)\b(daily|weekly|monthly|yearly|annually)\b`)
	reUntil    = regexp.MustCompile(`(?i)\buntil\s+(\d{4}-\d{2}-\d{2})\b`)
	reCount    = regexp.MustCompile(`(?i)\bfor\s+(\d+)\s+(?:times|occurrences)\b`)
)

// Parse extracts a recurrence rule from free text. Returns nil with no
// error when the text has no recurrence phrase; a frequency keyword is
// required before until/count are even considered. Diagnostics report
// reconciliations the caller should surface, such as dropping a count
// in favor of an until-date.
func Parse(text string) (*models.RecurrenceRule, []string, error) {
	rule := &models.RecurrenceRule{Interval: 1}
	var diags []string
	found := false

	if m := reEveryWeekday.FindStringSubmatch(text); m != nil {
		rule.Frequency = models.FrequencyWeekly
		rule.DaysOfWeek = []time.Weekday{weekdayNames[strings.ToLower(m[1])]}
		found = true
	} else if m := reEveryUnit.FindStringSubmatch(text); m != nil {
		rule.Frequency = unitFreq[strings.ToLower(m[2])]
		if m[1] != "" {
			n, err := parseCountWord(m[1])
			if err != nil {
				return nil, nil, err
			}
			rule.Interval = n
		}
		found = true
	} else if m := reBareFreq.FindStringSubmatch(text); m != nil {
		switch strings.ToLower(m[1]) {
		case "daily":
			rule.Frequency = models.FrequencyDaily
		case "weekly":
			rule.Frequency = models.FrequencyWeekly
		case "monthly":
			rule.Frequency = models.FrequencyMonthly
		default:
			rule.Frequency = models.FrequencyYearly
		}
		found = true
	}

	if !found {
		return nil, nil, nil
	}

	if m := reUntil.FindStringSubmatch(text); m != nil {
		until, err := models.ParseDate(m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid until date %q: %w", m[1], err)
		}
		rule.Until = &until
	}
	if m := reCount.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return nil, nil, fmt.Errorf("invalid occurrence count %q", m[1])
		}
		rule.Count = n
	}

	reconcileTermination(rule, &diags)

	if err := rule.Validate(); err != nil {
		return nil, nil, err
	}
	return rule, diags, nil
}

// FromFlags builds a rule from explicit values, the flag-equivalent of
// Parse. Frequency is required; interval defaults to 1; until wins over
// count with a diagnostic when both are given.
func FromFlags(frequency string, interval int, until string, count int, days []time.Weekday) (*models.RecurrenceRule, []string, error) {
	if frequency == "" {
		return nil, nil, fmt.Errorf("recurrence frequency is required")
	}
	rule := &models.RecurrenceRule{
		Frequency:  models.Frequency(strings.ToLower(frequency)),
		Interval:   interval,
		Count:      count,
		DaysOfWeek: days,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if until != "" {
		d, err := models.ParseDate(until)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid until date %q: %w", until, err)
		}
		rule.Until = &d
	}

	var diags []string
	reconcileTermination(rule, &diags)

	if err := rule.Validate(); err != nil {
		return nil, nil, err
	}
	return rule, diags, nil
}

// DefaultWeeklyDays fills the day set of a weekly rule from the start
// date when no explicit day phrase was given.
func DefaultWeeklyDays(rule *models.RecurrenceRule, start models.DateSpec) {
	if rule == nil || rule.Frequency != models.FrequencyWeekly || len(rule.DaysOfWeek) > 0 {
		return
	}
	rule.DaysOfWeek = []time.Weekday{start.Weekday()}
}

// reconcileTermination enforces that until beats count
func reconcileTermination(rule *models.RecurrenceRule, diags *[]string) {
	if rule.Until != nil && rule.Count > 0 {
		*diags = append(*diags, fmt.Sprintf(
			"recurrence specified both until %s and count %d; keeping until and dropping count",
			rule.Until.String(), rule.Count))
		rule.Count = 0
	}
}

func parseCountWord(word string) (int, error) {
	w := strings.ToLower(word)
	if w == "other" {
		return 2, nil
	}
	if n, ok := numberWords[w]; ok {
		return n, nil
	}
	n, err := strconv.Atoi(w)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid recurrence interval %q", word)
	}
	return n, nil
}
