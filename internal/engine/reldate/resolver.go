// Package reldate resolves relative date phrases ("tomorrow", "next
// Tuesday", "the first Friday") to concrete calendar dates anchored at
// a caller-supplied reference instant. Phrases that also hint at a part
// of day ("tonight", "tomorrow morning") additionally carry an AM/PM
// bias the caller can use to settle ambiguous hours.
package reldate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

// Bias is the part-of-day hint a date phrase implies for ambiguous
// clock hours. It never changes the date itself.
type Bias int

const (
	BiasNone Bias = iota
	BiasAM
	BiasPM
)

func (b Bias) String() string {
	switch b {
	case BiasAM:
		return "am"
	case BiasPM:
		return "pm"
	default:
		return "none"
	}
}

// Result is a resolved date plus the part-of-day bias of the matched
// phrase. Explicit is false when no date phrase was found and the
// reference date was used as the default.
type Result struct {
	Date     models.DateSpec
	Bias     Bias
	Explicit bool
	Phrase   string
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ordinals = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
	"last":   -1,
}

// Phrase-to-bias policy. "tonight" and the evening words push PM,
// "morning" pushes AM. Validated against the behavior scenarios, not
// derived from grammar.
var dayPartBias = map[string]Bias{
	"morning":   BiasAM,
	"afternoon": BiasPM,
	"evening":   BiasPM,
	"night":     BiasPM,
	"tonight":   BiasPM,
}

var (
	reISODate = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// An ISO date after "until" bounds a recurrence, not the first
	// occurrence, and must not be read as the event date.
	reUntilDate = regexp.MustCompile(`(?i)\buntil\s+\d{4}-\d{2}-\d{2}\b`)
	reTodayish = regexp.MustCompile(
		`(?i)\b(tonight|today|this\s+(morning|afternoon|evening))\b`)
	reTomorrow = regexp.MustCompile(
		`(?i)\btomorrow(?:\s+(morning|afternoon|evening|night))?\b`)
	reWeekday = regexp.MustCompile(
		`(?i)\b(?:(next|this\s+coming|this)\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	reOrdinalWeekday = regexp.MustCompile(
		`(?i)\b(?:the\s+)?(first|second|third|fourth|last)\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b(?:\s+of\s+(?:the\s+)?(?:this\s+|next\s+)?month)?`)
)

// Resolve finds the first date phrase in the text and maps it to a
// calendar date. When no phrase is present the reference date is
// returned with Explicit false. An explicit but impossible date
// (2025-06-31) is an error rather than a silent correction.
func Resolve(text string, now time.Time) (Result, error) {
	today := models.DateOf(now)

	if m := firstEventDate(text); m != "" {
		date, err := models.ParseDate(m)
		if err != nil {
			return Result{}, fmt.Errorf("invalid date %q: %w", m, err)
		}
		return Result{Date: date, Bias: BiasNone, Explicit: true, Phrase: m}, nil
	}

	if m := reTomorrow.FindStringSubmatch(text); m != nil {
		return Result{
			Date:     today.AddDays(1),
			Bias:     dayPartBias[strings.ToLower(m[1])],
			Explicit: true,
			Phrase:   m[0],
		}, nil
	}

	if m := reOrdinalWeekday.FindStringSubmatch(text); m != nil {
		date := ordinalWeekday(today, ordinals[strings.ToLower(m[1])], weekdays[strings.ToLower(m[2])])
		return Result{Date: date, Bias: BiasNone, Explicit: true, Phrase: m[0]}, nil
	}

	if m := reTodayish.FindStringSubmatch(text); m != nil {
		bias := BiasNone
		if strings.EqualFold(m[1], "tonight") {
			bias = BiasPM
		} else if m[2] != "" {
			bias = dayPartBias[strings.ToLower(m[2])]
		}
		return Result{Date: today, Bias: bias, Explicit: true, Phrase: m[0]}, nil
	}

	if m := reWeekday.FindStringSubmatch(text); m != nil {
		target := weekdays[strings.ToLower(m[2])]
		return Result{
			Date:     nextWeekday(today, target),
			Bias:     BiasNone,
			Explicit: true,
			Phrase:   m[0],
		}, nil
	}

	return Result{Date: today, Bias: BiasNone, Explicit: false}, nil
}

// firstEventDate returns the first ISO date in the text that is not
// claimed by an "until" termination clause.
func firstEventDate(text string) string {
	owned := reUntilDate.FindAllStringIndex(text, -1)
	for _, m := range reISODate.FindAllStringIndex(text, -1) {
		claimed := false
		for _, o := range owned {
			if m[0] >= o[0] && m[1] <= o[1] {
				claimed = true
				break
			}
		}
		if !claimed {
			return text[m[0]:m[1]]
		}
	}
	return ""
}

// nextWeekday returns the nearest strictly future occurrence of the
// weekday. Saying a weekday on that same weekday means next week, and
// a day earlier in the current week rolls forward, never back.
func nextWeekday(today models.DateSpec, target time.Weekday) models.DateSpec {
	ahead := (int(target) - int(today.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return today.AddDays(ahead)
}

// ordinalWeekday resolves "first Friday" style phrases: the Nth (or
// last) occurrence of the weekday in the current month, rolling to the
// next month when that occurrence is already past.
func ordinalWeekday(today models.DateSpec, n int, target time.Weekday) models.DateSpec {
	date := ordinalWeekdayIn(today.Year, today.Month, n, target)
	if date.Before(today) || date == today {
		y, m := today.Year, today.Month+1
		if m > time.December {
			y, m = y+1, time.January
		}
		date = ordinalWeekdayIn(y, m, n, target)
	}
	return date
}

func ordinalWeekdayIn(year int, month time.Month, n int, target time.Weekday) models.DateSpec {
	if n == -1 {
		last := models.DateOf(time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC))
		back := (int(last.Weekday()) - int(target) + 7) % 7
		return last.AddDays(-back)
	}
	first := models.DateSpec{Year: year, Month: month, Day: 1}
	ahead := (int(target) - int(first.Weekday()) + 7) % 7
	return first.AddDays(ahead + (n-1)*7)
}
