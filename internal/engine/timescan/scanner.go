// Package timescan finds candidate clock-time expressions in free-form
// text. It recognizes single times ("8pm", "10:30 a.m.", "23:45", "noon"),
// and explicit ranges ("from 9pm to 10pm", "9 - 10pm"), anchored by
// trigger keywords so unrelated numbers are not misread as times.
package timescan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ganderhq/gander/internal/models"
)

// Kind classifies a candidate time expression
type Kind string

const (
	// KindSingle is a lone clock time
	KindSingle Kind = "single"
	// KindRange is an explicit start-to-end pair
	KindRange Kind = "range"
)

// Candidate is one time expression found in the input, tagged with its
// byte span. For ranges, End carries the second bound. LowConfidence is
// set when the AM/PM side of an hour could not be decided from the text;
// the caller owns the defaulting policy in that case.
type Candidate struct {
	Text   string `json:"text"`
	Pos    int    `json:"pos"`
	EndPos int    `json:"end_pos"`
	Kind   Kind   `json:"kind"`

	Start models.TimeOfDay  `json:"start"`
	End   *models.TimeOfDay `json:"end,omitempty"`

	// TZAbbr is a trailing timezone abbreviation token ("PST"), if any.
	// Validating it is the timezone resolver's job.
	TZAbbr string `json:"tz_abbr,omitempty"`

	LowConfidence bool `json:"low_confidence,omitempty"`
}

// A time atom is H or H:MM with an optional am/pm suffix (dots and the
// space before the suffix both optional). Three capture groups.
const atom = `(\d{1,2})(?::(\d{2}))?\s*([AaPp]\.?[Mm]\.?)?`

// Trailing timezone abbreviation: uppercase only, even under (?i).
const tzTail = `(?:[ \t]+((?-i:[A-Z]{2,4})))?`

var (
	reFromTo   = regexp.MustCompile(`(?i)\bfrom\s+` + atom + `\s+to\s+` + atom + tzTail)
	reDashTo   = regexp.MustCompile(`(?i)\b` + atom + `\s*(?:-|to)\s*` + atom + tzTail)
	reAnchored = regexp.MustCompile(`(?i)\b(?:at|for)\s+` + atom + tzTail)
	// Bare times require an explicit meridiem so years and other numbers
	// are not misread.
	reBare = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([AaPp]\.?[Mm]\.?)` + tzTail)

	reFreeMeridiem = regexp.MustCompile(`(?i)\b([ap])\.?m\.?\b`)

	reWordTime = regexp.MustCompile(`(?i)\b(noon|midday|midnight)\b` + tzTail)
)

// wordTimes maps spelled-out clock words to their 24-hour values
var wordTimes = map[string]models.TimeOfDay{
	"noon":     {Hour: 12},
	"midday":   {Hour: 12},
	"midnight": {Hour: 0},
}

// Scan returns every candidate time expression in the text, in order of
// appearance, ranges first within overlapping spans. Scanning the same
// text always yields the same candidates.
func Scan(text string) []Candidate {
	var out []Candidate
	covered := make([]bool, len(text))

	mark := func(from, to int) {
		for i := from; i < to && i < len(covered); i++ {
			covered[i] = true
		}
	}
	overlaps := func(from, to int) bool {
		for i := from; i < to && i < len(covered); i++ {
			if covered[i] {
				return true
			}
		}
		return false
	}

	// Ranges win over singles, so they claim their spans first.
	for _, re := range []*regexp.Regexp{reFromTo, reDashTo} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if nextByteIsDigit(text, m[1]) || overlaps(m[0], m[1]) {
				continue
			}
			c, ok := rangeCandidate(text, m)
			if !ok {
				continue
			}
			out = append(out, c)
			mark(m[0], m[1])
		}
	}

	for _, re := range []*regexp.Regexp{reAnchored, reBare} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if nextByteIsDigit(text, m[1]) || overlaps(m[0], m[1]) {
				continue
			}
			c, ok := singleCandidate(text, m)
			if !ok {
				continue
			}
			out = append(out, c)
			mark(m[0], m[1])
		}
	}

	// Spelled-out clock words are unambiguous singles.
	for _, m := range reWordTime.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(m[0], m[1]) {
			continue
		}
		word := strings.ToLower(group(text, m, 1))
		out = append(out, Candidate{
			Text:   text[m[0]:m[1]],
			Pos:    m[0],
			EndPos: m[1],
			Kind:   KindSingle,
			Start:  wordTimes[word],
			TZAbbr: strings.ToUpper(group(text, m, 2)),
		})
		mark(m[0], m[1])
	}

	sortByPos(out)
	return out
}

// Best applies the selection policy: an explicit range always beats a
// single time, and earlier candidates beat later ones. Returns nil when
// no time expression was found.
func Best(cands []Candidate) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		if best == nil {
			best = c
			continue
		}
		if c.Kind == KindRange && best.Kind != KindRange {
			best = c
		}
	}
	return best
}

// HasTimeExpression reports whether the text contains any clock time
// with an explicit meridiem, with or without a timezone abbreviation
func HasTimeExpression(text string) bool {
	return reBare.MatchString(text)
}

// ApplyMeridiem converts an ambiguous 1-12 hour to 24-hour form using
// the given meridiem ("am" or "pm"). Hours already >= 13 are returned
// unchanged; 12am maps to 0 and 12pm stays 12.
func ApplyMeridiem(t models.TimeOfDay, meridiem string) models.TimeOfDay {
	switch strings.ToLower(meridiem) {
	case "pm":
		if t.Hour < 12 {
			t.Hour += 12
		}
	case "am":
		if t.Hour == 12 {
			t.Hour = 0
		}
	}
	return t
}

func nextByteIsDigit(s string, i int) bool {
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func sortByPos(cands []Candidate) {
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].Pos < cands[j-1].Pos; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
}

func group(text string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return text[m[2*n]:m[2*n+1]]
}

// parseAtom converts the captured hour/minute/meridiem groups to a
// 24-hour time. 12am becomes 00:00 and 12pm stays 12:00. Returns the
// time, whether a meridiem suffix was present, and whether the values
// were in range.
func parseAtom(hourStr, minStr, meridiem string) (models.TimeOfDay, bool, error) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return models.TimeOfDay{}, false, fmt.Errorf("invalid hour %q: %w", hourStr, err)
	}
	minute := 0
	if minStr != "" {
		if minute, err = strconv.Atoi(minStr); err != nil {
			return models.TimeOfDay{}, false, fmt.Errorf("invalid minute %q: %w", minStr, err)
		}
	}

	tod := models.TimeOfDay{Hour: hour, Minute: minute}
	hasMeridiem := meridiem != ""
	if hasMeridiem {
		switch strings.ToLower(string(meridiem[0])) {
		case "p":
			tod = ApplyMeridiem(tod, "pm")
		case "a":
			tod = ApplyMeridiem(tod, "am")
		}
	}
	if !tod.Valid() {
		return models.TimeOfDay{}, hasMeridiem, fmt.Errorf("time %02d:%02d out of range", tod.Hour, tod.Minute)
	}
	return tod, hasMeridiem, nil
}

func singleCandidate(text string, m []int) (Candidate, bool) {
	tod, hasMeridiem, err := parseAtom(group(text, m, 1), group(text, m, 2), group(text, m, 3))
	if err != nil {
		return Candidate{}, false
	}

	c := Candidate{
		Text:   text[m[0]:m[1]],
		Pos:    m[0],
		EndPos: m[1],
		Kind:   KindSingle,
		Start:  tod,
		TZAbbr: strings.ToUpper(group(text, m, 4)),
	}
	if !hasMeridiem {
		c.applyClauseMeridiem(text)
	}
	return c, true
}

func rangeCandidate(text string, m []int) (Candidate, bool) {
	from, fromHasM, err := parseAtom(group(text, m, 1), group(text, m, 2), group(text, m, 3))
	if err != nil {
		return Candidate{}, false
	}
	to, toHasM, err := parseAtom(group(text, m, 4), group(text, m, 5), group(text, m, 6))
	if err != nil {
		return Candidate{}, false
	}

	// "5 to 9" with no meridiem and no minutes anywhere is almost never
	// a time range; require some clock evidence on at least one bound.
	if !fromHasM && !toHasM && group(text, m, 2) == "" && group(text, m, 5) == "" {
		return Candidate{}, false
	}

	// A bound without its own suffix inherits the other bound's side:
	// "from 9 to 10pm" means 21:00-22:00.
	if !fromHasM && toHasM {
		from = inheritMeridiem(from, group(text, m, 6))
		fromHasM = true
	}
	if fromHasM && !toHasM {
		to = inheritMeridiem(to, group(text, m, 3))
		toHasM = true
	}

	end := to
	c := Candidate{
		Text:          text[m[0]:m[1]],
		Pos:           m[0],
		EndPos:        m[1],
		Kind:          KindRange,
		Start:         from,
		End:           &end,
		TZAbbr:        strings.ToUpper(group(text, m, 7)),
		LowConfidence: !fromHasM && !toHasM,
	}
	return c, true
}

func inheritMeridiem(t models.TimeOfDay, otherSuffix string) models.TimeOfDay {
	if otherSuffix == "" {
		return t
	}
	switch strings.ToLower(string(otherSuffix[0])) {
	case "p":
		return ApplyMeridiem(t, "pm")
	case "a":
		return ApplyMeridiem(t, "am")
	}
	return t
}

// applyClauseMeridiem resolves a missing suffix from a free-standing
// am/pm token elsewhere in the same clause. Hours >= 13 are already
// unambiguous 24-hour values. Anything else is flagged low confidence
// rather than silently guessed.
func (c *Candidate) applyClauseMeridiem(text string) {
	if c.Start.Hour >= 13 {
		return
	}

	from, to := clauseBounds(text, c.Pos, c.EndPos)
	for _, m := range reFreeMeridiem.FindAllStringSubmatchIndex(text[from:to], -1) {
		abs := from + m[0]
		if abs >= c.Pos && abs < c.EndPos {
			continue // the candidate's own text
		}
		side := strings.ToLower(text[from+m[2] : from+m[3]])
		if side == "p" {
			c.Start = ApplyMeridiem(c.Start, "pm")
		} else {
			c.Start = ApplyMeridiem(c.Start, "am")
		}
		return
	}

	c.LowConfidence = true
}

// clauseBounds finds the clause containing [pos, end): the stretch of
// text between sentence punctuation on either side.
func clauseBounds(text string, pos, end int) (int, int) {
	from := 0
	for i := pos - 1; i >= 0; i-- {
		if isClauseBreak(text, i) {
			from = i + 1
			break
		}
	}
	to := len(text)
	for i := end; i < len(text); i++ {
		if isClauseBreak(text, i) {
			to = i
			break
		}
	}
	return from, to
}

func isClauseBreak(text string, i int) bool {
	switch text[i] {
	case ',', ';', '!', '?':
		return true
	case '.':
		// A dot followed by a letter is part of an abbreviation
		// ("p.m."), not the end of the clause.
		if i+1 < len(text) && isASCIILetter(text[i+1]) {
			return false
		}
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
