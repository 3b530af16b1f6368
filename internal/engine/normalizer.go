// Package engine turns a raw utterance plus an optional upstream draft
// into a validated structured command. The normalizer walks a fixed
// state sequence, running one deterministic resolver per state and
// merging its result under a fixed conflict policy: evidence found in
// the raw text always overrides the draft's same field, and the draft
// is consulted only where the text is silent.
package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ganderhq/gander/internal/engine/contacts"
	"github.com/ganderhq/gander/internal/engine/recurrence"
	"github.com/ganderhq/gander/internal/engine/reldate"
	"github.com/ganderhq/gander/internal/engine/timescan"
	"github.com/ganderhq/gander/internal/engine/timezone"
	"github.com/ganderhq/gander/internal/models"
)

// State names a stage of the normalization pipeline
type State string

const (
	StateReceived           State = "received"
	StateTimeResolved       State = "time_resolved"
	StateDateResolved       State = "date_resolved"
	StateRecurrenceResolved State = "recurrence_resolved"
	StateContactsResolved   State = "contacts_resolved"
	StateValidated          State = "validated"
	StateFinalized          State = "finalized"
	StateRejected           State = "rejected"
)

// Options configures a Normalizer. LocalZone is the caller's zone and
// the zone of the finalized command; times spoken with a timezone
// abbreviation are converted into it.
type Options struct {
	LocalZone       *time.Location
	TimezoneRes     *timezone.Resolver
	DefaultDuration time.Duration
	DefaultStart    models.TimeOfDay
	DefaultCalendar string
	DefaultTitle    string
}

// Normalizer is stateless across invocations and safe for concurrent
// use. One call is one synchronous computation over immutable inputs.
type Normalizer struct {
	opts Options
}

// Result carries the finalized command, the terminal state, and any
// diagnostics produced by defaulting or conflict reconciliation. On
// rejection Command is nil and Reason is set.
type Result struct {
	Command     *models.StructuredCommand `json:"command,omitempty"`
	State       State                     `json:"state"`
	Diagnostics []string                  `json:"diagnostics,omitempty"`
	Reason      RejectReason              `json:"reason,omitempty"`
}

// New builds a Normalizer, filling unset options with serviceable
// defaults: UTC local zone, 60 minute events starting at 09:00.
func New(opts Options) *Normalizer {
	if opts.LocalZone == nil {
		opts.LocalZone = time.UTC
	}
	if opts.TimezoneRes == nil {
		opts.TimezoneRes = timezone.NewResolver(nil)
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = time.Hour
	}
	if !opts.DefaultStart.Valid() || opts.DefaultStart == (models.TimeOfDay{}) {
		opts.DefaultStart = models.TimeOfDay{Hour: 9}
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "Untitled"
	}
	return &Normalizer{opts: opts}
}

var (
	reCalledTitle = regexp.MustCompile(
		`(?i)\b(?:called|named|titled)\s+([^,.;!?\n]+)`)
	reQuotedTitle = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	reZoom        = regexp.MustCompile(`(?i)\b(?:zoom|video\s+call)\b`)
	reReminder    = regexp.MustCompile(`(?i)\b(?:remind(?:er)?|todo|task)\b`)
	reNote        = regexp.MustCompile(`(?i)\b(?:note|jot\s+down|write\s+down)\b`)
)

// Words that terminate a title run extracted from "called X ...".
var titleEndMarkers = map[string]struct{}{
	"tonight":  {},
	"today":    {},
	"tomorrow": {},
	"at":       {},
	"on":       {},
	"from":     {},
	"with":     {},
	"every":    {},
	"until":    {},
	"next":     {},
	"in":       {},
}

// Normalize resolves an utterance against a reference instant. The
// draft may be nil; when the utterance is empty the draft's fields are
// the only input, which makes re-processing a finalized command
// idempotent. The same inputs always produce the same Result.
func (n *Normalizer) Normalize(utterance string, draft *models.DraftCommand, now time.Time) (*Result, error) {
	res := &Result{State: StateReceived}
	cmd := &models.StructuredCommand{
		Kind:     n.resolveKind(utterance, draft),
		Timezone: n.opts.LocalZone.String(),
		Calendar: n.opts.DefaultCalendar,
	}
	if draft != nil && draft.Calendar != "" {
		cmd.Calendar = draft.Calendar
	}
	if draft != nil {
		cmd.Location = draft.Location
		cmd.Description = draft.Description
	}

	// Time resolution. The candidate is held until the date stage
	// because a part-of-day phrase may still settle an ambiguous hour.
	cand, err := n.resolveTime(utterance, draft, res)
	if err != nil {
		return reject(res, err)
	}
	res.State = StateTimeResolved

	// Date resolution.
	dateRes, err := reldate.Resolve(utterance, now.In(n.opts.LocalZone))
	if err != nil {
		return reject(res, NewRejection(ReasonInvalidDate, "%v", err))
	}
	date := dateRes.Date
	if !dateRes.Explicit && draft != nil && draft.Date != "" {
		if d, perr := models.ParseDate(draft.Date); perr == nil {
			date = d
		} else {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("draft date %q is not a valid date; using %s", draft.Date, date))
		}
	}
	res.State = StateDateResolved

	if err := n.settleTimes(cmd, cand, date, dateRes.Bias, now, res); err != nil {
		return reject(res, err)
	}

	// Recurrence resolution.
	rule, diags, rerr := recurrence.Parse(utterance)
	if rerr != nil {
		return reject(res, NewRejection(ReasonRecurrenceConflict, "%v", rerr))
	}
	if rule == nil && draft != nil && draft.Repeat != "" {
		rule, diags, rerr = recurrence.FromFlags(
			draft.Repeat, draft.Interval, draft.Until, draft.Count, weekdaysOf(draft.DaysOfWeek))
		if rerr != nil {
			return reject(res, NewRejection(ReasonRecurrenceConflict, "%v", rerr))
		}
	}
	res.Diagnostics = append(res.Diagnostics, diags...)
	if rule != nil {
		recurrence.DefaultWeeklyDays(rule, cmd.Date)
		cmd.Recurrence = rule
	}
	res.State = StateRecurrenceResolved

	// Contact resolution.
	names := contacts.ExtractNames(utterance)
	if len(names) == 0 && draft != nil {
		names = draft.Contacts
	}
	for _, name := range names {
		cmd.Contacts = append(cmd.Contacts, models.ContactRef{DisplayName: name})
	}
	emailText := utterance
	if draft != nil && len(draft.Emails) > 0 {
		emailText += " " + strings.Join(draft.Emails, " ")
	}
	cmd.Emails = contacts.ExtractEmails(emailText)
	res.State = StateContactsResolved

	cmd.Title = n.resolveTitle(utterance, draft, res)
	if cmd.ZoomMeeting = reZoom.MatchString(utterance); !cmd.ZoomMeeting && draft != nil {
		cmd.ZoomMeeting = draft.ZoomMeeting
	}

	// Validation.
	if err := n.validate(cmd); err != nil {
		return reject(res, err)
	}
	res.State = StateValidated

	res.State = StateFinalized
	res.Command = cmd
	return res, nil
}

func reject(res *Result, err error) (*Result, error) {
	res.State = StateRejected
	res.Command = nil
	if rej, ok := AsRejection(err); ok {
		res.Reason = rej.Reason
	}
	return res, err
}

// pendingTime is a time candidate awaiting date context
type pendingTime struct {
	start     models.TimeOfDay
	end       *models.TimeOfDay
	tzAbbr    string
	ambiguous bool
}

// resolveTime scans the text for a time expression, falling back to
// the draft's start/end fields when the text has none. A nil pending
// time means no time was found anywhere.
func (n *Normalizer) resolveTime(utterance string, draft *models.DraftCommand, res *Result) (*pendingTime, error) {
	if best := timescan.Best(timescan.Scan(utterance)); best != nil {
		if best.TZAbbr != "" && !n.opts.TimezoneRes.Known(best.TZAbbr) {
			return nil, NewRejection(ReasonUnknownTimezone, "unrecognized abbreviation %q", best.TZAbbr)
		}
		return &pendingTime{
			start:     best.Start,
			end:       best.End,
			tzAbbr:    best.TZAbbr,
			ambiguous: best.LowConfidence,
		}, nil
	}

	if draft == nil || draft.StartTime == "" {
		return nil, nil
	}
	start, err := models.ParseClock(draft.StartTime)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("draft start time %q is not a valid clock time; ignoring", draft.StartTime))
		return nil, nil
	}
	p := &pendingTime{start: start}
	if draft.EndTime != "" {
		if end, eerr := models.ParseClock(draft.EndTime); eerr == nil {
			p.end = &end
		} else {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("draft end time %q is not a valid clock time; ignoring", draft.EndTime))
		}
	}
	return p, nil
}

// settleTimes fixes the command's date, start, end, and end-date from
// the pending candidate, applying the part-of-day bias, the default
// duration, midnight-span handling, and timezone conversion.
func (n *Normalizer) settleTimes(cmd *models.StructuredCommand, p *pendingTime, date models.DateSpec, bias reldate.Bias, now time.Time, res *Result) error {
	if p == nil {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("no time found; defaulting to %s", n.opts.DefaultStart))
		p = &pendingTime{start: n.opts.DefaultStart}
	}

	if p.ambiguous {
		start, err := n.disambiguate(p.start, bias, res)
		if err != nil {
			return err
		}
		if p.end != nil {
			// The bounds of a bare range share one spoken side; the end
			// follows whichever side settled the start.
			side := "am"
			if start.Hour >= 12 {
				side = "pm"
			}
			settled := timescan.ApplyMeridiem(*p.end, side)
			p.end = &settled
		}
		p.start = start
	}

	start := p.start
	endDate := date
	var end models.TimeOfDay

	switch {
	case p.end != nil:
		end = *p.end
		if !start.Before(end) {
			// An evening-to-morning pair is the one sanctioned way for
			// an end bound to precede its start.
			if start.Hour >= 12 && end.Hour < 12 {
				endDate = date.AddDays(1)
			} else {
				return NewRejection(ReasonEndBeforeStart,
					"end %s is not after start %s", end, start)
			}
		}
	default:
		endMinutes := start.Minutes() + int(n.opts.DefaultDuration.Minutes())
		if endMinutes >= 24*60 {
			endMinutes -= 24 * 60
			endDate = date.AddDays(1)
		}
		end = models.TimeOfDay{Hour: endMinutes / 60, Minute: endMinutes % 60}
	}

	if p.tzAbbr != "" {
		tag, err := n.opts.TimezoneRes.Resolve(p.tzAbbr, now)
		if err != nil {
			return NewRejection(ReasonUnknownTimezone, "%v", err)
		}
		start, date = timezone.Convert(start, date, tag.Loc, n.opts.LocalZone)
		end, endDate = timezone.Convert(end, endDate, tag.Loc, n.opts.LocalZone)
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("converted %s time to %s", tag.Abbr, n.opts.LocalZone))
	}

	cmd.Date = date
	cmd.Start = start
	cmd.End = end
	cmd.EndDate = endDate
	return nil
}

// disambiguate settles a missing AM/PM side. A part-of-day phrase
// decides it outright; without one, small hours read as PM the way
// people actually speak ("dinner at 7"), and anything else is refused
// rather than guessed.
func (n *Normalizer) disambiguate(t models.TimeOfDay, bias reldate.Bias, res *Result) (models.TimeOfDay, error) {
	if t.Hour == 0 {
		// "0:30" is already a 24-hour reading.
		return t, nil
	}
	switch bias {
	case reldate.BiasPM:
		return timescan.ApplyMeridiem(t, "pm"), nil
	case reldate.BiasAM:
		return timescan.ApplyMeridiem(t, "am"), nil
	}
	if t.Hour >= 1 && t.Hour <= 7 {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("no AM/PM given for %s; assuming PM", t))
		return timescan.ApplyMeridiem(t, "pm"), nil
	}
	return models.TimeOfDay{}, NewRejection(ReasonAmbiguousTime,
		"cannot tell whether %s means AM or PM", t)
}

// resolveKind prefers the draft's declared intent, then keyword cues
// in the text, then the event default.
func (n *Normalizer) resolveKind(utterance string, draft *models.DraftCommand) models.CommandKind {
	if draft != nil && draft.Intent != "" {
		if kind := models.KindFromIntent(draft.Intent); kind != models.KindOther {
			return kind
		}
	}
	switch {
	case reReminder.MatchString(utterance):
		return models.KindReminder
	case reNote.MatchString(utterance):
		return models.KindNote
	default:
		return models.KindEvent
	}
}

// resolveTitle extracts an explicit title ("called X", a quoted span),
// falls back to the draft, and finally defaults with a diagnostic.
func (n *Normalizer) resolveTitle(utterance string, draft *models.DraftCommand, res *Result) string {
	if m := reCalledTitle.FindStringSubmatch(utterance); m != nil {
		if title := trimTitleRun(m[1]); title != "" {
			return title
		}
	}
	if m := reQuotedTitle.FindStringSubmatch(utterance); m != nil {
		for _, g := range m[1:] {
			if s := strings.TrimSpace(g); s != "" {
				return s
			}
		}
	}
	if draft != nil && strings.TrimSpace(draft.Title) != "" {
		return strings.TrimSpace(draft.Title)
	}
	res.Diagnostics = append(res.Diagnostics,
		fmt.Sprintf("no title found; defaulting to %q", n.opts.DefaultTitle))
	return n.opts.DefaultTitle
}

// trimTitleRun cuts a "called ..." capture at the first scheduling
// keyword so trailing time phrases stay out of the title.
func trimTitleRun(run string) string {
	var words []string
	for _, w := range strings.Fields(run) {
		if _, stop := titleEndMarkers[strings.ToLower(w)]; stop {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// validate enforces the structured-command invariants before the
// machine may finalize.
func (n *Normalizer) validate(cmd *models.StructuredCommand) error {
	if !cmd.Date.Valid() || !cmd.EndDate.Valid() {
		return NewRejection(ReasonInvalidDate, "resolved date %s is not on the calendar", cmd.Date)
	}
	if cmd.Date.Before(cmd.EndDate) {
		if cmd.EndDate != cmd.Date.AddDays(1) {
			return NewRejection(ReasonInvalidDate,
				"end date %s is more than one day after %s", cmd.EndDate, cmd.Date)
		}
	} else if cmd.EndDate.Before(cmd.Date) {
		return NewRejection(ReasonEndBeforeStart,
			"end date %s precedes start date %s", cmd.EndDate, cmd.Date)
	} else if !cmd.Start.Before(cmd.End) {
		return NewRejection(ReasonEndBeforeStart,
			"end %s is not after start %s", cmd.End, cmd.Start)
	}
	if cmd.Recurrence != nil {
		if err := cmd.Recurrence.Validate(); err != nil {
			return NewRejection(ReasonRecurrenceConflict, "%v", err)
		}
	}
	return nil
}

func weekdaysOf(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}
