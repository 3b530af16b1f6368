// Package timezone resolves timezone abbreviations ("PST", "CET") to
// IANA zones and converts wall-clock times between zones. Abbreviations
// are ambiguous on their own, so resolution is anchored to an instant
// and the zone's rules decide the actual offset in effect.
package timezone

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

// abbrZones maps common timezone abbreviations to the IANA zone that
// speakers of that abbreviation almost always mean. Summer and winter
// forms of the same region map to the same zone; the zone's own rules
// pick the offset for a given instant, so "8pm PST" said in July still
// resolves to Pacific time correctly.
var abbrZones = map[string]string{
	"PST": "America/Los_Angeles",
	"PDT": "America/Los_Angeles",
	"MST": "America/Denver",
	"MDT": "America/Denver",
	"CST": "America/Chicago",
	"CDT": "America/Chicago",
	"EST": "America/New_York",
	"EDT": "America/New_York",

	"AKST": "America/Anchorage",
	"AKDT": "America/Anchorage",
	"HST":  "Pacific/Honolulu",

	"GMT": "Etc/GMT",
	"BST": "Europe/London",
	"IST": "Asia/Kolkata",

	"CET":  "Europe/Berlin",
	"CEST": "Europe/Berlin",
	"EET":  "Europe/Helsinki",
	"EEST": "Europe/Helsinki",
	"MSK":  "Europe/Moscow",

	"AEST": "Australia/Sydney",
	"AEDT": "Australia/Sydney",
	"ACST": "Australia/Adelaide",
	"ACDT": "Australia/Adelaide",
	"AWST": "Australia/Perth",
	"NZST": "Pacific/Auckland",
	"NZDT": "Pacific/Auckland",

	"JST": "Asia/Tokyo",
	"KST": "Asia/Seoul",

	"UTC": "UTC",
}

// Tag is a resolved timezone reference: the abbreviation as written,
// the IANA zone it maps to, and the UTC offset in effect at the
// resolution instant.
type Tag struct {
	Abbr   string         `json:"abbr"`
	Zone   string         `json:"zone"`
	Offset int            `json:"offset_seconds"`
	Loc    *time.Location `json:"-"`
}

// Resolver maps abbreviations to IANA zones. Overrides take precedence
// over the built-in table, so a deployment serving users who mean
// China Standard Time by "CST" can repoint that one abbreviation.
type Resolver struct {
	overrides map[string]string
}

// NewResolver builds a resolver. The overrides map (abbreviation to
// IANA zone name) may be nil.
func NewResolver(overrides map[string]string) *Resolver {
	norm := make(map[string]string, len(overrides))
	for abbr, zone := range overrides {
		norm[strings.ToUpper(strings.TrimSpace(abbr))] = strings.TrimSpace(zone)
	}
	return &Resolver{overrides: norm}
}

// Known reports whether the abbreviation maps to any zone
func (r *Resolver) Known(abbr string) bool {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if _, ok := r.overrides[abbr]; ok {
		return true
	}
	_, ok := abbrZones[abbr]
	return ok
}

// Resolve maps an abbreviation to its zone and the offset in effect at
// the given instant. The same abbreviation can resolve to different
// offsets at different instants when the zone observes DST.
func (r *Resolver) Resolve(abbr string, instant time.Time) (Tag, error) {
	key := strings.ToUpper(strings.TrimSpace(abbr))

	zone, ok := r.overrides[key]
	if !ok {
		zone, ok = abbrZones[key]
	}
	if !ok {
		return Tag{}, fmt.Errorf("unknown timezone abbreviation %q", abbr)
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Tag{}, fmt.Errorf("failed to load zone %q for abbreviation %q: %w", zone, abbr, err)
	}

	_, offset := instant.In(loc).Zone()
	return Tag{Abbr: key, Zone: zone, Offset: offset, Loc: loc}, nil
}

// Abbreviations returns the known abbreviations in sorted order,
// overrides included.
func (r *Resolver) Abbreviations() []string {
	seen := make(map[string]struct{}, len(abbrZones)+len(r.overrides))
	for abbr := range abbrZones {
		seen[abbr] = struct{}{}
	}
	for abbr := range r.overrides {
		seen[abbr] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for abbr := range seen {
		out = append(out, abbr)
	}
	sort.Strings(out)
	return out
}

// ZoneFor returns the IANA zone name an abbreviation maps to
func (r *Resolver) ZoneFor(abbr string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(abbr))
	if zone, ok := r.overrides[key]; ok {
		return zone, true
	}
	zone, ok := abbrZones[key]
	return zone, ok
}

// Convert reinterprets a wall-clock time spoken in the source zone as
// the equivalent wall clock in the target zone. The returned date may
// differ from the input date when the conversion crosses midnight:
// 21:00 Pacific is 00:00 Eastern the next day.
func Convert(tod models.TimeOfDay, date models.DateSpec, source *time.Location, target *time.Location) (models.TimeOfDay, models.DateSpec) {
	src := time.Date(date.Year, date.Month, date.Day, tod.Hour, tod.Minute, 0, 0, source)
	dst := src.In(target)
	return models.TimeOfDay{Hour: dst.Hour(), Minute: dst.Minute()}, models.DateOf(dst)
}
