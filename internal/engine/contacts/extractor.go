// Package contacts extracts attendee names and email addresses from
// free text. Name extraction keys off the "with X" and "invite X"
// patterns; email extraction uses a conservative grammar plus a repair
// step for accidentally duplicated domain suffixes.
package contacts

import (
	"regexp"
	"strings"
)

// Words that terminate a run of names after "with" or "invite". They
// mark the start of the next clause rather than another attendee.
var nameEndMarkers = map[string]struct{}{
	"about":     {},
	"at":        {},
	"on":        {},
	"from":      {},
	"for":       {},
	"in":        {},
	"to":        {},
	"regarding": {},
	"re:":       {},
	"tomorrow":  {},
	"tonight":   {},
	"today":     {},
	"next":      {},
	"every":     {},
	"until":     {},
}

var (
	// Commas stay inside the capture so "with Alice, Bob and Carol"
	// keeps the whole run; splitting happens afterwards.
	reInviteClause = regexp.MustCompile(
		`(?i)\b(?:and\s+invite|invite|with)\s+([^.;!?\n]+)`)
	// Deliberately narrow: one label, one domain, alphanumeric TLD of
	// 2-24. Exotic but valid addresses are out of scope.
	reEmail = regexp.MustCompile(
		`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,24}`)
)

// ExtractNames finds attendee display names introduced by "with",
// "invite", or "and invite". Runs of names split on commas and "and";
// clause markers like "about" or "at" end the run. Email tokens are
// skipped here and left to ExtractEmails.
func ExtractNames(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, m := range reInviteClause.FindAllStringSubmatch(text, -1) {
		for _, name := range splitNameRun(m[1]) {
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// splitNameRun splits "Alice, Bob and Carol at 5pm" into the names
// before the first end marker.
func splitNameRun(run string) []string {
	var names []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			names = append(names, strings.Join(current, " "))
			current = nil
		}
	}

	for _, field := range strings.Fields(run) {
		word := strings.TrimRight(field, ",")
		brokeOnComma := word != field

		lower := strings.ToLower(word)
		if _, end := nameEndMarkers[lower]; end {
			break
		}
		// "with Alice and invite Bob" captures the nested keyword too.
		if lower == "and" || lower == "invite" || lower == "with" {
			flush()
			continue
		}
		if word == "" || strings.Contains(word, "@") || isNumeric(word) {
			flush()
			continue
		}

		current = append(current, word)
		if brokeOnComma {
			flush()
		}
	}
	flush()
	return names
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ExtractEmails finds email addresses in the text, repairs duplicated
// domain suffixes ("john@example.comexample.com" becomes
// "john@example.com"), and deduplicates case-insensitively while
// preserving the first-seen spelling and order.
func ExtractEmails(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, raw := range reEmail.FindAllString(text, -1) {
		addr := repairDuplicatedDomain(raw)
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// repairDuplicatedDomain collapses a domain that was pasted twice or
// more onto the end of an address back down to a single copy.
func repairDuplicatedDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return addr
	}
	local, domain := addr[:at], addr[at+1:]

	for size := 1; size <= len(domain)/2; size++ {
		if len(domain)%size != 0 {
			continue
		}
		unit := domain[:size]
		if !strings.Contains(unit, ".") {
			continue
		}
		if strings.Repeat(unit, len(domain)/size) == domain {
			return local + "@" + unit
		}
	}
	return addr
}
