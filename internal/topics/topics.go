// Package topics derives frequency-ranked keywords from a Polymarket event
// corpus. The hints bias Kalshi universe retrieval and feed the mode
// controller's domain-mismatch check.
package topics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rickgao/venue-matcher/internal/model"
)

// DefaultLimit is the number of hints returned by Extract.
const DefaultLimit = 20

const minHintLen = 4

// stopList holds generic market vocabulary, months, years and common verbs.
var stopList = map[string]struct{}{
	// market vocabulary
	"will": {}, "market": {}, "markets": {}, "price": {}, "prices": {}, "above": {},
	"below": {}, "over": {}, "under": {}, "than": {}, "more": {}, "less": {},
	"before": {}, "after": {}, "between": {}, "during": {}, "what": {}, "which": {},
	"when": {}, "with": {}, "from": {}, "into": {}, "this": {}, "that": {},
	"next": {}, "first": {}, "last": {}, "least": {}, "most": {}, "highest": {},
	"lowest": {}, "total": {}, "range": {}, "close": {}, "yes": {}, "other": {},
	// verbs
	"reach": {}, "reaches": {}, "exceed": {}, "exceeds": {}, "win": {}, "wins": {},
	"hit": {}, "hits": {}, "announce": {}, "announced": {}, "happen": {}, "release": {},
	"released": {}, "become": {}, "remain": {}, "have": {},
	// calendar
	"january": {}, "february": {}, "march": {}, "april": {}, "june": {}, "july": {},
	"august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	"week": {}, "month": {}, "year": {}, "today": {}, "2024": {}, "2025": {},
	"2026": {}, "2027": {}, "2028": {},
}

// Extract returns the top DefaultLimit hints for events.
func Extract(events []model.EventInstrument) []string {
	return ExtractN(events, DefaultLimit)
}

// ExtractN tokenizes each event's title and slug and returns the n most
// frequent tokens. Ties keep first-seen order.
func ExtractN(events []model.EventInstrument, n int) []string {
	counts := make(map[string]int)
	var order []string

	for _, ev := range events {
		for _, tok := range tokenize(ev.Title + " " + ev.Slug) {
			if !keep(tok) {
				continue
			}
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// Intersects reports whether any hint appears in set.
func Intersects(hints []string, set map[string]struct{}) bool {
	for _, h := range hints {
		if _, ok := set[h]; ok {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func keep(tok string) bool {
	if len([]rune(tok)) < minHintLen {
		return false
	}
	if isNumeric(tok) {
		return false
	}
	_, stop := stopList[tok]
	return !stop
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
