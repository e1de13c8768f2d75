package textmatch

import (
	"strings"
	"unicode"
)

// stopWords are temporal and relational words that carry no identity
// between two venues' phrasings of the same question.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "be": {}, "will": {}, "by": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "over": {}, "under": {},
	"than": {}, "more": {}, "less": {}, "least": {}, "at": {}, "on": {},
	"in": {}, "of": {}, "to": {}, "or": {}, "end": {},
	"exceed": {}, "exceeds": {}, "reach": {}, "reaches": {}, "hit": {}, "hits": {},
}

// Normalize lower-cases a title, replaces punctuation with spaces, drops
// stop words and collapses whitespace. Normalize is idempotent.
func Normalize(title string) string {
	lowered := strings.ToLower(title)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, lowered)

	fields := strings.Fields(cleaned)
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}

// IsStopWord reports whether w is removed by Normalize.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}
