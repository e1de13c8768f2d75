package textmatch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Method identifies which rung of the scoring ladder produced a score.
type Method string

const (
	MethodExact     Method = "exact"
	MethodSubstring Method = "substring"
	MethodWeighted  Method = "weighted"
	MethodEmpty     Method = "empty"
)

// Scoring weights and fixed scores.
const (
	ExactScore     = 1.0
	SubstringScore = 0.9
	TokenWeight    = 0.6
	TrigramWeight  = 0.4

	minTokenLen = 3 // tokens must be longer than 2 runes
	gramSize    = 3
)

// Result is the outcome of scoring two titles.
type Result struct {
	Value   float64
	Method  Method
	Reason  string
	Token   float64 // Token Jaccard, only set for MethodWeighted
	Trigram float64 // Trigram Jaccard, only set for MethodWeighted
}

// Prepared is a title with its derived features computed once.
// Scoring a pool of N titles against M titles should prepare each title once.
type Prepared struct {
	Raw        string
	Normalized string

	tokens map[string]struct{}
	grams  map[string]struct{}
}

// Prepare normalizes a title and extracts its token and trigram sets.
func Prepare(title string) Prepared {
	norm := Normalize(title)
	return Prepared{
		Raw:        title,
		Normalized: norm,
		tokens:     tokenSet(norm),
		grams:      trigramSet(norm),
	}
}

// Score compares two raw titles.
func Score(a, b string) Result {
	return ScorePrepared(Prepare(a), Prepare(b))
}

// ScorePrepared compares two prepared titles.
func ScorePrepared(a, b Prepared) Result {
	if a.Normalized == b.Normalized {
		return Result{Value: ExactScore, Method: MethodExact, Reason: "exact"}
	}
	if a.Normalized == "" || b.Normalized == "" {
		return Result{Value: 0, Method: MethodEmpty, Reason: "empty"}
	}
	if strings.Contains(a.Normalized, b.Normalized) || strings.Contains(b.Normalized, a.Normalized) {
		return Result{Value: SubstringScore, Method: MethodSubstring, Reason: "substring"}
	}

	tok := jaccard(a.tokens, b.tokens)
	tri := jaccard(a.grams, b.grams)

	return Result{
		Value:   TokenWeight*tok + TrigramWeight*tri,
		Method:  MethodWeighted,
		Reason:  fmt.Sprintf("token=%.2f trigram=%.2f", tok, tri),
		Token:   tok,
		Trigram: tri,
	}
}

// Explain extends a result's reason with the edit distance between the
// normalized titles. It is more expensive than scoring and is meant for
// candidates that will be reported, not for every comparison.
func Explain(a, b Prepared, r Result) string {
	dist := levenshtein.ComputeDistance(a.Normalized, b.Normalized)
	return fmt.Sprintf("%s; edit_distance=%d", r.Reason, dist)
}

func tokenSet(norm string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, f := range strings.Fields(norm) {
		if utf8.RuneCountInString(f) < minTokenLen {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

// trigramSet returns the character trigrams of norm with whitespace removed.
// Strings shorter than a trigram contribute themselves as a single gram.
func trigramSet(norm string) map[string]struct{} {
	runes := []rune(strings.ReplaceAll(norm, " ", ""))
	set := make(map[string]struct{})
	if len(runes) == 0 {
		return set
	}
	if len(runes) < gramSize {
		set[string(runes)] = struct{}{}
		return set
	}
	for i := 0; i+gramSize <= len(runes); i++ {
		set[string(runes[i:i+gramSize])] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}

	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
