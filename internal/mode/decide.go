package mode

import (
	"strings"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/topics"
)

// DefaultSportsThreshold is the baseline sports fraction above which a
// topic-interested caller is switched to a scoped crawl.
const DefaultSportsThreshold = 0.15

// SportsPrefixes identify Kalshi sports series.
var SportsPrefixes = []string{
	"KXNFL", "KXNBA", "KXMLB", "KXNHL", "KXNCAAF", "KXNCAAB", "KXWNBA",
	"KXMLS", "KXEPL", "KXUCL", "KXLALIGA", "KXSERIEA", "KXBUNDESLIGA",
	"KXUFC", "KXPGA", "KXF1", "KXNASCAR", "KXATP", "KXWTA", "KXMVESPORTS",
}

// SportsCategory is the Kalshi category for sports events.
const SportsCategory = "Sports"

var politicsKeywords = set(
	"election", "elections", "president", "presidential", "senate", "congress",
	"house", "governor", "trump", "biden", "democrat", "democrats", "republican",
	"republicans", "primary", "nominee", "vote", "midterm", "midterms", "cabinet",
	"supreme", "court", "impeachment", "mayor", "parliament", "minister",
)

var cryptoKeywords = set(
	"bitcoin", "btc", "ethereum", "crypto", "solana", "dogecoin", "token",
	"stablecoin", "coinbase", "binance", "xrp", "etf",
)

// Inputs are the observations an auto decision is made from.
type Inputs struct {
	Baseline  []model.TickerInstrument
	Hints     []string // Polymarket topic hints
	Keywords  []string // Caller keyword overrides
	Prefixes  []string // Caller prefix overrides
	MveFilter string   // "only" pins sports
	Threshold float64
}

// Decision is the outcome of an auto decision.
type Decision struct {
	Mode           Mode     `json:"mode"`
	SportsFraction float64  `json:"sports_fraction"`
	PoliticsMatch  bool     `json:"politics_match"`
	CryptoMatch    bool     `json:"crypto_match"`
	OnlySports     bool     `json:"only_sports"`
	Keywords       []string `json:"keywords,omitempty"`
	Reason         string   `json:"reason"`
}

// Decide picks between PublicAll and TopicAligned.
func Decide(in Inputs) Decision {
	threshold := in.Threshold
	if threshold <= 0 {
		threshold = DefaultSportsThreshold
	}

	d := Decision{
		SportsFraction: SportsFraction(in.Baseline),
		PoliticsMatch:  topics.Intersects(in.Hints, politicsKeywords),
		CryptoMatch:    topics.Intersects(in.Hints, cryptoKeywords),
		OnlySports:     onlySports(in.MveFilter, in.Prefixes),
	}

	switch {
	case d.OnlySports:
		d.Mode = PublicAll
		d.Reason = "sports pinned by caller"
	case d.SportsFraction <= threshold:
		d.Mode = PublicAll
		d.Reason = "baseline not dominated by sports"
	case !d.PoliticsMatch && !d.CryptoMatch:
		d.Mode = PublicAll
		d.Reason = "no politics or crypto interest in topic hints"
	default:
		d.Mode = TopicAligned
		d.Reason = "sports-heavy baseline with politics or crypto interest"
		d.Keywords = MergeKeywords(in.Hints, in.Keywords)
	}
	return d
}

// SportsFraction is the share of instruments that look like sports markets.
func SportsFraction(baseline []model.TickerInstrument) float64 {
	if len(baseline) == 0 {
		return 0
	}
	n := 0
	for _, inst := range baseline {
		if IsSports(inst) {
			n++
		}
	}
	return float64(n) / float64(len(baseline))
}

// IsSports reports whether inst has a sports prefix or category.
func IsSports(inst model.TickerInstrument) bool {
	if strings.EqualFold(inst.Category, SportsCategory) {
		return true
	}
	return hasSportsPrefix(inst.Ticker) || hasSportsPrefix(inst.EventTicker)
}

// MergeKeywords returns the lower-cased union of the lists, first seen first.
func MergeKeywords(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

func onlySports(mveFilter string, prefixes []string) bool {
	if strings.EqualFold(mveFilter, "only") {
		return true
	}
	if len(prefixes) == 0 {
		return false
	}
	for _, p := range prefixes {
		if !hasSportsPrefix(strings.ToUpper(p)) {
			return false
		}
	}
	return true
}

func hasSportsPrefix(ticker string) bool {
	for _, p := range SportsPrefixes {
		if strings.HasPrefix(ticker, p) {
			return true
		}
	}
	return false
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
