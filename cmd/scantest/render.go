package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/rickgao/venue-matcher/internal/stream"
)

var (
	dim     = color.New(color.Faint)
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed, color.Bold)
	cyan    = color.New(color.FgCyan)
	magenta = color.New(color.FgHiMagenta)
)

type renderer struct {
	w       io.Writer
	verbose bool
	events  int
}

func newRenderer(w io.Writer, verbose bool) *renderer {
	return &renderer{w: w, verbose: verbose}
}

type counts struct {
	Scanned    int `json:"scanned"`
	Candidates int `json:"candidates"`
	Added      int `json:"added"`
	Existing   int `json:"existing"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
	Unmatched  int `json:"unmatched"`
}

func (r *renderer) header(target string) {
	fmt.Fprintf(r.w, "%s %s\n", cyan.Sprint("scan"), target)
}

func (r *renderer) rejected(status int, body []byte) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
		return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	fmt.Fprintf(r.w, "%s %s: %s\n", red.Sprint("REJECTED"), e.Code, e.Message)
	return fmt.Errorf("scan rejected: %s", e.Code)
}

func (r *renderer) interrupted() {
	fmt.Fprintf(r.w, "%s after %d events\n", yellow.Sprint("interrupted"), r.events)
}

// event prints one streamed event.
func (r *renderer) event(ev stream.Event) error {
	r.events++

	switch ev.Name {
	case stream.EventProgress:
		var p struct {
			Phase  string `json:"phase"`
			Step   string `json:"step"`
			Mode   string `json:"mode"`
			Counts counts `json:"counts"`
		}
		if err := ev.Decode(&p); err != nil {
			return fmt.Errorf("decode progress: %w", err)
		}
		fmt.Fprintf(r.w, "%s %-18s %s %s\n",
			dim.Sprint("·"), p.Phase, p.Step,
			dim.Sprintf("[mode=%s scanned=%d candidates=%d]", p.Mode, p.Counts.Scanned, p.Counts.Candidates))

	case stream.EventCandidate:
		var c struct {
			PolymarketID string  `json:"polymarket_id"`
			KalshiTicker string  `json:"kalshi_ticker"`
			TitleA       string  `json:"title_a"`
			TitleB       string  `json:"title_b"`
			Score        float64 `json:"score"`
			Confidence   string  `json:"confidence"`
			Persisted    string  `json:"persisted"`
		}
		if err := ev.Decode(&c); err != nil {
			return fmt.Errorf("decode candidate: %w", err)
		}
		tier := dim
		switch c.Confidence {
		case "high":
			tier = green
		case "normal":
			tier = yellow
		}
		fmt.Fprintf(r.w, "%s %.3f %s ↔ %s %s\n",
			tier.Sprintf("%-6s", c.Confidence), c.Score, c.TitleA, c.TitleB,
			dim.Sprintf("(%s / %s, %s)", c.PolymarketID, c.KalshiTicker, c.Persisted))

	case stream.EventDebugLog:
		if !r.verbose {
			return nil
		}
		fmt.Fprintf(r.w, "%s %s\n", magenta.Sprint("debug"), string(ev.Data))

	case stream.EventError:
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := ev.Decode(&e); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		fmt.Fprintf(r.w, "%s %s: %s\n", red.Sprint("ERROR"), e.Code, e.Message)

	case stream.EventTerminated:
		fmt.Fprintf(r.w, "%s\n", red.Sprint("terminated"))

	case stream.EventComplete:
		var c struct {
			counts
			Reason       string `json:"reason"`
			Mode         string `json:"mode"`
			ModeSwitched bool   `json:"mode_switched"`
			Degraded     bool   `json:"degraded"`
			KalshiPool   int    `json:"kalshi_pool"`
			EventPool    int    `json:"polymarket_pool"`
			DurationMS   int64  `json:"duration_ms"`
		}
		if err := ev.Decode(&c); err != nil {
			return fmt.Errorf("decode complete: %w", err)
		}
		reason := green.Sprint(c.Reason)
		if c.Reason != "completed_normally" {
			reason = yellow.Sprint(c.Reason)
		}
		fmt.Fprintf(r.w, "%s %s mode=%s switched=%t degraded=%t\n",
			green.Sprint("complete"), reason, c.Mode, c.ModeSwitched, c.Degraded)
		fmt.Fprintf(r.w, "  pools      kalshi=%d polymarket=%d\n", c.KalshiPool, c.EventPool)
		fmt.Fprintf(r.w, "  scanned    %d (unmatched %d)\n", c.Scanned, c.Unmatched)
		fmt.Fprintf(r.w, "  candidates %d: added %d, existing %d, skipped %d, errors %d\n",
			c.Candidates, c.Added, c.Existing, c.Skipped, c.Errors)
		fmt.Fprintf(r.w, "  duration   %dms\n", c.DurationMS)

	default:
		fmt.Fprintf(r.w, "%s %s\n", dim.Sprint(ev.Name), string(ev.Data))
	}
	return nil
}
