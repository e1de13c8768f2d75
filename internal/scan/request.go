package scan

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/mode"
)

// Request limits.
const (
	DefaultLimit   = 1000
	DefaultPMLimit = 1000
	MaxLimit       = 5000
)

// ErrInvalidRequest is wrapped by ParseRequest errors.
var ErrInvalidRequest = errors.New("invalid request")

// Request holds the caller's scan parameters.
type Request struct {
	Limit     int       `json:"limit"`    // Candidate limit, [1, MaxLimit]
	PMLimit   int       `json:"pm_limit"` // Polymarket sample size, [1, MaxLimit]
	Mode      mode.Mode `json:"mode"`
	Keywords  []string  `json:"keywords,omitempty"` // Lower-cased
	Prefixes  []string  `json:"prefixes,omitempty"` // Upper-cased
	MveFilter string    `json:"mve_filter"`
}

// DefaultRequest returns the parameters of a request with no query.
func DefaultRequest() Request {
	return Request{
		Limit:     DefaultLimit,
		PMLimit:   DefaultPMLimit,
		Mode:      mode.Auto,
		MveFilter: api.MveExclude,
	}
}

// ParseRequest reads scan parameters from a query string. Numeric values
// are clamped; unknown modes, filters and non-numeric limits are rejected.
// kh_mode takes precedence over universe_mode.
func ParseRequest(q url.Values) (Request, error) {
	req := DefaultRequest()

	var err error
	if req.Limit, err = parseLimit(q.Get("limit"), DefaultLimit); err != nil {
		return req, fmt.Errorf("%w: limit: %v", ErrInvalidRequest, err)
	}
	if req.PMLimit, err = parseLimit(q.Get("pm_limit"), DefaultPMLimit); err != nil {
		return req, fmt.Errorf("%w: pm_limit: %v", ErrInvalidRequest, err)
	}

	raw := q.Get("kh_mode")
	if raw == "" {
		raw = q.Get("universe_mode")
	}
	if req.Mode, err = mode.Parse(raw); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	switch v := strings.ToLower(strings.TrimSpace(q.Get("mve_filter"))); v {
	case "":
	case api.MveExclude, api.MveOnly:
		req.MveFilter = v
	default:
		return req, fmt.Errorf("%w: mve_filter must be exclude or only, got %q", ErrInvalidRequest, v)
	}

	req.Keywords = splitList(q.Get("keywords"), strings.ToLower)
	req.Prefixes = splitList(q.Get("prefixes"), strings.ToUpper)
	return req, nil
}

func parseLimit(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return min(max(n, 1), MaxLimit), nil
}

func splitList(s string, fold func(string) string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		part = fold(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
