// Package mode resolves which Kalshi universe strategy a run uses.
//
// A run starts in Auto or in one of the three concrete modes. Auto is
// resolved exactly once, from a small Kalshi baseline and the Polymarket
// topic hints, and never re-entered.
package mode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is a Kalshi universe strategy.
type Mode string

const (
	Auto           Mode = "auto"
	PublicAll      Mode = "public_all"
	TopicAligned   Mode = "topic_aligned"
	SearchKeywords Mode = "search_keywords"
)

// ErrUnknownMode is returned by Parse for unrecognised values.
var ErrUnknownMode = errors.New("unknown mode")

// Parse parses a mode name. The empty string is Auto.
func Parse(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Auto, nil
	case Auto, PublicAll, TopicAligned, SearchKeywords:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Scoped reports whether m uses the category/event-scoped crawl.
func (m Mode) Scoped() bool {
	return m == TopicAligned || m == SearchKeywords
}

// ErrAlreadyResolved is returned when a resolved state is resolved again.
var ErrAlreadyResolved = errors.New("mode already resolved")

// ErrInvalidTarget is returned when resolving to Auto.
var ErrInvalidTarget = errors.New("cannot resolve to auto")

// State tracks a run's mode. The zero value is not usable; use NewState.
type State struct {
	requested Mode
	current   Mode
	switched  bool
}

// NewState starts a run in requested.
func NewState(requested Mode) *State {
	return &State{requested: requested, current: requested}
}

// Current returns the current mode.
func (s *State) Current() Mode {
	return s.current
}

// Requested returns the mode the run started in.
func (s *State) Requested() Mode {
	return s.requested
}

// Resolved reports whether the mode is concrete.
func (s *State) Resolved() bool {
	return s.current != Auto
}

// Switched reports whether auto resolved to a scoped mode.
func (s *State) Switched() bool {
	return s.switched
}

// Resolve moves an Auto state to target. It fails for an already
// resolved state and for target Auto.
func (s *State) Resolve(target Mode) error {
	if s.Resolved() {
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, s.current)
	}
	if target == Auto {
		return ErrInvalidTarget
	}
	s.current = target
	s.switched = target != PublicAll
	return nil
}
