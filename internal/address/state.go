// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"fmt"
	"time"

	"github.com/domashka/domashka/internal/geo"
)

// Resolution describes where the address label of the current coordinate came from.
type Resolution int

const (
	// ResolutionInitial is the state of a fresh session showing the default address.
	ResolutionInitial Resolution = iota
	// ResolutionPending means a reverse geocode for the current coordinate is in flight.
	ResolutionPending
	// ResolutionResolved means the label belongs to the current coordinate.
	ResolutionResolved
	// ResolutionUnresolved means the lookup failed or found nothing and the label was kept
	// or replaced by the placeholder.
	ResolutionUnresolved
)

func (r Resolution) String() string {
	switch r {
	case ResolutionInitial:
		return "initial"
	case ResolutionPending:
		return "pending"
	case ResolutionResolved:
		return "resolved"
	case ResolutionUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(text []byte) error {
	for _, res := range []Resolution{ResolutionInitial, ResolutionPending, ResolutionResolved, ResolutionUnresolved} {
		if res.String() == string(text) {
			*r = res
			return nil
		}
	}
	return fmt.Errorf("unknown resolution %q", text)
}

// Source names the input that last moved the coordinate.
type Source string

const (
	SourceDefault Source = "default"
	SourceDrag    Source = "drag"
	SourceSearch  Source = "search"
)

// State is an immutable snapshot of an address selection.
type State struct {
	SessionID  string
	Coordinate geo.Coordinate
	// Label is never empty; it falls back to the default address or the placeholder.
	Label       string
	Placeholder bool
	Eligible    bool
	// Regions lists the names of all delivery regions containing Coordinate.
	Regions    []string
	Source     Source
	Resolution Resolution
	Seq        uint64
	UpdatedAt  time.Time
}

// Selection is the result of a committed session.
type Selection struct {
	SessionID  string         `json:"session_id"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Label      string         `json:"label"`
	Regions    []string       `json:"regions"`
}
