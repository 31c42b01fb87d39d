// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package memory implements an offline geocoder backed by a small static gazetteer.
package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
)

const (
	name = "memory"

	// DefaultMaxDistance is how far away (in meters) the nearest entry may be for a reverse
	// lookup to succeed
	DefaultMaxDistance = 300.0
)

//go:embed gazetteer.json
var defaultGazetteer []byte

// Entry is one known address.
type Entry struct {
	Coordinate geo.Coordinate  `json:"coordinate"`
	Address    geocode.Address `json:"address"`
}

type Memory struct {
	entries     []Entry
	maxDistance float64
}

// New returns a geocoder answering from entries.
func New(entries []Entry, maxDistance float64) *Memory {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	for i := range entries {
		entries[i].Address.AddressFound = true
		entries[i].Address.Latitude = entries[i].Coordinate.Lat
		entries[i].Address.Longitude = entries[i].Coordinate.Lon
	}
	return &Memory{entries: entries, maxDistance: maxDistance}
}

// NewDefault returns a geocoder over the embedded Moscow gazetteer.
func NewDefault() (*Memory, error) {
	var entries []Entry
	if err := json.Unmarshal(defaultGazetteer, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded gazetteer: %w", err)
	}
	return New(entries, DefaultMaxDistance), nil
}

func (m *Memory) Name() string {
	return name
}

func (m *Memory) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Address, error) {
	if err := ctx.Err(); err != nil {
		return geocode.Address{}, err
	}

	best, bestDist := -1, m.maxDistance
	for i, e := range m.entries {
		if d := e.Coordinate.Distance(coords); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best == -1 {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}
	return m.entries[best].Address, nil
}

// Search matches entries whose label or display name contains every word of query, nearest
// to near first.
func (m *Memory) Search(ctx context.Context, query string, near geo.Coordinate) ([]geocode.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}

	var matches []Entry
	for _, e := range m.entries {
		haystack := strings.ToLower(e.Address.Label() + " " + e.Address.DisplayName)
		if containsAll(haystack, words) {
			matches = append(matches, e)
		}
	}
	if near.Valid() {
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Coordinate.Distance(near) < matches[j].Coordinate.Distance(near)
		})
	}

	places := make([]geocode.Place, 0, len(matches))
	for _, e := range matches {
		places = append(places, geocode.Place{Coordinate: e.Coordinate, Label: e.Address.Label()})
	}
	return places, nil
}

func containsAll(haystack string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
