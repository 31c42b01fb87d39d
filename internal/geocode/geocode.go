// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"strings"

	"github.com/domashka/domashka/internal/geo"
)

// Address is the structured result of a reverse geocode.
type Address struct {
	AddressFound bool    `json:"address_found"`
	CacheHit     bool    `json:"-"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Country      string  `json:"country"`
	State        string  `json:"state"`
	Municipality string  `json:"municipality"`
	CityDistrict string  `json:"city_district"`
	Postcode     string  `json:"postcode"`
	City         string  `json:"city"`
	Suburb       string  `json:"suburb"`
	Street       string  `json:"street"`
	HouseNumber  string  `json:"house_number"`
}

// Label returns the short human-readable name of the address: the place name if the
// provider returned one, else street and house number, else the first component of the
// display name. An empty string means the provider had nothing to show.
func (a Address) Label() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	if street := strings.TrimSpace(a.Street); street != "" {
		if number := strings.TrimSpace(a.HouseNumber); number != "" {
			return street + " " + number
		}
		return street
	}
	first, _, _ := strings.Cut(a.DisplayName, ",")
	return strings.TrimSpace(first)
}

// Place is a forward-search candidate.
type Place struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Label      string         `json:"label"`
}

// Geocoder resolves coordinates to addresses and free-text queries to places.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords geo.Coordinate) (Address, error)
	// Search returns candidate places for query, biased towards near. Zero results are
	// not an error.
	Search(ctx context.Context, query string, near geo.Coordinate) ([]Place, error)
}
