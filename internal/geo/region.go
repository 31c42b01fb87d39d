// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"errors"
	"fmt"
)

// Region is an axis-aligned rectangular delivery zone around Center. The bounds are
// closed: a coordinate exactly on the edge is inside.
type Region struct {
	Name        string     `json:"name"`
	Center      Coordinate `json:"center"`
	HalfLatSpan float64    `json:"half_lat_span"`
	HalfLonSpan float64    `json:"half_lon_span"`
}

// NewRegionFromMeters returns a Region whose full extent is latMeters by lonMeters, both
// converted with a fixed MetersPerDegree.
func NewRegionFromMeters(name string, center Coordinate, latMeters, lonMeters float64) Region {
	return Region{
		Name:        name,
		Center:      center,
		HalfLatSpan: latMeters / MetersPerDegree / 2,
		HalfLonSpan: lonMeters / MetersPerDegree / 2,
	}
}

// Validate checks that the region describes a usable area.
func (r Region) Validate() error {
	if !r.Center.Valid() {
		return fmt.Errorf("region %q: invalid center %s", r.Name, r.Center)
	}
	if r.HalfLatSpan <= 0 || r.HalfLonSpan <= 0 {
		return fmt.Errorf("region %q: spans must be positive", r.Name)
	}
	return nil
}

// Contains reports whether c lies within the closed bounding box of the region.
func (r Region) Contains(c Coordinate) bool {
	return c.Lat >= r.Center.Lat-r.HalfLatSpan && c.Lat <= r.Center.Lat+r.HalfLatSpan &&
		c.Lon >= r.Center.Lon-r.HalfLonSpan && c.Lon <= r.Center.Lon+r.HalfLonSpan
}

// Regions is the read-only set of supported delivery regions.
type Regions []Region

var ErrNoRegions = errors.New("no delivery regions configured")

// Validate checks every region in the set.
func (rs Regions) Validate() error {
	if len(rs) == 0 {
		return ErrNoRegions
	}
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether any region contains c.
func (rs Regions) Contains(c Coordinate) bool {
	for _, r := range rs {
		if r.Contains(c) {
			return true
		}
	}
	return false
}

// Matching returns the names of all regions containing c, in configuration order.
func (rs Regions) Matching(c Coordinate) []string {
	var names []string
	for _, r := range rs {
		if r.Contains(c) {
			names = append(names, r.Name)
		}
	}
	return names
}
