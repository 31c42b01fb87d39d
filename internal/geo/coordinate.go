// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo implements the coordinate and delivery region primitives.
package geo

import (
	"fmt"
	"math"
)

const (
	EarthRadius = 6371000.0 // meters

	// MetersPerDegree approximates the length of one degree of latitude.
	MetersPerDegree = 111000.0

	// coordEpsilon is the tolerance used when comparing coordinates for equality
	coordEpsilon = 1e-9
)

// Coordinate represents a geographic coordinate in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid checks if the coordinate is valid according to the EPSG logic
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Equal reports whether both coordinates describe the same point.
func (c Coordinate) Equal(other Coordinate) bool {
	return math.Abs(c.Lat-other.Lat) < coordEpsilon && math.Abs(c.Lon-other.Lon) < coordEpsilon
}

// Distance returns the great-circle distance in meters between c and other, using the
// Haversine formula.
func (c Coordinate) Distance(other Coordinate) float64 {
	dLat := (c.Lat - other.Lat) * math.Pi / 180
	dLon := (c.Lon - other.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Truncate cuts x down to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
