// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/http"
)

const (
	APIReverseEndpoint = "https://api.geocode.earth/v1/reverse"
	APISearchEndpoint  = "https://api.geocode.earth/v1/search"
	APITimeout         = time.Second * 10
	name               = "geocode-earth"
	searchLimit        = 10
)

var ErrMissingAPIKey = errors.New("geocode.earth geocoder requires an API key")

type GeocodeEarth struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

// Geometry is a GeoJSON point, coordinates are ordered lon, lat.
type Geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	Name         string `json:"name"`
	DisplayName  string `json:"label"`
	City         string `json:"locality"`
	CityDistrict string `json:"county"`
	Country      string `json:"country"`
	HouseNumber  string `json:"housenumber"`
	Municipality string `json:"neighbourhood"`
	Postcode     string `json:"postalcode"`
	Road         string `json:"street"`
	State        string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*GeocodeEarth, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	return &GeocodeEarth{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}, nil
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("point.lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("size", "1")
	query.Set("lang", g.lang.String())

	if _, err := g.http.GetWithTimeout(ctx, APIReverseEndpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if len(response.Features) < 1 {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}

	result := response.Features[0].Properties
	address := geocode.Address{
		AddressFound: true,
		Latitude:     coords.Lat,
		Longitude:    coords.Lon,
		DisplayName:  result.DisplayName,
		Country:      result.Country,
		State:        result.State,
		Municipality: result.Municipality,
		CityDistrict: result.CityDistrict,
		Postcode:     result.Postcode,
		City:         result.City,
		Street:       result.Road,
		HouseNumber:  result.HouseNumber,
	}
	// Pelias names addresses "<housenumber> <street>", the structured fields read better
	if result.Road == "" {
		address.Name = result.Name
	}

	return address, nil
}

func (g *GeocodeEarth) Search(ctx context.Context, query string, near geo.Coordinate) ([]geocode.Place, error) {
	var response Response

	params := url.Values{}
	params.Set("api_key", g.apikey)
	params.Set("text", query)
	params.Set("size", strconv.Itoa(searchLimit))
	params.Set("lang", g.lang.String())
	if near.Valid() {
		params.Set("focus.point.lat", fmt.Sprintf("%f", near.Lat))
		params.Set("focus.point.lon", fmt.Sprintf("%f", near.Lon))
	}

	if _, err := g.http.GetWithTimeout(ctx, APISearchEndpoint, &response, params, nil, APITimeout); err != nil {
		return nil, fmt.Errorf("failed to search addresses with geocode.earth API: %w", err)
	}

	places := make([]geocode.Place, 0, len(response.Features))
	for _, feature := range response.Features {
		if len(feature.Geometry.Coordinates) != 2 {
			return nil, fmt.Errorf("invalid coordinate format for %q", feature.Properties.DisplayName)
		}
		label := feature.Properties.Name
		if label == "" {
			label = feature.Properties.DisplayName
		}
		places = append(places, geocode.Place{
			Coordinate: geo.Coordinate{
				Lat: feature.Geometry.Coordinates[1],
				Lon: feature.Geometry.Coordinates[0],
			},
			Label: label,
		})
	}
	return places, nil
}
