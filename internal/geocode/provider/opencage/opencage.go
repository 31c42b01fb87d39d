// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
	searchLimit = 10
)

var ErrMissingAPIKey = errors.New("opencage geocoder requires an API key")

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	Building       string `json:"building"`
	City           string `json:"city"`
	CityDistrict   string `json:"city_district"`
	Country        string `json:"country"`
	HouseNumber    string `json:"house_number"`
	Municipality   string `json:"municipality"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*OpenCage, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}, nil
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Address, error) {
	var response Response

	query := o.baseQuery()
	query.Set("q", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))

	if _, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout); err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) == 0 {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}

	result := response.Results[0]
	comp := result.Components
	address := geocode.Address{
		AddressFound: true,
		Latitude:     result.Geometry.Lat,
		Longitude:    result.Geometry.Lon,
		Name:         comp.Building,
		DisplayName:  result.DisplayName,
		Country:      comp.Country,
		State:        comp.State,
		Municipality: comp.Municipality,
		CityDistrict: comp.CityDistrict,
		Postcode:     comp.Postcode,
		City:         comp.NormalizedCity,
		Suburb:       comp.Suburb,
		Street:       comp.Road,
		HouseNumber:  comp.HouseNumber,
	}
	if address.City == "" {
		address.City = comp.City
	}
	if address.City == "" {
		address.City = comp.Town
	}
	if address.City == "" {
		address.City = comp.Village
	}

	return address, nil
}

func (o *OpenCage) Search(ctx context.Context, query string, near geo.Coordinate) ([]geocode.Place, error) {
	var response Response

	params := o.baseQuery()
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(searchLimit))
	if near.Valid() {
		params.Set("proximity", fmt.Sprintf("%f,%f", near.Lat, near.Lon))
	}

	if _, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, params, nil, APITimeout); err != nil {
		return nil, fmt.Errorf("failed to search addresses with OpenCage API: %w", err)
	}

	places := make([]geocode.Place, 0, len(response.Results))
	for _, result := range response.Results {
		places = append(places, geocode.Place{
			Coordinate: geo.Coordinate{Lat: result.Geometry.Lat, Lon: result.Geometry.Lon},
			Label:      result.DisplayName,
		})
	}
	return places, nil
}

func (o *OpenCage) baseQuery() url.Values {
	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())
	return query
}
