// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package nominatim

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/http"
	"github.com/domashka/domashka/internal/logger"
	"github.com/domashka/domashka/internal/testhelper"
)

const (
	cityFile          = "../../../../testdata/nominatim_moscow.json"
	cityFileBrokenLat = "../../../../testdata/nominatim_brokenlat.json"
	villageFile       = "../../../../testdata/nominatim_village.json"
	nowhereFile       = "../../../../testdata/nominatim_nowhere.json"
	searchFile        = "../../../../testdata/nominatim_search.json"
	searchFileBroken  = "../../../../testdata/nominatim_search_brokenlon.json"

	cityLabel    = "Тверская улица 1"
	villageCity  = "Ивановское"
	searchQuery  = "Тверская"
	searchLabel0 = "Тверская улица"
	searchLabel1 = "Арбат, 1, Москва, Россия"
)

var (
	cityCoords    = geo.Coordinate{Lat: 55.7578, Lon: 37.6133}
	villageCoords = geo.Coordinate{Lat: 56.3721, Lon: 38.1020}
)

func TestNew(t *testing.T) {
	t.Run("provider name is correct", func(t *testing.T) {
		coder := testCoder(t)
		if coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestNominatim_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		var gotQuery string
		respond := testhelper.FileResponder(t, cityFile, 200)
		coder := testCoderWithRoundtripFunc(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotQuery = req.URL.RawQuery
			return respond(req)
		})
		addr, err := coder.Reverse(t.Context(), cityCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.Label() != cityLabel {
			t.Errorf("expected label to be %q, got %q", cityLabel, addr.Label())
		}
		if addr.City != "Москва" {
			t.Errorf("expected city to be %q, got %q", "Москва", addr.City)
		}
		if addr.Latitude != cityCoords.Lat || addr.Longitude != cityCoords.Lon {
			t.Errorf("unexpected coordinates: %f,%f", addr.Latitude, addr.Longitude)
		}
		if !strings.Contains(gotQuery, "lat=55.757800") || !strings.Contains(gotQuery, "accept-language=ru") {
			t.Errorf("unexpected query: %s", gotQuery)
		}
	})
	t.Run("reverse cached geocoding succeeds", func(t *testing.T) {
		cached := geocode.NewCachedGeocoder(testCoderWithRoundtripFunc(t,
			testhelper.FileResponder(t, cityFile, 200)), time.Minute, time.Minute)
		if _, err := cached.Reverse(t.Context(), cityCoords); err != nil {
			t.Fatal(err)
		}
		addr, err := cached.Reverse(t.Context(), cityCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.CacheHit {
			t.Error("expected cache hit")
		}
	})
	t.Run("reverse geocoding with village set should return the correct city", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.FileResponder(t, villageFile, 200))
		addr, err := coder.Reverse(t.Context(), villageCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.EqualFold(addr.City, villageCity) {
			t.Errorf("expected city to be %q, got %q", villageCity, addr.City)
		}
		if addr.Label() != "Садовая улица" {
			t.Errorf("expected label to be the street, got %q", addr.Label())
		}
	})
	t.Run("an unresolvable coordinate is not found but not an error", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.FileResponder(t, nowhereFile, 200))
		addr, err := coder.Reverse(t.Context(), geo.Coordinate{Lat: 0, Lon: 0})
		if err != nil {
			t.Fatal(err)
		}
		if addr.AddressFound {
			t.Error("expected address to be not found")
		}
	})
	t.Run("reverse geocoding fails", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := coder.Reverse(t.Context(), cityCoords); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
	t.Run("reverse geocoding fails on non-2xx status", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.FileResponder(t, cityFile, 503))
		_, err := coder.Reverse(t.Context(), cityCoords)
		var statusErr *http.StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected status error, got %v", err)
		}
	})
	t.Run("reverse geocoding fails on NaN latitude response", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.FileResponder(t, cityFileBrokenLat, 200))
		_, err := coder.Reverse(t.Context(), cityCoords)
		if err == nil {
			t.Fatal("expected API request to fail")
		}
		if !strings.Contains(err.Error(), "failed to parse latitude") {
			t.Errorf("expected error to contain 'failed to parse latitude', got %s", err)
		}
	})
}

func TestNominatim_Search(t *testing.T) {
	t.Run("search returns all candidates in order", func(t *testing.T) {
		var gotQuery string
		respond := testhelper.FileResponder(t, searchFile, 200)
		coder := testCoderWithRoundtripFunc(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotQuery = req.URL.Query().Get("viewbox")
			return respond(req)
		})
		places, err := coder.Search(t.Context(), searchQuery, cityCoords)
		if err != nil {
			t.Fatal(err)
		}
		if len(places) != 2 {
			t.Fatalf("expected 2 places, got %d", len(places))
		}
		if places[0].Label != searchLabel0 || places[1].Label != searchLabel1 {
			t.Errorf("unexpected labels: %q, %q", places[0].Label, places[1].Label)
		}
		if places[1].Coordinate.Lat != 55.7520 || places[1].Coordinate.Lon != 37.5929 {
			t.Errorf("unexpected coordinate: %s", places[1].Coordinate)
		}
		if gotQuery == "" {
			t.Error("expected a viewbox bias to be sent")
		}
	})
	t.Run("search without a valid bias sends no viewbox", func(t *testing.T) {
		var gotQuery string
		respond := testhelper.FileResponder(t, searchFile, 200)
		coder := testCoderWithRoundtripFunc(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			gotQuery = req.URL.Query().Get("viewbox")
			return respond(req)
		})
		if _, err := coder.Search(t.Context(), searchQuery, geo.Coordinate{Lat: 100}); err != nil {
			t.Fatal(err)
		}
		if gotQuery != "" {
			t.Errorf("expected no viewbox, got %q", gotQuery)
		}
	})
	t.Run("search fails on broken longitude", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, testhelper.FileResponder(t, searchFileBroken, 200))
		_, err := coder.Search(t.Context(), searchQuery, cityCoords)
		if err == nil || !strings.Contains(err.Error(), "failed to parse longitude") {
			t.Errorf("expected longitude parse error, got %v", err)
		}
	})
	t.Run("search fails on transport errors", func(t *testing.T) {
		coder := testCoderWithRoundtripFunc(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := coder.Search(t.Context(), searchQuery, cityCoords); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func TestNominatim_Reverse_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		coder := testCoder(t)
		addr, err := coder.Reverse(t.Context(), cityCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.Label() == "" {
			t.Error("expected a non-empty label")
		}
	})
}

func testCoder(_ *testing.T) geocode.Geocoder {
	testHttpClient := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	return New(testHttpClient, language.Russian)
}

func testCoderWithRoundtripFunc(_ *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) geocode.Geocoder {
	testHttpClient := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	testHttpClient.Transport = testhelper.MockRoundTripper{Fn: fn}
	return New(testHttpClient, language.Russian)
}
