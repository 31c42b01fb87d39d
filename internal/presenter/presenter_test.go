// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/address"
	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/i18n"
)

var (
	now      = time.Date(2026, 1, 18, 14, 5, 0, 0, time.UTC)
	eligible = address.State{
		SessionID:  "test-session",
		Coordinate: geo.Coordinate{Lat: 55.76, Lon: 37.62},
		Label:      "Тверская улица 1",
		Eligible:   true,
		Regions:    []string{"moscow"},
		Resolution: address.ResolutionResolved,
		UpdatedAt:  now,
	}
	outside = address.State{
		SessionID:  "test-session",
		Coordinate: geo.Coordinate{Lat: 56.0, Lon: 37.62},
		Label:      "Far Away St",
		Resolution: address.ResolutionResolved,
		UpdatedAt:  now,
	}
)

func testLocalizer(t *testing.T) *spreak.Localizer {
	t.Helper()
	loc, err := i18n.New("en")
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	return loc
}

func testPresenter(t *testing.T, width int) *Presenter {
	t.Helper()
	pres, err := New(testLocalizer(t), language.English, width)
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	return pres
}

func TestNew(t *testing.T) {
	t.Run("a missing localizer fails", func(t *testing.T) {
		if _, err := New(nil, language.English, 40); err == nil {
			t.Error("expected presenter creation to fail")
		}
	})
	t.Run("the placeholder is localized", func(t *testing.T) {
		if got := testPresenter(t, 40).Placeholder(); got != "unknown address" {
			t.Errorf("unexpected placeholder: %q", got)
		}
	})
}

func TestPresenter_Render(t *testing.T) {
	t.Run("an eligible address enables the confirmation", func(t *testing.T) {
		view := testPresenter(t, 40).Render(eligible)
		if !view.ConfirmEnabled {
			t.Error("expected confirmation to be enabled")
		}
		if view.Warning != "" {
			t.Errorf("expected no warning, got %q", view.Warning)
		}
		if view.AddressText != eligible.Label {
			t.Errorf("expected address %q, got %q", eligible.Label, view.AddressText)
		}
		if view.Marker.Latitude != 55.76 || view.Marker.Longitude != 37.62 {
			t.Errorf("expected marker on the coordinate, got %+v", view.Marker)
		}
		if view.Marker.Icon != MarkerIcon[true] {
			t.Errorf("unexpected marker icon: %q", view.Marker.Icon)
		}
		if view.ConfirmLabel != "Confirm address" {
			t.Errorf("unexpected confirm label: %q", view.ConfirmLabel)
		}
		if !strings.HasPrefix(view.Updated, "updated ") {
			t.Errorf("unexpected update text: %q", view.Updated)
		}
	})
	t.Run("an address outside the regions shows a warning", func(t *testing.T) {
		view := testPresenter(t, 40).Render(outside)
		if view.ConfirmEnabled {
			t.Error("expected confirmation to be disabled")
		}
		if view.Warning != string(msgNotDeliverable) {
			t.Errorf("unexpected warning: %q", view.Warning)
		}
		if view.AddressText != "Far Away St" {
			t.Errorf("expected label to be rendered, got %q", view.AddressText)
		}
		if view.Marker.Icon != MarkerIcon[false] {
			t.Errorf("unexpected marker icon: %q", view.Marker.Icon)
		}
	})
	t.Run("a pending lookup shows a status", func(t *testing.T) {
		state := eligible
		state.Resolution = address.ResolutionPending
		view := testPresenter(t, 40).Render(state)
		if view.Status != string(msgLookingUp) {
			t.Errorf("unexpected status: %q", view.Status)
		}
		if !view.ConfirmEnabled {
			t.Error("expected a pending lookup to not affect the confirmation")
		}
	})
	t.Run("long addresses are truncated to the display width", func(t *testing.T) {
		state := eligible
		state.Label = "Большая Никитская улица 22/2, строение 1, Пресненский район"
		view := testPresenter(t, 20).Render(state)
		if w := runewidth.StringWidth(view.AddressText); w > 20 {
			t.Errorf("expected width <= 20, got %d (%q)", w, view.AddressText)
		}
		if !strings.HasSuffix(view.AddressText, ellipsis) {
			t.Errorf("expected truncated text to end with an ellipsis, got %q", view.AddressText)
		}
	})
	t.Run("a zero update time renders no update text", func(t *testing.T) {
		state := eligible
		state.UpdatedAt = time.Time{}
		if view := testPresenter(t, 40).Render(state); view.Updated != "" {
			t.Errorf("expected no update text, got %q", view.Updated)
		}
	})
	t.Run("the resolution is rendered as text in JSON", func(t *testing.T) {
		data, err := json.Marshal(testPresenter(t, 40).Render(eligible))
		if err != nil {
			t.Fatalf("failed to marshal view: %s", err)
		}
		if !strings.Contains(string(data), `"resolution":"resolved"`) {
			t.Errorf("unexpected JSON: %s", data)
		}
	})
}

func TestPresenter_RenderSearch(t *testing.T) {
	places := []geocode.Place{
		{Coordinate: geo.Coordinate{Lat: 55.76, Lon: 37.62}, Label: "Тверская улица 1"},
		{Coordinate: geo.Coordinate{Lat: 55.75, Lon: 37.61}, Label: ""},
	}
	t.Run("results keep the provider order", func(t *testing.T) {
		view := testPresenter(t, 40).RenderSearch("тверская", places)
		if len(view.Places) != 2 {
			t.Fatalf("expected 2 places, got %d", len(view.Places))
		}
		if view.Places[0].Index != 0 || view.Places[0].Label != "Тверская улица 1" {
			t.Errorf("unexpected first place: %+v", view.Places[0])
		}
		if view.Places[1].Label != "unknown address" {
			t.Errorf("expected placeholder for unnamed place, got %q", view.Places[1].Label)
		}
		if view.Summary != "2 results" {
			t.Errorf("unexpected summary: %q", view.Summary)
		}
	})
	t.Run("a single result uses the singular form", func(t *testing.T) {
		if view := testPresenter(t, 40).RenderSearch("x", places[:1]); view.Summary != "1 result" {
			t.Errorf("unexpected summary: %q", view.Summary)
		}
	})
	t.Run("no results render an empty list", func(t *testing.T) {
		view := testPresenter(t, 40).RenderSearch("", nil)
		if view.Places == nil || len(view.Places) != 0 {
			t.Errorf("expected empty list, got %+v", view.Places)
		}
	})
}

func TestPresenter_Text(t *testing.T) {
	t.Run("the default summary contains address and warning", func(t *testing.T) {
		view := testPresenter(t, 40).Render(outside)
		if !strings.Contains(view.Text, "Far Away St") || !strings.Contains(view.Text, view.Warning) {
			t.Errorf("unexpected summary: %q", view.Text)
		}
		if !strings.HasPrefix(view.Text, MarkerIcon[false]) {
			t.Errorf("expected summary to start with the marker icon, got %q", view.Text)
		}
	})
	t.Run("a custom template is rendered", func(t *testing.T) {
		pres, err := New(testLocalizer(t), language.English, 40,
			WithText(`{{loc "confirm"}}: {{uc .Address}} @ {{floatFormat .Latitude 2}}`))
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		want := "Confirm address: FAR AWAY ST @ 56.00"
		if got := pres.Render(outside).Text; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
	t.Run("an invalid template fails", func(t *testing.T) {
		if _, err := New(testLocalizer(t), language.English, 40, WithText("{{ .Address }")); err == nil {
			t.Error("expected presenter creation to fail")
		}
	})
	t.Run("a failing template falls back to the address", func(t *testing.T) {
		pres, err := New(testLocalizer(t), language.English, 40, WithText("{{ .Missing }}"))
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		if got := pres.Render(eligible).Text; got != eligible.Label {
			t.Errorf("expected fallback to the address, got %q", got)
		}
	})
	t.Run("unknown loc keys are returned as is", func(t *testing.T) {
		if got := testPresenter(t, 40).loc("nope"); got != "nope" {
			t.Errorf("unexpected translation: %q", got)
		}
	})
}
