// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/ru"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/address"
	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
)

const ellipsis = "…"

var ErrMissingLocalizer = errors.New("presenter requires a localizer")

// Marker is the map pin of the current selection.
type Marker struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Icon      string  `json:"icon"`
}

// View is everything the address screen renders for one session state.
type View struct {
	SessionID      string             `json:"session_id"`
	Marker         Marker             `json:"marker"`
	AddressText    string             `json:"address"`
	Placeholder    bool               `json:"placeholder"`
	Status         string             `json:"status,omitempty"`
	Warning        string             `json:"warning,omitempty"`
	ConfirmEnabled bool               `json:"confirm_enabled"`
	ConfirmLabel   string             `json:"confirm_label"`
	Regions        []string           `json:"regions,omitempty"`
	Resolution     address.Resolution `json:"resolution"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Updated        string             `json:"updated"`
	Text           string             `json:"text"`
}

// PlaceView is one entry of the search suggestion list.
type PlaceView struct {
	Index int            `json:"index"`
	Label string         `json:"label"`
	At    geo.Coordinate `json:"coordinate"`
}

// SearchView is the rendered result of a forward search.
type SearchView struct {
	Query   string      `json:"query"`
	Summary string      `json:"summary"`
	Places  []PlaceView `json:"places"`
}

type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	width     int
	text      string
	textTpl   *template.Template
}

// New returns a Presenter rendering texts for lang. Address texts wider than width terminal
// cells are truncated.
func New(loc *spreak.Localizer, lang language.Tag, width int, opts ...Option) (*Presenter, error) {
	if loc == nil {
		return nil, ErrMissingLocalizer
	}
	collection, err := humanize.New(humanize.WithLocale(ru.New()))
	if err != nil {
		return nil, fmt.Errorf("failed to create humanizer: %w", err)
	}
	p := &Presenter{
		localizer: loc,
		humanizer: collection.CreateHumanizer(lang),
		width:     width,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err = p.parseText(); err != nil {
		return nil, err
	}
	return p, nil
}

// Placeholder returns the localized text used when no address name is known.
func (p *Presenter) Placeholder() string {
	return p.localizer.Get(msgUnknownAddress)
}

// Render derives the view of state. The marker always sits on the state's coordinate.
func (p *Presenter) Render(state address.State) View {
	view := View{
		SessionID: state.SessionID,
		Marker: Marker{
			Latitude:  state.Coordinate.Lat,
			Longitude: state.Coordinate.Lon,
			Icon:      MarkerIcon[state.Eligible],
		},
		AddressText:    p.truncate(state.Label),
		Placeholder:    state.Placeholder,
		ConfirmEnabled: state.Eligible,
		ConfirmLabel:   p.localizer.Get(msgConfirm),
		Regions:        state.Regions,
		Resolution:     state.Resolution,
		UpdatedAt:      state.UpdatedAt,
	}
	if state.Resolution == address.ResolutionPending {
		view.Status = p.localizer.Get(msgLookingUp)
	}
	if !state.Eligible {
		view.Warning = p.localizer.Get(msgNotDeliverable)
	}
	if !state.UpdatedAt.IsZero() {
		view.Updated = p.localizer.Getf(msgUpdated, p.localizedTime(state.UpdatedAt))
	}
	view.Text = p.renderText(view)
	return view
}

// RenderSearch renders forward-search candidates in provider order.
func (p *Presenter) RenderSearch(query string, places []geocode.Place) SearchView {
	view := SearchView{
		Query:   query,
		Summary: p.localizer.NGetf(msgResults, msgResultsPlural, len(places), len(places)),
		Places:  make([]PlaceView, 0, len(places)),
	}
	for i, place := range places {
		label := place.Label
		if label == "" {
			label = p.Placeholder()
		}
		view.Places = append(view.Places, PlaceView{Index: i, Label: p.truncate(label), At: place.Coordinate})
	}
	return view
}

func (p *Presenter) truncate(text string) string {
	if p.width <= 0 || runewidth.StringWidth(text) <= p.width {
		return text
	}
	return runewidth.Truncate(text, p.width, ellipsis)
}
