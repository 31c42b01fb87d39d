// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak/localize"
)

// DefaultText is the summary line template used when none is configured.
const DefaultText = `{{emojiSpace .Icon}}{{.Address}}{{if .Warning}} ({{.Warning}}){{end}}`

// TemplateContext is the data a summary line template is rendered with.
type TemplateContext struct {
	Icon       string
	Address    string
	Latitude   float64
	Longitude  float64
	Eligible   bool
	Status     string
	Warning    string
	Regions    []string
	Resolution string
	UpdateTime time.Time
}

var i18nVars = map[string]localize.MsgID{
	"unknown":    msgUnknownAddress,
	"nodelivery": msgNotDeliverable,
	"lookingup":  msgLookingUp,
	"confirm":    msgConfirm,
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithText sets the template of the one-line summary of a view.
func WithText(text string) Option {
	return func(p *Presenter) {
		p.text = text
	}
}

func (p *Presenter) parseText() error {
	text := p.text
	if strings.TrimSpace(text) == "" {
		text = DefaultText
	}
	tpl, err := template.New("text").Funcs(p.templateFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse text template: %w", err)
	}
	p.textTpl = tpl
	return nil
}

func (p *Presenter) renderText(view View) string {
	ctx := TemplateContext{
		Icon:       view.Marker.Icon,
		Address:    view.AddressText,
		Latitude:   view.Marker.Latitude,
		Longitude:  view.Marker.Longitude,
		Eligible:   view.ConfirmEnabled,
		Status:     view.Status,
		Warning:    view.Warning,
		Regions:    view.Regions,
		Resolution: view.Resolution.String(),
		UpdateTime: view.UpdatedAt,
	}
	buf := bytes.NewBuffer(nil)
	if err := p.textTpl.Execute(buf, ctx); err != nil {
		return view.AddressText
	}
	return buf.String()
}

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    timeFormat,
		"localizedTime": p.localizedTime,
		"floatFormat":   floatFormat,
		"emojiSpace":    emojiWithSpace,
		"loc":           p.loc,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	if raw, ok := i18nVars[strings.ToLower(val)]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) localizedTime(val time.Time) string {
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func floatFormat(val float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, val)
}

func emojiWithSpace(emoji string) string {
	if emoji == "" {
		return ""
	}
	width := runewidth.StringWidth(emoji)
	return emoji + strings.Repeat(" ", max(1, 3-width))
}
