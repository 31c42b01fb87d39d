// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/domashka/domashka/internal/geo"
)

const (
	configEnv = "DOMASHKA"

	DefaultLatitude       = 55.7558
	DefaultLongitude      = 37.6173
	DefaultAddress        = "Москва, Россия"
	DefaultRegionName     = "moscow"
	DefaultRegionHalfSpan = 0.045
)

// Region is the configuration form of a delivery region. Spans are given either in degrees
// (half_lat_span/half_lon_span) or as a full extent in meters (span_meters).
type Region struct {
	Name        string  `fig:"name"`
	Latitude    float64 `fig:"latitude"`
	Longitude   float64 `fig:"longitude"`
	HalfLatSpan float64 `fig:"half_lat_span"`
	HalfLonSpan float64 `fig:"half_lon_span"`
	SpanMeters  float64 `fig:"span_meters"`
}

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Session struct {
		DefaultLatitude  float64 `fig:"default_latitude"`
		DefaultLongitude float64 `fig:"default_longitude"`
		DefaultAddress   string  `fig:"default_address"`
		// Buffer size of the view update channel per subscriber
		UpdateBuffer int `fig:"update_buffer" default:"16"`
	} `fig:"session"`

	Delivery struct {
		Regions []Region `fig:"regions"`
	} `fig:"delivery"`

	GeoCoder struct {
		// Allowed values: memory, nominatim, opencage, geocode-earth
		Provider string        `fig:"provider" default:"memory"`
		APIKey   string        `fig:"apikey"`
		Timeout  time.Duration `fig:"timeout" default:"10s"`
		CacheHit time.Duration `fig:"cache_hit_ttl" default:"24h"`
		// Misses are kept shorter, a new building might show up in the map data
		CacheMiss time.Duration `fig:"cache_miss_ttl" default:"10m"`
		RedisAddr string        `fig:"redis_addr"`
	} `fig:"geocoder"`

	Intervals struct {
		CachePurge time.Duration `fig:"cache_purge" default:"5m"`
	} `fig:"intervals"`

	Presenter struct {
		AddressWidth int `fig:"address_width" default:"40"`
		// Template of the one-line summary printed with every view
		Text string `fig:"text"`
	} `fig:"presenter"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}

	if c.Session.DefaultLatitude == 0 && c.Session.DefaultLongitude == 0 {
		c.Session.DefaultLatitude = DefaultLatitude
		c.Session.DefaultLongitude = DefaultLongitude
	}
	if !c.DefaultCoordinate().Valid() {
		return fmt.Errorf("invalid default coordinate: %s", c.DefaultCoordinate())
	}
	if strings.TrimSpace(c.Session.DefaultAddress) == "" {
		c.Session.DefaultAddress = DefaultAddress
	}
	if c.Session.UpdateBuffer < 1 {
		return fmt.Errorf("invalid session update buffer: %d", c.Session.UpdateBuffer)
	}

	if len(c.Delivery.Regions) == 0 {
		c.Delivery.Regions = []Region{{
			Name:        DefaultRegionName,
			Latitude:    DefaultLatitude,
			Longitude:   DefaultLongitude,
			HalfLatSpan: DefaultRegionHalfSpan,
			HalfLonSpan: DefaultRegionHalfSpan,
		}}
	}
	if err := c.SupportedRegions().Validate(); err != nil {
		return fmt.Errorf("invalid delivery regions: %w", err)
	}

	switch c.GeoCoder.Provider {
	case "memory", "nominatim":
	case "opencage", "geocode-earth":
		if c.GeoCoder.APIKey == "" {
			return fmt.Errorf("geocoder %s requires an API key", c.GeoCoder.Provider)
		}
	default:
		return fmt.Errorf("unsupported geocoder type: %s", c.GeoCoder.Provider)
	}
	if c.GeoCoder.Timeout <= 0 {
		return fmt.Errorf("invalid geocoder timeout: %s", c.GeoCoder.Timeout)
	}
	if c.Intervals.CachePurge <= 0 {
		return fmt.Errorf("invalid cache purge interval: %s", c.Intervals.CachePurge)
	}
	if c.Presenter.AddressWidth < 8 {
		return fmt.Errorf("invalid address width: %d", c.Presenter.AddressWidth)
	}

	return nil
}

// DefaultCoordinate returns the coordinate every new address session starts at.
func (c *Config) DefaultCoordinate() geo.Coordinate {
	return geo.Coordinate{Lat: c.Session.DefaultLatitude, Lon: c.Session.DefaultLongitude}
}

// SupportedRegions converts the configured regions into their geo form.
func (c *Config) SupportedRegions() geo.Regions {
	regions := make(geo.Regions, 0, len(c.Delivery.Regions))
	for i, r := range c.Delivery.Regions {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("region-%d", i+1)
		}
		center := geo.Coordinate{Lat: r.Latitude, Lon: r.Longitude}
		if r.SpanMeters > 0 && r.HalfLatSpan == 0 && r.HalfLonSpan == 0 {
			regions = append(regions, geo.NewRegionFromMeters(name, center, r.SpanMeters, r.SpanMeters))
			continue
		}
		regions = append(regions, geo.Region{
			Name:        name,
			Center:      center,
			HalfLatSpan: r.HalfLatSpan,
			HalfLonSpan: r.HalfLonSpan,
		})
	}
	return regions
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
