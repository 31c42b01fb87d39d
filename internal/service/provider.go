// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/domashka/domashka/internal/config"
	"github.com/domashka/domashka/internal/geocode"
	geocodeearth "github.com/domashka/domashka/internal/geocode/provider/geocode-earth"
	"github.com/domashka/domashka/internal/geocode/provider/memory"
	"github.com/domashka/domashka/internal/geocode/provider/opencage"
	nominatim "github.com/domashka/domashka/internal/geocode/provider/osm-nominatim"
	"github.com/domashka/domashka/internal/geocode/rediscache"
	"github.com/domashka/domashka/internal/http"
	"github.com/domashka/domashka/internal/logger"
)

func (s *Service) selectGeocodeProvider(conf *config.Config, log *logger.Logger, lang language.Tag) (geocode.Geocoder, error) {
	client := http.New(log, http.WithTimeout(conf.GeoCoder.Timeout))

	switch strings.ToLower(conf.GeoCoder.Provider) {
	case "memory":
		provider, err := memory.NewDefault()
		if err != nil {
			return nil, fmt.Errorf("failed to create memory geocoder: %w", err)
		}
		return provider, nil
	case "nominatim":
		return nominatim.New(client, lang), nil
	case "opencage":
		provider, err := opencage.New(client, lang, conf.GeoCoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create opencage geocoder: %w", err)
		}
		return provider, nil
	case "geocode-earth":
		provider, err := geocodeearth.New(client, lang, conf.GeoCoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create geocode-earth geocoder: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.GeoCoder.Provider)
	}
}

// wrapGeocoder puts the configured caches in front of provider: the in-memory cache first,
// then the shared Redis cache if an address is configured.
func (s *Service) wrapGeocoder(provider geocode.Geocoder) geocode.Geocoder {
	conf := s.config.GeoCoder
	if conf.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: conf.RedisAddr})
		provider = rediscache.New(provider, s.redis, s.logger, conf.CacheHit, conf.CacheMiss)
		s.logger.Debug("using shared geocode cache", slog.String("redis", conf.RedisAddr))
	}
	s.cache = geocode.NewCachedGeocoder(provider, conf.CacheHit, conf.CacheMiss)
	return s.cache
}
