// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package rediscache shares reverse geocoding results between service instances through Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/logger"
)

const keyPrefix = "domashka:geocode:reverse:"

// Geocoder caches reverse lookups of the wrapped Geocoder in Redis. Redis failures never
// fail a lookup: the upstream provider is asked instead.
type Geocoder struct {
	coder   geocode.Geocoder
	client  redis.UniversalClient
	logger  *logger.Logger
	ttlHit  time.Duration
	ttlMiss time.Duration
}

func New(coder geocode.Geocoder, client redis.UniversalClient, log *logger.Logger, ttlHit, ttlMiss time.Duration) *Geocoder {
	return &Geocoder{
		coder:   coder,
		client:  client,
		logger:  log,
		ttlHit:  ttlHit,
		ttlMiss: ttlMiss,
	}
}

func (g *Geocoder) Name() string {
	return "redis cache using " + g.coder.Name()
}

func (g *Geocoder) Reverse(ctx context.Context, coords geo.Coordinate) (geocode.Address, error) {
	key := keyPrefix + geocode.QuantizedKey(g.coder.Name(), coords)

	raw, err := g.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var addr geocode.Address
		if err = json.Unmarshal(raw, &addr); err == nil {
			addr.CacheHit = true
			return addr, nil
		}
		g.logger.Warn("dropping undecodable cache entry", logger.Err(err))
	case !errors.Is(err, redis.Nil):
		g.logger.Warn("failed to read geocode cache", logger.Err(err))
	}

	addr, err := g.coder.Reverse(ctx, coords)
	if err != nil {
		return addr, err
	}

	ttl := g.ttlHit
	if !addr.AddressFound {
		ttl = g.ttlMiss
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return addr, fmt.Errorf("failed to encode address for cache: %w", err)
	}
	if err = g.client.Set(ctx, key, data, ttl).Err(); err != nil {
		g.logger.Warn("failed to write geocode cache", logger.Err(err))
	}
	return addr, nil
}

// Search is not cached: suggestions change with every keystroke and are cheap to lose.
func (g *Geocoder) Search(ctx context.Context, query string, near geo.Coordinate) ([]geocode.Place, error) {
	return g.coder.Search(ctx, query, near)
}
