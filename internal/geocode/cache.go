// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/domashka/domashka/internal/geo"
)

// coordPrecision is the precision used to quantize coordinates (0.0001 degrees ≈ 11 m).
// A dragged pin usually moves between houses, so the key has to be finer than a city block.
const coordPrecision = 1e-4

type cacheKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type cacheEntry struct {
	Address Address
	Expiry  time.Time
}

type searchEntry struct {
	Places []Place
	Expiry time.Time
}

// CachedGeocoder wraps a Geocoder with an in-memory cache for reverse lookups and search
// results. Concurrent lookups for the same key share a single upstream call.
type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration
	group   singleflight.Group

	mu       sync.RWMutex
	cache    map[cacheKey]cacheEntry
	searches map[string]searchEntry
}

func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:    coder,
		ttlHit:   ttlHit,
		ttlMiss:  ttlMiss,
		cache:    make(map[cacheKey]cacheEntry),
		searches: make(map[string]searchEntry),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coords geo.Coordinate) (Address, error) {
	key := newKey(c.coder.Name(), coords.Lat, coords.Lon)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		addr := entry.Address
		addr.CacheHit = true
		return addr, nil
	}

	flightKey := fmt.Sprintf("reverse:%d:%d", key.LatQ, key.LonQ)
	val, err, _ := c.group.Do(flightKey, func() (any, error) {
		addr, err := c.coder.Reverse(ctx, coords)
		if err != nil {
			return addr, err
		}

		ttl := c.ttlHit
		if !addr.AddressFound {
			ttl = c.ttlMiss
		}
		c.mu.Lock()
		c.cache[key] = cacheEntry{Address: addr, Expiry: time.Now().Add(ttl)}
		c.mu.Unlock()
		return addr, nil
	})
	if err != nil {
		return Address{}, err
	}
	return val.(Address), nil
}

// Search caches results by normalized query and quantized bias point. Empty result lists
// are cached with the miss TTL.
func (c *CachedGeocoder) Search(ctx context.Context, query string, near geo.Coordinate) ([]Place, error) {
	nk := newKey(c.coder.Name(), near.Lat, near.Lon)
	key := fmt.Sprintf("search:%d:%d:%s", nk.LatQ, nk.LonQ, normalizeQuery(query))

	c.mu.RLock()
	entry, ok := c.searches[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		return clonePlaces(entry.Places), nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		places, err := c.coder.Search(ctx, query, near)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlHit
		if len(places) == 0 {
			ttl = c.ttlMiss
		}
		c.mu.Lock()
		c.searches[key] = searchEntry{Places: places, Expiry: time.Now().Add(ttl)}
		c.mu.Unlock()
		return places, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePlaces(val.([]Place)), nil
}

// Purge removes all expired entries and returns how many were dropped.
func (c *CachedGeocoder) Purge() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.cache {
		if !now.Before(v.Expiry) {
			delete(c.cache, k)
			removed++
		}
	}
	for k, v := range c.searches {
		if !now.Before(v.Expiry) {
			delete(c.searches, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired ones included.
func (c *CachedGeocoder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache) + len(c.searches)
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newKey(provider string, lat, lon float64) cacheKey {
	return cacheKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func clonePlaces(places []Place) []Place {
	if places == nil {
		return nil
	}
	out := make([]Place, len(places))
	copy(out, places)
	return out
}

// QuantizedKey returns the string form of the cache key for coords, for caches living
// outside the process.
func QuantizedKey(provider string, coords geo.Coordinate) string {
	k := newKey(provider, coords.Lat, coords.Lon)
	return fmt.Sprintf("%s:%d:%d", k.Provider, k.LatQ, k.LonQ)
}
