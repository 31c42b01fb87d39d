// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/logger"
)

// DefaultPlaceholder is shown when a lookup or search pick produced no usable name.
const DefaultPlaceholder = "unknown address"

var (
	ErrNotEligible        = errors.New("selected address is outside of all delivery regions")
	ErrSessionClosed      = errors.New("address session is closed")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrMissingGeocoder    = errors.New("no geocoder configured")
	ErrMissingDefaultText = errors.New("default address must not be empty")
)

// Options configures a new Session.
type Options struct {
	// Start is the coordinate the session opens with, usually the city center.
	Start geo.Coordinate
	// DefaultLabel is the address text shown before the first selection.
	DefaultLabel string
	// Placeholder replaces empty labels. Defaults to DefaultPlaceholder.
	Placeholder string
	Regions     geo.Regions
}

func (o Options) validate() error {
	if !o.Start.Valid() {
		return fmt.Errorf("%w: start %s", ErrInvalidCoordinate, o.Start)
	}
	if strings.TrimSpace(o.DefaultLabel) == "" {
		return ErrMissingDefaultText
	}
	return o.Regions.Validate()
}

type request struct {
	seq   uint64
	coord geo.Coordinate
}

// Session holds the address selection of one open address flow. All state changes go
// through the session's lock; reverse geocode completions re-enter through
// applyReverseGeocode and are dropped unless they belong to the latest selection.
type Session struct {
	id          string
	coder       geocode.Geocoder
	logger      *logger.Logger
	regions     geo.Regions
	placeholder string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	closed bool
	subs   map[chan State]struct{}
}

// NewSession opens a session at opts.Start. Closing the parent context has the same effect
// on outstanding lookups as Close.
func NewSession(ctx context.Context, coder geocode.Geocoder, log *logger.Logger, opts Options) (*Session, error) {
	if coder == nil {
		return nil, ErrMissingGeocoder
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}
	if strings.TrimSpace(opts.Placeholder) == "" {
		opts.Placeholder = DefaultPlaceholder
	}

	id := uuid.NewString()
	sessCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		id:          id,
		coder:       coder,
		logger:      &logger.Logger{Logger: log.With(slog.String("session", id))},
		regions:     opts.Regions,
		placeholder: opts.Placeholder,
		ctx:         sessCtx,
		cancel:      cancel,
		subs:        make(map[chan State]struct{}),
	}
	sess.state = State{
		SessionID:  id,
		Label:      opts.DefaultLabel,
		Source:     SourceDefault,
		Resolution: ResolutionInitial,
	}
	sess.setCoordinate(opts.Start)
	return sess, nil
}

func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the current selection.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// IsEligible reports whether the current coordinate lies within a delivery region.
func (s *Session) IsEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Eligible
}

// SelectFromSearchResult moves the selection to a forward-search pick. The label is taken
// as is, blank labels are replaced by the placeholder. Any reverse geocode still in flight
// becomes stale.
func (s *Session) SelectFromSearchResult(place geocode.Place) error {
	if !place.Coordinate.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinate, place.Coordinate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.state.Seq++
	s.state.Source = SourceSearch
	s.setCoordinate(place.Coordinate)
	s.setLabel(place.Label)
	s.state.Resolution = ResolutionResolved
	if s.state.Placeholder {
		s.state.Resolution = ResolutionUnresolved
	}
	s.broadcast()
	return nil
}

// SelectFromMapDrag moves the selection to coord. Eligibility is updated before the method
// returns, the address label follows once the reverse geocode completes.
func (s *Session) SelectFromMapDrag(coord geo.Coordinate) error {
	if !coord.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidCoordinate, coord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.state.Seq++
	s.state.Source = SourceDrag
	s.setCoordinate(coord)
	s.state.Resolution = ResolutionPending
	s.broadcast()

	req := request{seq: s.state.Seq, coord: coord}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		addr, err := s.coder.Reverse(s.ctx, req.coord)
		s.applyReverseGeocode(req, addr, err)
	}()
	return nil
}

// applyReverseGeocode applies the result of req if it still belongs to the latest
// selection. It reports whether the result was applied.
func (s *Session) applyReverseGeocode(req request, addr geocode.Address, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if req.seq != s.state.Seq {
		s.logger.Debug("discarding stale reverse geocode result", slog.Uint64("request", req.seq),
			slog.Uint64("current", s.state.Seq), slog.String("coordinate", req.coord.String()))
		return false
	}

	switch {
	case err != nil:
		s.logger.Warn("reverse geocode failed, keeping previous address", logger.Err(err),
			slog.String("coordinate", req.coord.String()))
		s.state.Resolution = ResolutionUnresolved
	case !addr.AddressFound:
		s.logger.Debug("no address found for coordinate, keeping previous address",
			slog.String("coordinate", req.coord.String()))
		s.state.Resolution = ResolutionUnresolved
	default:
		s.setLabel(addr.Label())
		s.state.Resolution = ResolutionResolved
		if s.state.Placeholder {
			s.state.Resolution = ResolutionUnresolved
		}
	}
	s.setCoordinate(req.coord)
	s.broadcast()
	return true
}

// Search returns forward-search candidates near the current selection. A blank query
// returns no results without contacting the geocoder, a failing geocoder is logged and
// yields no results.
func (s *Session) Search(ctx context.Context, query string) []geocode.Place {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	near := s.state.Coordinate
	s.mu.Unlock()

	places, err := s.coder.Search(ctx, query, near)
	if err != nil {
		s.logger.Warn("address search failed", logger.Err(err), slog.String("query", query))
		return nil
	}
	return places
}

// Subscribe returns a channel receiving a snapshot after every change, starting with the
// current state. Slow consumers miss intermediate snapshots. The returned function
// unsubscribes and closes the channel.
func (s *Session) Subscribe(size int) (<-chan State, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan State, size)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.snapshot()
	s.mu.Unlock()

	unsub := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, unsub
}

// Commit finishes the session with the current selection. It fails with ErrNotEligible
// while the coordinate is outside all delivery regions; the session stays open then.
func (s *Session) Commit() (Selection, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Selection{}, ErrSessionClosed
	}
	if !s.state.Eligible {
		s.mu.Unlock()
		return Selection{}, ErrNotEligible
	}
	sel := Selection{
		SessionID:  s.id,
		Coordinate: s.state.Coordinate,
		Label:      s.state.Label,
		Regions:    append([]string(nil), s.state.Regions...),
	}
	s.closeLocked()
	s.mu.Unlock()

	s.wg.Wait()
	return sel, nil
}

// Close discards the session. Outstanding lookups are cancelled and their results dropped.
// Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closeLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

// closeLocked must be called with the lock held.
func (s *Session) closeLocked() {
	s.closed = true
	s.cancel()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// setCoordinate must be called with the lock held.
func (s *Session) setCoordinate(coord geo.Coordinate) {
	s.state.Coordinate = coord
	s.state.Eligible = s.regions.Contains(coord)
	s.state.Regions = s.regions.Matching(coord)
	s.state.UpdatedAt = time.Now()
}

// setLabel must be called with the lock held.
func (s *Session) setLabel(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		s.state.Label = s.placeholder
		s.state.Placeholder = true
		return
	}
	s.state.Label = label
	s.state.Placeholder = false
}

func (s *Session) snapshot() State {
	st := s.state
	st.Regions = append([]string(nil), s.state.Regions...)
	return st
}

func (s *Session) broadcast() {
	st := s.snapshot()
	for ch := range s.subs {
		select {
		case ch <- st:
		default:
		}
	}
}
