// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/domashka/domashka/internal/geocode"
	"github.com/domashka/domashka/internal/logger"
)

var ErrUnknownSession = errors.New("unknown address session")

// Manager keeps track of the open address sessions by their ID.
type Manager struct {
	coder  geocode.Geocoder
	logger *logger.Logger
	opts   Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(coder geocode.Geocoder, log *logger.Logger, opts Options) (*Manager, error) {
	if coder == nil {
		return nil, ErrMissingGeocoder
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid session options: %w", err)
	}
	return &Manager{
		coder:    coder,
		logger:   log,
		opts:     opts,
		sessions: make(map[string]*Session),
	}, nil
}

// Open starts a new session with the manager's defaults.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	sess, err := NewSession(ctx, m.coder, m.logger, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	m.logger.Debug("address session opened", slog.String("session", sess.ID()))
	return sess, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return sess, nil
}

// Commit commits the session and forgets it. A session that is not eligible stays open.
func (m *Manager) Commit(id string) (Selection, error) {
	sess, err := m.Get(id)
	if err != nil {
		return Selection{}, err
	}
	sel, err := sess.Commit()
	if err != nil {
		return Selection{}, err
	}
	m.forget(id)
	m.logger.Info("address session committed", slog.String("session", id),
		slog.String("address", sel.Label))
	return sel, nil
}

// Cancel closes the session without a selection.
func (m *Manager) Cancel(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.Close()
	m.forget(id)
	m.logger.Debug("address session cancelled", slog.String("session", id))
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every open session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
