// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/domashka/domashka/internal/address"
	"github.com/domashka/domashka/internal/geo"
	"github.com/domashka/domashka/internal/logger"
	"github.com/domashka/domashka/internal/menu"
	"github.com/domashka/domashka/internal/presenter"
)

const maxCommandSize = 64 * 1024

const (
	cmdDrag   = "drag"
	cmdSearch = "search"
	cmdPick   = "pick"
	cmdCommit = "commit"
	cmdCancel = "cancel"
	cmdMenu   = "menu"
)

const (
	outputView      = "view"
	outputSearch    = "search"
	outputCommitted = "committed"
	outputCancelled = "cancelled"
	outputMenu      = "menu"
	outputError     = "error"
)

var ErrUnknownCommand = errors.New("unknown command")

// command is one line of input.
type command struct {
	Cmd   string  `json:"cmd"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Query string  `json:"query"`
	Index int     `json:"index"`
}

type menuOutput struct {
	Chefs      []menu.Chef `json:"chefs"`
	BestDishes []menu.Dish `json:"best_dishes"`
}

// output is one line of output.
type output struct {
	Type      string                `json:"type"`
	View      *presenter.View       `json:"view,omitempty"`
	Search    *presenter.SearchView `json:"search,omitempty"`
	Selection *address.Selection    `json:"selection,omitempty"`
	Menu      *menuOutput           `json:"menu,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// readCommands sends every non-empty input line to lines. The final read error, nil on EOF,
// is sent to errs.
func (s *Service) readCommands(ctx context.Context, lines chan<- []byte, errs chan<- error) {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 4096), maxCommandSize)
	for scanner.Scan() {
		line := []byte(strings.TrimSpace(scanner.Text()))
		if len(line) == 0 {
			continue
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
	errs <- scanner.Err()
}

func (s *Service) handleCommand(ctx context.Context, line []byte) error {
	var cmd command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return fmt.Errorf("failed to decode command: %w", err)
	}
	s.logger.Debug("received command", slog.String("cmd", cmd.Cmd))

	sess := s.currentSession()
	switch strings.ToLower(cmd.Cmd) {
	case cmdDrag:
		return sess.SelectFromMapDrag(geo.Coordinate{Lat: cmd.Lat, Lon: cmd.Lon})
	case cmdSearch:
		places := sess.Search(ctx, cmd.Query)
		s.sessionLock.Lock()
		s.results = places
		s.sessionLock.Unlock()
		view := s.presenter.RenderSearch(cmd.Query, places)
		s.write(output{Type: outputSearch, Search: &view})
		return nil
	case cmdPick:
		s.sessionLock.RLock()
		results := s.results
		s.sessionLock.RUnlock()
		if cmd.Index < 0 || cmd.Index >= len(results) {
			return fmt.Errorf("search result %d does not exist", cmd.Index)
		}
		return sess.SelectFromSearchResult(results[cmd.Index])
	case cmdCommit:
		sel, err := s.manager.Commit(sess.ID())
		if errors.Is(err, address.ErrNotEligible) {
			s.writeError(errors.New(s.presenter.Render(sess.State()).Warning))
			return nil
		}
		if err != nil {
			return err
		}
		s.write(output{Type: outputCommitted, Selection: &sel})
		return s.openSession(ctx)
	case cmdCancel:
		if err := s.manager.Cancel(sess.ID()); err != nil {
			return err
		}
		s.write(output{Type: outputCancelled})
		return s.openSession(ctx)
	case cmdMenu:
		s.write(output{Type: outputMenu, Menu: &menuOutput{
			Chefs:      s.catalog.Chefs(),
			BestDishes: s.catalog.BestDishes(),
		}})
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Cmd)
	}
}

func (s *Service) writeView(state address.State) {
	view := s.presenter.Render(state)
	s.write(output{Type: outputView, View: &view})
}

func (s *Service) writeError(err error) {
	s.write(output{Type: outputError, Error: err.Error()})
}

// write encodes out as a single JSON line.
func (s *Service) write(out output) {
	s.outLock.Lock()
	defer s.outLock.Unlock()
	if err := json.NewEncoder(s.output).Encode(out); err != nil {
		s.logger.Error("failed to encode output", logger.Err(err))
	}
}
