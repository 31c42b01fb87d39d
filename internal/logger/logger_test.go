// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("new logger writes to stderr", func(t *testing.T) {
		if l := New(slog.LevelInfo); l == nil || l.Logger == nil {
			t.Fatal("expected logger to be non-nil")
		}
	})
}

func TestNewLogger(t *testing.T) {
	messages := []struct {
		level slog.Level
		msg   string
	}{
		{slog.LevelDebug, "discarding stale reverse geocode result"},
		{slog.LevelInfo, "address session committed"},
		{slog.LevelWarn, "reverse geocode failed"},
		{slog.LevelError, "failed to encode output"},
	}
	for _, minLevel := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		t.Run("messages below "+minLevel.String()+" are dropped", func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			l := NewLogger(minLevel, buf)
			for _, m := range messages {
				l.Log(t.Context(), m.level, m.msg)
			}
			for _, m := range messages {
				logged := strings.Contains(buf.String(), m.msg)
				if want := m.level >= minLevel; logged != want {
					t.Errorf("message %q at %s: expected logged=%t, got %t", m.msg, m.level, want, logged)
				}
			}
		})
	}
	t.Run("session attributes are kept", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		l := &Logger{NewLogger(slog.LevelDebug, buf).With(slog.String("session", "abc"))}
		l.Info("address session opened")
		if !strings.Contains(buf.String(), "session=abc") {
			t.Errorf("expected session attribute, got %q", buf.String())
		}
	})
}

func TestErr(t *testing.T) {
	t.Run("error attributes should be logged", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		l := NewLogger(slog.LevelDebug, buf)
		want := "lookup intentionally failed"
		l.Warn("reverse geocode failed", Err(errors.New(want)))

		if !strings.Contains(buf.String(), `error="`+want+`"`) {
			t.Errorf("expected log to contain %q, got: %q", want, buf.String())
		}
	})
}
