// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("english returns the source strings", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("unknown address"); got != "unknown address" {
			t.Errorf("expected source string, got %q", got)
		}
	})
}

func TestLanguage(t *testing.T) {
	t.Run("configured locale is parsed", func(t *testing.T) {
		if got := Language("ru-RU"); got != language.MustParse("ru-RU") {
			t.Errorf("expected ru-RU, got %s", got)
		}
	})
	t.Run("invalid locale falls back to detection", func(t *testing.T) {
		if got := Language("!!"); got == language.Und {
			t.Error("expected a defined language tag")
		}
	})
}
