// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import "testing"

func TestNew(t *testing.T) {
	t.Run("new localizer with empty locale string succeeds", func(t *testing.T) {
		localizer, err := New("")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		if localizer == nil {
			t.Fatal("expected localizer to be non-nil")
		}
	})
	t.Run("german localizer translates condition text", func(t *testing.T) {
		localizer, err := New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		if got := localizer.Get("Clear sky"); got != "Klarer Himmel" {
			t.Errorf("expected translated condition, got %q", got)
		}
	})
	t.Run("unknown message passes through unchanged", func(t *testing.T) {
		localizer, err := New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		if got := localizer.Get("Frogs falling from the sky"); got != "Frogs falling from the sky" {
			t.Errorf("expected pass-through message, got %q", got)
		}
	})
}
