package app

import "testing"

func TestNormalizeDBURL(t *testing.T) {
	base := "postgres://app:pw@db:5432/teamcomp"

	t.Run("untouched when disabled", func(t *testing.T) {
		if got := normalizeDBURL(base, false); got != base {
			t.Fatalf("got %q, want %q", got, base)
		}
	})

	t.Run("appends the pooler flag", func(t *testing.T) {
		got := normalizeDBURL(base, true)
		want := base + "?disable_prepared_binary_result=yes"
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("keeps an existing flag value", func(t *testing.T) {
		raw := base + "?disable_prepared_binary_result=no"
		if got := normalizeDBURL(raw, true); got != raw {
			t.Fatalf("got %q, want %q", got, raw)
		}
	})

	t.Run("merges with existing query params", func(t *testing.T) {
		raw := base + "?sslmode=disable"
		got := normalizeDBURL(raw, true)
		want := base + "?disable_prepared_binary_result=yes&sslmode=disable"
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})
}
