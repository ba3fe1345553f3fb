package cache

import (
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"ascii", "Nokia 3310", "nokia-3310"},
		{"punctuation collapsed", "  Game  Boy -- Color!! ", "game-boy-color"},
		{"diacritics removed", "Café Crème", "cafe-creme"},
		{"cyrillic kept", "Электроника ИМ-02", "электроника-им-02"},
		{"empty", "!!!", "item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.title); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := slugify(strings.Repeat("a", 100))
	if len(got) != maxSlugBase {
		t.Errorf("expected %d chars, got %d", maxSlugBase, len(got))
	}
}

func TestNewSlug_DiffersByTime(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	a := newSlug("Walkman", t0)
	b := newSlug("Walkman", t0.Add(time.Millisecond))
	if a == b {
		t.Errorf("expected distinct slugs, got %q twice", a)
	}
	if !strings.HasPrefix(a, "walkman-") {
		t.Errorf("unexpected slug %q", a)
	}
}

func TestNewSlug_SameInstantStaysUnique(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		slug := newSlug("Walkman", t0)
		if seen[slug] {
			t.Fatalf("duplicate slug %q", slug)
		}
		seen[slug] = true
	}
}
