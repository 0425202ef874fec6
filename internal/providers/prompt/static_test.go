package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func TestStaticSuggesterReturnsRequestedCount(t *testing.T) {
	s := NewStaticSuggester()
	items, err := s.Suggest(context.Background(), "en", 3)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	for _, item := range items {
		if item.Prompt == "" {
			t.Fatalf("suggestion with empty prompt: %+v", item)
		}
		if item.Provider != staticProviderName {
			t.Fatalf("provider = %q, want %q", item.Provider, staticProviderName)
		}
	}
}

func TestStaticSuggesterLocaleFallback(t *testing.T) {
	s := NewStaticSuggester()
	items, err := s.Suggest(context.Background(), "xx", 2)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2 from the english pool", len(items))
	}
}

func TestStaticSuggesterClampsToPoolSize(t *testing.T) {
	s := NewStaticSuggester()
	items, err := s.Suggest(context.Background(), "ja", 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want the full ja pool of 2", len(items))
	}
}

func TestStaticSuggesterTitleCasing(t *testing.T) {
	s := NewStaticSuggester()
	items, err := s.Suggest(context.Background(), "en", 6)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	caser := cases.Title(language.Make("en"))
	for _, item := range items {
		if item.Title == "" {
			t.Fatalf("suggestion with empty title: %+v", item)
		}
		if got := caser.String(item.Title); got != item.Title {
			t.Fatalf("title %q not title-cased, want %q", item.Title, got)
		}
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := []byte(`suggestions:
  - locale: fr
    title: ruelle de pluie
    prompt: "Une ruelle parisienne sous la pluie, reflets de neon"
  - locale: en
    title: glass orchard
    prompt: "An orchard of glass trees refracting the sunset"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	s, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("load presets: %v", err)
	}

	frItems, err := s.Suggest(context.Background(), "fr", 5)
	if err != nil {
		t.Fatalf("suggest fr: %v", err)
	}
	if len(frItems) != 1 {
		t.Fatalf("len(fr items) = %d, want 1", len(frItems))
	}
	if frItems[0].Prompt != "Une ruelle parisienne sous la pluie, reflets de neon" {
		t.Fatalf("fr prompt = %q, want the preset entry", frItems[0].Prompt)
	}

	enItems, err := s.Suggest(context.Background(), "en", 7)
	if err != nil {
		t.Fatalf("suggest en: %v", err)
	}
	found := false
	for _, item := range enItems {
		if item.Prompt == "An orchard of glass trees refracting the sunset" {
			found = true
		}
	}
	if !found {
		t.Fatalf("en pool missing the preset entry, got %d items", len(enItems))
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing preset file")
	}
}
