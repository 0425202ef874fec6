package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("IMAGE_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.ImageProvider != "gemini" {
		t.Fatalf("ImageProvider mismatch: got %q want %q", cfg.ImageProvider, "gemini")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL mismatch: got %v want %v", cfg.SessionTTL, 30*time.Minute)
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Fatalf("MaxUploadBytes mismatch: got %d want %d", cfg.MaxUploadBytes, 8<<20)
	}
	if cfg.HistoryEnabled() {
		t.Fatalf("HistoryEnabled() = true without DATABASE_URL")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins mismatch: %#v", cfg.CORSOrigins)
	}
}

func TestLoadConfigParsesOriginsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://studio.example.com, http://localhost:5173 ,https://studio.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"https://studio.example.com", "http://localhost:5173"}
	if len(cfg.CORSOrigins) != len(expected) {
		t.Fatalf("CORSOrigins mismatch: got %#v want %#v", cfg.CORSOrigins, expected)
	}
	for i, origin := range expected {
		if cfg.CORSOrigins[i] != origin {
			t.Fatalf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], origin)
		}
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("IMAGE_PROVIDER", "dalle")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig should reject unknown IMAGE_PROVIDER")
	}
}

func TestLoadConfigHistoryEnabled(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.HistoryEnabled() {
		t.Fatalf("HistoryEnabled() = false with DATABASE_URL set")
	}
}

func TestLoadConfigFloorsConcurrency(t *testing.T) {
	t.Setenv("IMAGE_CONCURRENCY", "0")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ImageConcurrency != 1 {
		t.Fatalf("ImageConcurrency floor: got %d want 1", cfg.ImageConcurrency)
	}
}
