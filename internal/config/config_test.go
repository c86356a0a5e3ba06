package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want default", cfg.BaseURL)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment: got %q, want production", cfg.Environment)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout: got %s, want 30s", cfg.Timeout())
	}
}

func TestLoadFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `{"base_url": "https://rodeo.internal", "environment": "development"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://rodeo.internal" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment: got %q", cfg.Environment)
	}
	// Unset fields fall back to defaults.
	if cfg.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("TimeoutSeconds: got %d", cfg.TimeoutSeconds)
	}
	if want := filepath.Join(dir, "state.json"); cfg.StatePath != want {
		t.Errorf("StatePath: got %q, want %q", cfg.StatePath, want)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"base_url": "https://file.example"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvBaseURL, "https://env.example")
	t.Setenv(EnvEnvironment, "development")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://env.example" {
		t.Errorf("BaseURL: got %q, want env override", cfg.BaseURL)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment: got %q, want env override", cfg.Environment)
	}
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"environment": "staging"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.BaseURL = "https://rodeo.example.com"
	cfg.Environment = "development"

	path := filepath.Join(dir, "nested", ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.BaseURL != cfg.BaseURL || loaded.Environment != cfg.Environment {
		t.Errorf("round trip: got %+v", loaded)
	}
	if loaded.Dir() != filepath.Dir(path) {
		t.Errorf("Dir: got %q", loaded.Dir())
	}
}
