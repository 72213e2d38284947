package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"lotscan/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("LOTSCAN_RECOGNITION_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "lotscan", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Recognition.APIKey != "test-key" {
		t.Fatalf("expected recognition key from env, got %q", cfg.Recognition.APIKey)
	}
	if cfg.Recognition.BaseURL != config.Default().Recognition.BaseURL {
		t.Fatalf("unexpected recognition base url: %q", cfg.Recognition.BaseURL)
	}
	if cfg.Video.FrameCount != 8 {
		t.Fatalf("unexpected frame count: %d", cfg.Video.FrameCount)
	}
	if cfg.Geolocation.Enabled {
		t.Fatal("expected static geolocation disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.MediaDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadParsesLocationsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[recognition]
api_key = "abc"

[[locations]]
name = "Dock 7"
active = true

[[locations]]
name = "  North Yard "
active = false

[[locations]]
name = ""
active = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if len(cfg.Locations) != 2 {
		t.Fatalf("expected 2 locations after normalization, got %d", len(cfg.Locations))
	}
	if cfg.Locations[1].Name != "North Yard" {
		t.Fatalf("expected trimmed location name, got %q", cfg.Locations[1].Name)
	}

	active := cfg.ActiveLocations()
	if len(active) != 1 || active[0].Name != "Dock 7" {
		t.Fatalf("unexpected active locations: %#v", active)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing api key", "[recognition]\napi_key = \"\"\n"},
		{"bad frame count", "[recognition]\napi_key = \"k\"\n[video]\nframe_count = 0\n"},
		{"bad quality", "[recognition]\napi_key = \"k\"\n[video]\nframe_quality = 40\n"},
		{"bad latitude", "[recognition]\napi_key = \"k\"\n[geolocation]\nenabled = true\nlatitude = 120.0\n"},
		{"bad log format", "[recognition]\napi_key = \"k\"\n[logging]\nformat = \"xml\"\n"},
		{"duplicate location", "[recognition]\napi_key = \"k\"\n[[locations]]\nname = \"Dock 7\"\n[[locations]]\nname = \"dock 7\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LOTSCAN_RECOGNITION_API_KEY", "")
			os.Unsetenv("LOTSCAN_RECOGNITION_API_KEY")
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample config content")
	}
}
