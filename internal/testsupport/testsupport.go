// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"lotscan/internal/auditlog"
	"lotscan/internal/config"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory, with recognition credentials and one active location filled in.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.MediaDir = filepath.Join(root, "media")
	cfg.Recognition.APIKey = "test-key"
	cfg.Locations = []config.Location{
		{Name: "Dock 7", Active: true},
		{Name: "North Yard", Active: true},
		{Name: "Retired Lot", Active: false},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustOpenStore opens an audit log store over the test config and registers
// cleanup.
func MustOpenStore(t *testing.T, cfg *config.Config) *auditlog.Store {
	t.Helper()

	store, err := auditlog.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}
