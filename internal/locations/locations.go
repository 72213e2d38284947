// Package locations exposes the audit site roster coordinators offer at
// session start. Inactive sites stay in configuration for history but are
// never offered.
package locations

import (
	"context"
	"errors"
	"strings"

	"lotscan/internal/config"
)

// ErrUnknownLocation indicates a session start named a location that is not
// active in the directory.
var ErrUnknownLocation = errors.New("unknown or inactive location")

// Location is one audit site.
type Location struct {
	Name   string `json:"name"`
	Active bool   `json:"is_active"`
}

// Directory lists the audit sites available for session start.
type Directory interface {
	ListActive(ctx context.Context) ([]Location, error)
}

// ConfigDirectory serves the roster from loaded configuration.
type ConfigDirectory struct {
	cfg *config.Config
}

// NewConfigDirectory builds a directory backed by the supplied configuration.
func NewConfigDirectory(cfg *config.Config) *ConfigDirectory {
	return &ConfigDirectory{cfg: cfg}
}

// ListActive returns every active location in configuration order.
func (d *ConfigDirectory) ListActive(ctx context.Context) ([]Location, error) {
	if d == nil || d.cfg == nil {
		return nil, nil
	}
	active := d.cfg.ActiveLocations()
	out := make([]Location, 0, len(active))
	for _, loc := range active {
		out = append(out, Location{Name: loc.Name, Active: true})
	}
	return out, nil
}

// Resolve returns the canonical name for an active location, or
// ErrUnknownLocation. Matching is case-insensitive on trimmed names.
func Resolve(ctx context.Context, dir Directory, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrUnknownLocation
	}
	active, err := dir.ListActive(ctx)
	if err != nil {
		return "", err
	}
	for _, loc := range active {
		if strings.EqualFold(loc.Name, trimmed) {
			return loc.Name, nil
		}
	}
	return "", ErrUnknownLocation
}
