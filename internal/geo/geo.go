// Package geo supplies coordinate fixes for scan records.
//
// Capture clients normally report their own fix with each submission; the
// provider here is the daemon-side source used when they do not. The static
// provider binds a configured site coordinate, which suits fixed scanning
// stations; mobile deployments leave it disabled and rely on client fixes.
package geo

import (
	"context"
	"errors"
	"time"

	"lotscan/internal/config"
)

// ErrUnavailable indicates no coordinate fix could be acquired. Scan attempts
// fail on it rather than substituting a default coordinate; only the video
// batch path degrades (see the capture coordinator).
var ErrUnavailable = errors.New("location unavailable")

// Fix is a geographic coordinate pair.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider yields the current coordinate fix.
type Provider interface {
	CurrentFix(ctx context.Context) (Fix, error)
}

// NewFromConfig builds a provider from configuration: a static provider when
// coordinates are configured, otherwise one that always fails so callers must
// supply client-side fixes.
func NewFromConfig(cfg config.Geolocation) Provider {
	if cfg.Enabled {
		return staticProvider{fix: Fix{Latitude: cfg.Latitude, Longitude: cfg.Longitude}}
	}
	return unavailableProvider{}
}

// WithTimeout wraps a provider with an acquisition deadline.
func WithTimeout(provider Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return provider
	}
	return timeoutProvider{inner: provider, timeout: timeout}
}

type staticProvider struct {
	fix Fix
}

func (p staticProvider) CurrentFix(context.Context) (Fix, error) {
	return p.fix, nil
}

type unavailableProvider struct{}

func (unavailableProvider) CurrentFix(context.Context) (Fix, error) {
	return Fix{}, ErrUnavailable
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func (p timeoutProvider) CurrentFix(ctx context.Context) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	fix, err := p.inner.CurrentFix(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Fix{}, ErrUnavailable
		}
		return Fix{}, err
	}
	return fix, nil
}
