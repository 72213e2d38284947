package geo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lotscan/internal/config"
	"lotscan/internal/geo"
)

func TestStaticProviderReturnsConfiguredFix(t *testing.T) {
	provider := geo.NewFromConfig(config.Geolocation{
		Enabled:   true,
		Latitude:  41.88,
		Longitude: -87.63,
	})
	fix, err := provider.CurrentFix(context.Background())
	if err != nil {
		t.Fatalf("CurrentFix returned error: %v", err)
	}
	if fix.Latitude != 41.88 || fix.Longitude != -87.63 {
		t.Fatalf("unexpected fix: %#v", fix)
	}
}

func TestDisabledProviderIsUnavailable(t *testing.T) {
	provider := geo.NewFromConfig(config.Geolocation{})
	if _, err := provider.CurrentFix(context.Background()); !errors.Is(err, geo.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type hangingProvider struct{}

func (hangingProvider) CurrentFix(ctx context.Context) (geo.Fix, error) {
	<-ctx.Done()
	return geo.Fix{}, ctx.Err()
}

func TestWithTimeoutMapsDeadlineToUnavailable(t *testing.T) {
	provider := geo.WithTimeout(hangingProvider{}, 10*time.Millisecond)
	if _, err := provider.CurrentFix(context.Background()); !errors.Is(err, geo.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
