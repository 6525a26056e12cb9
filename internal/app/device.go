package app

import (
	"context"
	"fmt"

	"github.com/example/claimhub/internal/ports/secondary"
)

// ResolveDeviceID picks the identifier a participant claims with.
//
// With dedup enabled the stable source is used so repeat claims from the same
// device are recognized. With dedup disabled every claim gets a fresh
// synthetic identifier and devices are not tracked.
func ResolveDeviceID(ctx context.Context, dedupEnabled bool, stable, synthetic secondary.FingerprintSource) (string, error) {
	source := stable
	if !dedupEnabled {
		source = synthetic
	}

	id, err := source.DeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve device id: %w", err)
	}
	return id, nil
}
