package app

import (
	"context"
	"strings"
	"testing"

	"github.com/example/claimhub/internal/adapters/fingerprint"
)

func TestResolveDeviceID(t *testing.T) {
	stable := fingerprint.Static("kiosk-7")
	synthetic := fingerprint.NewSynthetic()

	id, err := ResolveDeviceID(context.Background(), true, stable, synthetic)
	if err != nil || id != "kiosk-7" {
		t.Errorf("dedup enabled: got %q, %v; want kiosk-7", id, err)
	}

	first, _ := ResolveDeviceID(context.Background(), false, stable, synthetic)
	second, _ := ResolveDeviceID(context.Background(), false, stable, synthetic)
	if first == second || first == "kiosk-7" || !strings.Contains(first, "-") {
		t.Errorf("dedup disabled: expected fresh synthetic ids, got %q and %q", first, second)
	}

	if _, err := ResolveDeviceID(context.Background(), true, fingerprint.Static(""), synthetic); err == nil {
		t.Error("expected error for blank stable id")
	}
}
