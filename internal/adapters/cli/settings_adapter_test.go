package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/example/claimhub/internal/ports/primary"
)

func TestSettingsAdapter_Show(t *testing.T) {
	mock := &mockSettingsService{policy: primary.Policy{DedupEnabled: true, Title: "Volunteer Hub", Instructions: "One task each"}}
	var out bytes.Buffer
	adapter := NewSettingsAdapter(mock, &out)

	if err := adapter.Show(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Volunteer Hub", "Device dedup:  on", "One task each"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestSettingsAdapter_Set(t *testing.T) {
	mock := &mockSettingsService{policy: primary.Policy{DedupEnabled: true, Title: "Volunteer Hub"}}
	var out bytes.Buffer
	adapter := NewSettingsAdapter(mock, &out)

	off := false
	if err := adapter.Set(context.Background(), primary.UpdatePolicyRequest{DedupEnabled: &off}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.lastReq.Title != nil {
		t.Errorf("title should not be sent: %+v", mock.lastReq)
	}
	if !strings.Contains(out.String(), "Device dedup:  off") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestSettingsAdapter_SetRequiresField(t *testing.T) {
	adapter := NewSettingsAdapter(&mockSettingsService{}, &bytes.Buffer{})

	if err := adapter.Set(context.Background(), primary.UpdatePolicyRequest{}); err == nil {
		t.Fatal("expected error")
	}
}
