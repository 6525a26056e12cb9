package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/claimhub/internal/ports/primary"
)

// SettingsAdapter translates settings commands to SettingsService calls.
type SettingsAdapter struct {
	service primary.SettingsService
	out     io.Writer
}

// NewSettingsAdapter creates a new SettingsAdapter with the given service.
func NewSettingsAdapter(service primary.SettingsService, out io.Writer) *SettingsAdapter {
	return &SettingsAdapter{
		service: service,
		out:     out,
	}
}

// Show prints the current policy.
func (a *SettingsAdapter) Show(ctx context.Context) error {
	policy, err := a.service.GetPolicy(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	a.print(policy)
	return nil
}

// Set applies the non-nil changes and prints the resulting policy.
func (a *SettingsAdapter) Set(ctx context.Context, req primary.UpdatePolicyRequest) error {
	if req.DedupEnabled == nil && req.Title == nil && req.Instructions == nil {
		return fmt.Errorf("must specify at least --dedup, --title or --instructions")
	}

	policy, err := a.service.UpdatePolicy(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Settings updated")
	a.print(policy)
	return nil
}

func (a *SettingsAdapter) print(p *primary.Policy) {
	dedup := "off"
	if p.DedupEnabled {
		dedup = "on"
	}

	fmt.Fprintf(a.out, "\nTitle:         %s\n", p.Title)
	fmt.Fprintf(a.out, "Device dedup:  %s\n", dedup)
	if p.Instructions != "" {
		fmt.Fprintf(a.out, "Instructions:  %s\n", p.Instructions)
	}
	fmt.Fprintln(a.out)
}
