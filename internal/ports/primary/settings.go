package primary

import "context"

// SettingsService defines the primary port for the settings registry.
type SettingsService interface {
	// GetPolicy returns the current policy.
	GetPolicy(ctx context.Context) (*Policy, error)

	// SetPolicy replaces the whole policy.
	SetPolicy(ctx context.Context, policy Policy) error

	// UpdatePolicy changes only the fields set in req.
	UpdatePolicy(ctx context.Context, req UpdatePolicyRequest) (*Policy, error)
}

// Policy is the dedup toggle plus the two display strings.
type Policy struct {
	DedupEnabled bool
	Title        string
	Instructions string
}

// UpdatePolicyRequest contains optional policy changes. Nil fields are left unchanged.
type UpdatePolicyRequest struct {
	DedupEnabled *bool
	Title        *string
	Instructions *string
}
