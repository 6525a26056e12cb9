package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/claimhub/internal/core/settings"
	"github.com/example/claimhub/internal/ctxutil"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
)

// SettingsServiceImpl implements the SettingsService interface.
type SettingsServiceImpl struct {
	tx          txRunner
	broadcaster secondary.Broadcaster
	logger      secondary.Logger
	metrics     secondary.Metrics
}

// NewSettingsService creates a new SettingsService with injected dependencies.
func NewSettingsService(
	store secondary.Transactor,
	broadcaster secondary.Broadcaster,
	retry RetryPolicy,
	logger secondary.Logger,
	metrics secondary.Metrics,
) *SettingsServiceImpl {
	return &SettingsServiceImpl{
		tx:          newTxRunner(store, retry, metrics),
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     metrics,
	}
}

// GetPolicy returns the current policy. Missing or malformed stored values
// read as their defaults.
func (s *SettingsServiceImpl) GetPolicy(ctx context.Context) (*primary.Policy, error) {
	var policy settings.Policy
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		policy, err = loadPolicy(ctx, repos.Settings)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return policyToPrimary(policy), nil
}

// SetPolicy replaces all three settings in one transaction.
func (s *SettingsServiceImpl) SetPolicy(ctx context.Context, policy primary.Policy) error {
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		return storePolicy(ctx, repos.Settings, primaryToPolicy(policy))
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.changed(ctx)
	return nil
}

// UpdatePolicy applies the non-nil fields of req and returns the resulting policy.
func (s *SettingsServiceImpl) UpdatePolicy(ctx context.Context, req primary.UpdatePolicyRequest) (*primary.Policy, error) {
	var updated settings.Policy
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		current, err := loadPolicy(ctx, repos.Settings)
		if err != nil {
			return err
		}
		if req.DedupEnabled != nil {
			current.DedupEnabled = *req.DedupEnabled
		}
		if req.Title != nil {
			current.Title = *req.Title
		}
		if req.Instructions != nil {
			current.Instructions = *req.Instructions
		}
		updated = normalizePolicy(current)
		return storePolicy(ctx, repos.Settings, updated)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	s.changed(ctx)
	return policyToPrimary(updated), nil
}

func (s *SettingsServiceImpl) changed(ctx context.Context) {
	s.metrics.IncAdminOp("settings")
	publish(ctx, s.broadcaster, s.logger, secondary.Event{Topic: secondary.SettingsTopic, Kind: secondary.EventSettingsChanged})
	s.logger.Info("settings updated", "actor", ctxutil.ActorFromContext(ctx))
}

func storePolicy(ctx context.Context, repo secondary.SettingsRepository, policy settings.Policy) error {
	for key, value := range policy.Values() {
		if err := repo.Put(ctx, key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return nil
}

// normalizePolicy trims the display strings; a blank title falls back to the default.
func normalizePolicy(p settings.Policy) settings.Policy {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		p.Title = settings.DefaultTitle
	}
	p.Instructions = strings.TrimSpace(p.Instructions)
	return p
}

func primaryToPolicy(p primary.Policy) settings.Policy {
	return normalizePolicy(settings.Policy{
		DedupEnabled: p.DedupEnabled,
		Title:        p.Title,
		Instructions: p.Instructions,
	})
}

func policyToPrimary(p settings.Policy) *primary.Policy {
	return &primary.Policy{
		DedupEnabled: p.DedupEnabled,
		Title:        p.Title,
		Instructions: p.Instructions,
	}
}
