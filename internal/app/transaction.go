package app

import (
	"context"
	"errors"
	"time"

	"github.com/example/claimhub/internal/core/settings"
	"github.com/example/claimhub/internal/ports/secondary"
)

// RetryPolicy bounds how often a unit of work is retried after the store
// reported a conflict.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns 5 attempts with 20ms linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Backoff: 20 * time.Millisecond}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// txRunner runs units of work with bounded retry on secondary.ErrConflict.
type txRunner struct {
	store   secondary.Transactor
	policy  RetryPolicy
	metrics secondary.Metrics
}

func newTxRunner(store secondary.Transactor, policy RetryPolicy, metrics secondary.Metrics) txRunner {
	return txRunner{store: store, policy: policy.normalized(), metrics: metrics}
}

// run returns the first non-conflict outcome, or the last conflict once the
// attempt budget is spent. Waiting between attempts honors ctx.
func (r txRunner) run(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = r.store.WithinTx(ctx, fn)
		if !errors.Is(err, secondary.ErrConflict) {
			return err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		r.metrics.IncClaimRetry()
		select {
		case <-time.After(time.Duration(attempt) * r.policy.Backoff):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
	}
	return err
}

// loadPolicy reads every setting and folds it into a Policy.
func loadPolicy(ctx context.Context, repo secondary.SettingsRepository) (settings.Policy, error) {
	records, err := repo.List(ctx)
	if err != nil {
		return settings.Policy{}, err
	}
	values := make(map[string]string, len(records))
	for _, r := range records {
		values[r.Key] = r.Value
	}
	return settings.FromValues(values), nil
}

// publish sends events after a commit. Delivery failures are logged and never
// fail the already committed operation.
func publish(ctx context.Context, b secondary.Broadcaster, logger secondary.Logger, events ...secondary.Event) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now().UTC()
	for _, e := range events {
		if e.At.IsZero() {
			e.At = now
		}
		if err := b.Publish(ctx, e); err != nil {
			logger.Warn("failed to publish change notification", "topic", e.Topic, "kind", e.Kind, "error", err)
		}
	}
}
