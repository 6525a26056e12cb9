// Package metrics provides secondary.Metrics implementations.
package metrics

import "github.com/example/claimhub/internal/ports/secondary"

// NopMetrics discards every observation.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements Metrics.
var _ secondary.Metrics = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ObserveClaim discards the claim observation.
func (n *NopMetrics) ObserveClaim(_ /* result */ string, _ /* seconds */ float64) {}

// IncClaimRetry discards the retry count.
func (n *NopMetrics) IncClaimRetry() {}

// IncBroadcastDropped discards the drop count.
func (n *NopMetrics) IncBroadcastDropped() {}

// IncAdminOp discards the admin operation.
func (n *NopMetrics) IncAdminOp(_ /* op */ string) {}
