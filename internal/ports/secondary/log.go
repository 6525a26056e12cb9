package secondary

import "context"

// Logger is the structured logger used by services and adapters.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Metrics records claim engine and broadcaster observations.
type Metrics interface {
	// ObserveClaim records the outcome of one TryClaim call and its duration in seconds.
	ObserveClaim(result string, seconds float64)

	// IncClaimRetry records one retried claim transaction.
	IncClaimRetry()

	// IncBroadcastDropped records a notification dropped for a slow subscriber.
	IncBroadcastDropped()

	// IncAdminOp records an administrative operation (clear, remove, reset, ...).
	IncAdminOp(op string)
}

// FingerprintSource produces a best-effort opaque device identifier.
// Values are not guaranteed unique and may change between sessions.
type FingerprintSource interface {
	DeviceID(ctx context.Context) (string, error)
}
