package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/claimhub/internal/adapters/broadcast"
	"github.com/example/claimhub/internal/adapters/memory"
	"github.com/example/claimhub/internal/adapters/sqlite"
	"github.com/example/claimhub/internal/db"
	"github.com/example/claimhub/internal/logging"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.Broadcaster = (*recordingBroadcaster)(nil)
	_ secondary.Transactor  = (*conflictStore)(nil)
	_ secondary.Metrics     = (*mockMetrics)(nil)
)

// recordingBroadcaster records published events for assertions.
type recordingBroadcaster struct {
	mu         sync.Mutex
	events     []secondary.Event
	publishErr error
}

func (b *recordingBroadcaster) Publish(_ context.Context, e secondary.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return b.publishErr
}

func (b *recordingBroadcaster) Subscribe(context.Context, func(secondary.Event)) (secondary.Subscription, error) {
	return nil, fmt.Errorf("not supported")
}

func (b *recordingBroadcaster) Close() error { return nil }

func (b *recordingBroadcaster) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Topic
	}
	return out
}

func (b *recordingBroadcaster) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// conflictStore fails the first `failures` transactions with ErrConflict.
type conflictStore struct {
	inner    secondary.Transactor
	mu       sync.Mutex
	failures int
	calls    int
}

func (c *conflictStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	c.mu.Lock()
	c.calls++
	fail := c.calls <= c.failures
	c.mu.Unlock()
	if fail {
		return fmt.Errorf("failed to begin transaction: %w", secondary.ErrConflict)
	}
	return c.inner.WithinTx(ctx, fn)
}

// mockMetrics counts observations.
type mockMetrics struct {
	mu       sync.Mutex
	results  map[string]int
	retries  int
	dropped  int
	adminOps map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{results: map[string]int{}, adminOps: map[string]int{}}
}

func (m *mockMetrics) ObserveClaim(result string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result]++
}

func (m *mockMetrics) IncClaimRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *mockMetrics) IncBroadcastDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *mockMetrics) IncAdminOp(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminOps[op]++
}

// ============================================================================
// Fixtures
// ============================================================================

// testRetry keeps conflict tests fast.
var testRetry = RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

// services bundles every service over one store.
type services struct {
	claims   *ClaimServiceImpl
	tasks    *TaskServiceImpl
	settings *SettingsServiceImpl
	views    *ViewServiceImpl
	events   *recordingBroadcaster
	metrics  *mockMetrics
}

func newServices(store secondary.Transactor) *services {
	events := &recordingBroadcaster{}
	metrics := newMockMetrics()
	locker := NewKeyedLocker()
	logger := logging.NewNop()

	return &services{
		claims:   NewClaimService(store, events, locker, testRetry, logger, metrics),
		tasks:    NewTaskService(store, events, locker, testRetry, logger, metrics),
		settings: NewSettingsService(store, events, testRetry, logger, metrics),
		views:    NewViewService(store, events, testRetry, logger, metrics),
		events:   events,
		metrics:  metrics,
	}
}

// newServicesWithHub wires the services to a real in-process hub.
func newServicesWithHub(t *testing.T, store secondary.Transactor) (*services, *broadcast.Hub) {
	t.Helper()
	metrics := newMockMetrics()
	hub := broadcast.NewHub(16, metrics, logging.NewNop())
	t.Cleanup(func() { hub.Close() })

	locker := NewKeyedLocker()
	logger := logging.NewNop()
	return &services{
		claims:   NewClaimService(store, hub, locker, testRetry, logger, metrics),
		tasks:    NewTaskService(store, hub, locker, testRetry, logger, metrics),
		settings: NewSettingsService(store, hub, testRetry, logger, metrics),
		views:    NewViewService(store, hub, testRetry, logger, metrics),
		events:   &recordingBroadcaster{},
		metrics:  metrics,
	}, hub
}

// storeFactories lets invariant tests run against every store implementation.
var storeFactories = map[string]func(t *testing.T) secondary.Transactor{
	"memory": func(t *testing.T) secondary.Transactor {
		return memory.NewStore()
	},
	"sqlite": func(t *testing.T) secondary.Transactor {
		t.Helper()
		conn, err := db.Open(filepath.Join(t.TempDir(), "claimhub.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { conn.Close() })
		return sqlite.NewStore(conn)
	},
}

// createTask creates a task or fails the test.
func createTask(t *testing.T, svc *TaskServiceImpl, name string, capacity int) string {
	t.Helper()
	resp, err := svc.CreateTask(context.Background(), primary.CreateTaskRequest{Name: name, Capacity: capacity})
	if err != nil {
		t.Fatalf("CreateTask(%s) failed: %v", name, err)
	}
	return resp.TaskID
}

// setDedup toggles duplicate protection or fails the test.
func setDedup(t *testing.T, svc *SettingsServiceImpl, enabled bool) {
	t.Helper()
	if _, err := svc.UpdatePolicy(context.Background(), primary.UpdatePolicyRequest{DedupEnabled: &enabled}); err != nil {
		t.Fatalf("UpdatePolicy failed: %v", err)
	}
}

func claimReq(taskID, name, device string) primary.ClaimRequest {
	return primary.ClaimRequest{TaskID: taskID, ParticipantName: name, DeviceID: device}
}
