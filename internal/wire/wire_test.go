package wire

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"

	"github.com/example/claimhub/internal/config"
	"github.com/example/claimhub/internal/core/claim"
	"github.com/example/claimhub/internal/ports/primary"
)

func newContainer(t *testing.T, mutate func(*config.Config)) *Container {
	t.Helper()

	cfg := config.Default(t.TempDir())
	if mutate != nil {
		mutate(cfg)
	}

	c, err := New(cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestNew_EndToEnd(t *testing.T) {
	c := newContainer(t, nil)
	ctx := context.Background()

	resp, err := c.TaskService.CreateTask(ctx, primary.CreateTaskRequest{Name: "Kitchen", Capacity: 1})
	require.NoError(t, err)

	_, err = c.ClaimService.TryClaim(ctx, primary.ClaimRequest{TaskID: resp.TaskID, ParticipantName: "Ana", DeviceID: "d1"})
	require.NoError(t, err)

	_, err = c.ClaimService.TryClaim(ctx, primary.ClaimRequest{TaskID: resp.TaskID, ParticipantName: "Ben", DeviceID: "d2"})
	require.ErrorIs(t, err, claim.ErrTaskFull)

	board, err := c.ViewService.Board(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, board.Tasks, 1)
	require.True(t, board.Tasks[0].IsFull)
	require.Equal(t, resp.TaskID, board.Device.AssignedTaskID)
	require.Nil(t, c.Registry)
}

func TestNew_MetricsEnabled(t *testing.T) {
	c := newContainer(t, func(cfg *config.Config) { cfg.Metrics.Addr = "127.0.0.1:0" })
	require.NotNil(t, c.Registry)

	_, err := c.ClaimService.TryClaim(context.Background(), primary.ClaimRequest{TaskID: "TASK-404", ParticipantName: "Ana", DeviceID: "d1"})
	require.ErrorIs(t, err, claim.ErrTaskNotFound)

	families, err := c.Registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "claimhub_claims_total" {
			found = true
		}
	}
	require.True(t, found, "claims counter not registered")
}

func TestNew_NATSBroadcast(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true})
	require.NoError(t, err)
	go ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(5*time.Second))

	c := newContainer(t, func(cfg *config.Config) {
		cfg.Broadcast.Driver = config.DriverNATS
		cfg.Broadcast.NATSURL = ns.ClientURL()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boards := make(chan *primary.Board, 8)
	go c.ViewService.Watch(ctx, "", func(b *primary.Board) { boards <- b })

	select {
	case <-boards:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial board")
	}

	_, err = c.TaskService.CreateTask(context.Background(), primary.CreateTaskRequest{Name: "Doors", Capacity: 2})
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case b := <-boards:
			if len(b.Tasks) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("watch did not observe the new task")
		}
	}
}

func TestContainer_ResolveDeviceID(t *testing.T) {
	c := newContainer(t, nil)
	ctx := context.Background()

	a, err := c.ResolveDeviceID(ctx)
	require.NoError(t, err)
	b, err := c.ResolveDeviceID(ctx)
	require.NoError(t, err)
	require.Equal(t, a, b, "stable fingerprint expected while dedup is on")

	off := false
	_, err = c.SettingsService.UpdatePolicy(ctx, primary.UpdatePolicyRequest{DedupEnabled: &off})
	require.NoError(t, err)

	a, err = c.ResolveDeviceID(ctx)
	require.NoError(t, err)
	b, err = c.ResolveDeviceID(ctx)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestNew_MemoryStore(t *testing.T) {
	c := newContainer(t, func(cfg *config.Config) {
		cfg.Database.Driver = config.DriverMemory
		cfg.Database.Path = ""
	})

	resp, err := c.TaskService.CreateTask(context.Background(), primary.CreateTaskRequest{Name: "Kitchen", Capacity: 2})
	require.NoError(t, err)
	require.Equal(t, "TASK-001", resp.TaskID)

	policy, err := c.SettingsService.GetPolicy(context.Background())
	require.NoError(t, err)
	require.True(t, policy.DedupEnabled)
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Log.Level = "loud"

	_, err := New(cfg, io.Discard)
	require.Error(t, err)
}
