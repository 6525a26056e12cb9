package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/example/claimhub/internal/logging"
	"github.com/example/claimhub/internal/ports/secondary"
)

// startEmbeddedNATS starts an in-process NATS server on a random port.
func startEmbeddedNATS(t *testing.T) *server.Server {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:  "127.0.0.1",
		Port:  -1,
		NoLog: true,
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server not ready within timeout")
	}
	t.Cleanup(ns.Shutdown)

	return ns
}

func TestNATS_PublishSubscribe(t *testing.T) {
	ns := startEmbeddedNATS(t)

	pub, err := DialNATS(ns.ClientURL(), "test.events", logging.NewNop())
	require.NoError(t, err)
	defer pub.Close()

	sub, err := DialNATS(ns.ClientURL(), "test.events", logging.NewNop())
	require.NoError(t, err)
	defer sub.Close()

	var rec recorder
	handle, err := sub.Subscribe(context.Background(), rec.handle)
	require.NoError(t, err)
	defer handle.Unsubscribe()

	ctx := context.Background()
	want := []string{"task:T1", "device:d1", "task:T1", "settings", "task:*"}
	for _, topic := range want {
		require.NoError(t, pub.Publish(ctx, secondary.Event{Topic: topic, Kind: secondary.EventAssignmentCreated}))
	}

	require.Eventually(t, func() bool { return len(rec.topics()) == len(want) }, 2*time.Second, 10*time.Millisecond)

	// Order is only guaranteed per subject.
	var tasks []string
	for _, topic := range rec.topics() {
		if secondary.TopicKind(topic) == "task" {
			tasks = append(tasks, topic)
		}
	}
	require.Equal(t, []string{"task:T1", "task:T1", "task:*"}, tasks)
}

func TestNATS_SubjectMapping(t *testing.T) {
	b := NewNATS(nil, "", logging.NewNop())

	require.Equal(t, "claimhub.events.task", b.Subject("task:T1"))
	require.Equal(t, "claimhub.events.device", b.Subject("device:abc"))
	require.Equal(t, "claimhub.events.settings", b.Subject(secondary.SettingsTopic))
	require.NoError(t, b.Close(), "borrowed connections are not closed")
}

func TestNATS_IgnoresMalformedPayload(t *testing.T) {
	ns := startEmbeddedNATS(t)

	conn, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer conn.Close()

	b := NewNATS(conn, "bad.events", logging.NewNop())

	var rec recorder
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = b.Subscribe(ctx, rec.handle)
	require.NoError(t, err)

	require.NoError(t, conn.Publish("bad.events.task", []byte("not json")))
	require.NoError(t, b.Publish(context.Background(), secondary.Event{Topic: "task:T2"}))

	require.Eventually(t, func() bool { return len(rec.topics()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"task:T2"}, rec.topics())
}
