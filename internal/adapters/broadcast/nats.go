package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/claimhub/internal/ports/secondary"
)

// DefaultSubjectPrefix is the subject root used when none is configured.
const DefaultSubjectPrefix = "claimhub.events"

// NATS is a broadcaster that fans events out through a NATS server, letting
// several processes sharing one database observe each other's changes.
//
// Events are published on "<prefix>.<kind>" where kind is task, device or
// settings; the topic travels in the JSON body. NATS keeps per-publisher
// order on a subject, so per-task order from one process is preserved.
type NATS struct {
	conn     *nats.Conn
	prefix   string
	ownsConn bool
	logger   secondary.Logger
}

var _ secondary.Broadcaster = (*NATS)(nil)

// NewNATS wraps an existing connection. The caller keeps ownership of conn.
func NewNATS(conn *nats.Conn, prefix string, logger secondary.Logger) *NATS {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATS{conn: conn, prefix: prefix, logger: logger}
}

// DialNATS connects to url and returns a broadcaster that owns the connection.
func DialNATS(url, prefix string, logger secondary.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("claimhub"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}

	b := NewNATS(conn, prefix, logger)
	b.ownsConn = true
	return b, nil
}

// Subject returns the NATS subject used for topic.
func (b *NATS) Subject(topic string) string {
	return b.prefix + "." + secondary.TopicKind(topic)
}

// Publish sends event to the server. It does not wait for subscribers.
func (b *NATS) Publish(_ context.Context, event secondary.Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.conn.Publish(b.Subject(event.Topic), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Topic, err)
	}
	return nil
}

// Subscribe listens on every subject under the prefix. The subscription is
// registered with the server before Subscribe returns.
func (b *NATS) Subscribe(ctx context.Context, handler func(secondary.Event)) (secondary.Subscription, error) {
	sub, err := b.conn.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		var event secondary.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.logger.Warn("ignoring malformed event", "subject", msg.Subject, "error", err)
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := b.conn.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("failed to register subscription: %w", err)
	}

	handle := &natsSubscription{sub: sub, stop: make(chan struct{})}
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				handle.Unsubscribe()
			case <-handle.stop:
			}
		}()
	}
	return handle, nil
}

// Close drains the connection if this broadcaster owns it.
func (b *NATS) Close() error {
	if !b.ownsConn {
		return nil
	}
	return b.conn.Drain()
}

type natsSubscription struct {
	sub  *nats.Subscription
	stop chan struct{}
	once sync.Once
}

func (s *natsSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		if s.sub.IsValid() {
			err = s.sub.Unsubscribe()
		}
	})
	return err
}
