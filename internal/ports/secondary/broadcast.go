package secondary

import (
	"context"
	"strings"
	"time"
)

// Topic prefixes and fixed topics used for change notifications.
const (
	TaskTopicPrefix   = "task:"
	DeviceTopicPrefix = "device:"
	SettingsTopic     = "settings"
	// AllTasksTopic signals that every task changed (reset).
	AllTasksTopic = "task:*"
)

// EventKind describes what happened. Observers treat every kind as
// "something changed, re-fetch".
type EventKind string

const (
	EventAssignmentCreated EventKind = "assignment_created"
	EventAssignmentRemoved EventKind = "assignment_removed"
	EventTaskCleared       EventKind = "task_cleared"
	EventTaskChanged       EventKind = "task_changed"
	EventReset             EventKind = "reset"
	EventSettingsChanged   EventKind = "settings_changed"
)

// Event is a payload-less change notification.
type Event struct {
	Topic string    `json:"topic"`
	Kind  EventKind `json:"kind"`
	At    time.Time `json:"at"`
}

// Broadcaster delivers change notifications to subscribers.
//
// Delivery is at-least-once with no ordering across topics. Events published
// from one goroutine to the same topic arrive in publish order.
type Broadcaster interface {
	// Publish sends event to every current subscriber. It must not block on
	// slow subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers handler for every event until the subscription is
	// cancelled or ctx is done.
	Subscribe(ctx context.Context, handler func(Event)) (Subscription, error)

	// Close stops delivery and releases resources.
	Close() error
}

// Subscription is a handle to a registered handler.
type Subscription interface {
	Unsubscribe() error
}

// TaskTopic returns the topic for changes scoped to one task.
func TaskTopic(taskID string) string {
	return TaskTopicPrefix + taskID
}

// DeviceTopic returns the topic for changes scoped to one device.
func DeviceTopic(deviceID string) string {
	return DeviceTopicPrefix + deviceID
}

// TopicKind returns "task", "device" or "settings" for a topic.
func TopicKind(topic string) string {
	switch {
	case strings.HasPrefix(topic, TaskTopicPrefix):
		return "task"
	case strings.HasPrefix(topic, DeviceTopicPrefix):
		return "device"
	default:
		return topic
	}
}
