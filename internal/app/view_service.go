package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/claimhub/internal/core/view"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
)

// ViewServiceImpl implements the ViewService interface.
// Boards are recomputed from the store on every call.
type ViewServiceImpl struct {
	tx          txRunner
	broadcaster secondary.Broadcaster
	logger      secondary.Logger
}

// NewViewService creates a new ViewService with injected dependencies.
func NewViewService(
	store secondary.Transactor,
	broadcaster secondary.Broadcaster,
	retry RetryPolicy,
	logger secondary.Logger,
	metrics secondary.Metrics,
) *ViewServiceImpl {
	return &ViewServiceImpl{
		tx:          newTxRunner(store, retry, metrics),
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Board reads one consistent snapshot and projects it for deviceID.
func (s *ViewServiceImpl) Board(ctx context.Context, deviceID string) (*primary.Board, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return boardToPrimary(view.ProjectBoard(snap, deviceID)), nil
}

// Watch renders a board now and again after every relevant notification.
// Notifications arriving while a board is being rebuilt collapse into one
// re-fetch. It returns when ctx is done.
func (s *ViewServiceImpl) Watch(ctx context.Context, deviceID string, fn func(*primary.Board)) error {
	pending := make(chan struct{}, 1)
	sub, err := s.broadcaster.Subscribe(ctx, func(e secondary.Event) {
		if !relevant(e, deviceID) {
			return
		}
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	render := func() error {
		board, err := s.Board(ctx, deviceID)
		if err != nil {
			return err
		}
		fn(board)
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pending:
			if err := render(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("failed to refresh board", "error", err)
			}
		}
	}
}

func (s *ViewServiceImpl) snapshot(ctx context.Context) (view.Snapshot, error) {
	var snap view.Snapshot
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		policy, err := loadPolicy(ctx, repos.Settings)
		if err != nil {
			return err
		}
		tasks, err := repos.Tasks.List(ctx)
		if err != nil {
			return err
		}
		assignments, err := repos.Assignments.List(ctx, secondary.AssignmentFilters{})
		if err != nil {
			return err
		}

		snap = view.Snapshot{
			Tasks:       make([]view.TaskInput, len(tasks)),
			Assignments: make([]view.AssignmentInput, len(assignments)),
			Policy:      policy,
		}
		for i, t := range tasks {
			snap.Tasks[i] = view.TaskInput{ID: t.ID, Name: t.Name, Subtitle: t.Subtitle, Capacity: t.Capacity}
		}
		for i, a := range assignments {
			snap.Assignments[i] = view.AssignmentInput{TaskID: a.TaskID, DeviceID: a.DeviceID}
		}
		return nil
	})
	if err != nil {
		return view.Snapshot{}, fmt.Errorf("failed to read board: %w", err)
	}
	return snap, nil
}

// relevant drops device notifications meant for other devices.
func relevant(e secondary.Event, deviceID string) bool {
	if strings.HasPrefix(e.Topic, secondary.DeviceTopicPrefix) {
		return deviceID != "" && e.Topic == secondary.DeviceTopic(deviceID)
	}
	return true
}

func boardToPrimary(b view.Board) *primary.Board {
	out := &primary.Board{
		Title:        b.Title,
		Instructions: b.Instructions,
		DedupEnabled: b.DedupEnabled,
		Tasks:        make([]primary.TaskState, len(b.Tasks)),
		Device: primary.DeviceState{
			DeviceID:         b.Device.DeviceID,
			AssignedTaskID:   b.Device.AssignedTaskID,
			AssignedTaskName: b.Device.AssignedTaskName,
		},
		TotalCapacity: b.TotalCapacity,
		TotalClaimed:  b.TotalClaimed,
	}
	for i, t := range b.Tasks {
		out.Tasks[i] = primary.TaskState{
			TaskID:    t.TaskID,
			Name:      t.Name,
			Subtitle:  t.Subtitle,
			Capacity:  t.Capacity,
			Claimed:   t.Claimed,
			Remaining: t.Remaining,
			IsFull:    t.IsFull,
		}
	}
	return out
}
