package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/claimhub/internal/core/task"
	"github.com/example/claimhub/internal/ctxutil"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
	"github.com/example/claimhub/internal/tracing"
)

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	tx          txRunner
	broadcaster secondary.Broadcaster
	locker      *KeyedLocker
	logger      secondary.Logger
	metrics     secondary.Metrics
}

// NewTaskService creates a new TaskService with injected dependencies.
func NewTaskService(
	store secondary.Transactor,
	broadcaster secondary.Broadcaster,
	locker *KeyedLocker,
	retry RetryPolicy,
	logger secondary.Logger,
	metrics secondary.Metrics,
) *TaskServiceImpl {
	return &TaskServiceImpl{
		tx:          newTxRunner(store, retry, metrics),
		broadcaster: broadcaster,
		locker:      locker,
		logger:      logger,
		metrics:     metrics,
	}
}

// CreateTask creates a new task.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, req primary.CreateTaskRequest) (*primary.CreateTaskResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "task.create")
	defer tracing.EndSpan(span, nil)

	name := strings.TrimSpace(req.Name)
	guard := task.CanCreateTask(task.CreateTaskContext{Name: name, Capacity: req.Capacity})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	var created *secondary.TaskRecord
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		nextID, err := repos.Tasks.GetNextID(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate task ID: %w", err)
		}

		record := &secondary.TaskRecord{
			ID:       nextID,
			Name:     name,
			Subtitle: strings.TrimSpace(req.Subtitle),
			Capacity: req.Capacity,
		}
		if err := repos.Tasks.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		created, err = repos.Tasks.GetByID(ctx, nextID)
		if err != nil {
			return fmt.Errorf("failed to fetch created task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAdminOp("task_create")
	publish(ctx, s.broadcaster, s.logger, secondary.Event{Topic: secondary.TaskTopic(created.ID), Kind: secondary.EventTaskChanged})
	s.logger.Info("task created", "task_id", created.ID, "capacity", created.Capacity, "actor", ctxutil.ActorFromContext(ctx))

	return &primary.CreateTaskResponse{
		TaskID: created.ID,
		Task:   recordToTask(created),
	}, nil
}

// GetTask retrieves a task by ID.
func (s *TaskServiceImpl) GetTask(ctx context.Context, taskID string) (*primary.Task, error) {
	var record *secondary.TaskRecord
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		record, err = repos.Tasks.GetByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recordToTask(record), nil
}

// ListTasks lists all tasks, oldest first.
func (s *TaskServiceImpl) ListTasks(ctx context.Context) ([]*primary.Task, error) {
	var records []*secondary.TaskRecord
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		records, err = repos.Tasks.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]*primary.Task, len(records))
	for i, r := range records {
		tasks[i] = recordToTask(r)
	}
	return tasks, nil
}

// UpdateTask updates a task. Lowering capacity below the number of current
// assignments is allowed; the task then simply reads as full.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, req primary.UpdateTaskRequest) error {
	ctx, span := tracing.StartSpan(ctx, "task.update")
	defer tracing.EndSpan(span, nil)

	taskID := strings.TrimSpace(req.TaskID)
	unlock, err := s.locker.Lock(ctx, TaskLockKey(taskID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		record, err := repos.Tasks.GetByID(ctx, taskID)
		if err != nil && !errors.Is(err, secondary.ErrNotFound) {
			return err
		}

		guard := task.CanUpdateTask(task.UpdateTaskContext{
			TaskID:     taskID,
			TaskExists: record != nil,
			Capacity:   req.Capacity,
		})
		if err := guard.Error(); err != nil {
			return err
		}

		if name := strings.TrimSpace(req.Name); name != "" {
			record.Name = name
		}
		if req.Subtitle != "" {
			record.Subtitle = strings.TrimSpace(req.Subtitle)
		}
		if req.Capacity != nil {
			record.Capacity = *req.Capacity
		}
		return repos.Tasks.Update(ctx, record)
	})
	if err != nil {
		return err
	}

	s.metrics.IncAdminOp("task_update")
	publish(ctx, s.broadcaster, s.logger, secondary.Event{Topic: secondary.TaskTopic(taskID), Kind: secondary.EventTaskChanged})
	return nil
}

// DeleteTask deletes a task together with its assignments.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, taskID string) error {
	ctx, span := tracing.StartSpan(ctx, "task.delete")
	defer tracing.EndSpan(span, nil)

	taskID = strings.TrimSpace(taskID)
	unlock, err := s.locker.Lock(ctx, TaskLockKey(taskID))
	if err != nil {
		return err
	}
	defer unlock()

	var devices []string
	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		held, err := repos.Assignments.List(ctx, secondary.AssignmentFilters{TaskID: taskID})
		if err != nil {
			return err
		}
		devices = devices[:0]
		for _, a := range held {
			devices = append(devices, a.DeviceID)
		}
		return repos.Tasks.Delete(ctx, taskID)
	})
	if err != nil {
		return err
	}

	s.metrics.IncAdminOp("task_delete")
	events := []secondary.Event{{Topic: secondary.TaskTopic(taskID), Kind: secondary.EventTaskChanged}}
	for _, d := range devices {
		events = append(events, secondary.Event{Topic: secondary.DeviceTopic(d), Kind: secondary.EventAssignmentRemoved})
	}
	publish(ctx, s.broadcaster, s.logger, events...)
	s.logger.Info("task deleted", "task_id", taskID, "assignments", len(devices), "actor", ctxutil.ActorFromContext(ctx))
	return nil
}

// ListAssignments lists the assignments of a task, oldest first. An empty
// taskID lists every assignment.
func (s *TaskServiceImpl) ListAssignments(ctx context.Context, taskID string) ([]*primary.Assignment, error) {
	var records []*secondary.AssignmentRecord
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if taskID != "" {
			if _, err := repos.Tasks.GetByID(ctx, taskID); err != nil {
				return err
			}
		}
		var err error
		records, err = repos.Assignments.List(ctx, secondary.AssignmentFilters{TaskID: taskID})
		return err
	})
	if err != nil {
		return nil, err
	}

	assignments := make([]*primary.Assignment, len(records))
	for i, r := range records {
		assignments[i] = recordToAssignment(r)
	}
	return assignments, nil
}

// Helper functions

func recordToTask(r *secondary.TaskRecord) *primary.Task {
	return &primary.Task{
		ID:        r.ID,
		Name:      r.Name,
		Subtitle:  r.Subtitle,
		Capacity:  r.Capacity,
		CreatedAt: r.CreatedAt,
	}
}
