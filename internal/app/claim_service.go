package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/claimhub/internal/core/claim"
	"github.com/example/claimhub/internal/ctxutil"
	"github.com/example/claimhub/internal/ports/primary"
	"github.com/example/claimhub/internal/ports/secondary"
	"github.com/example/claimhub/internal/tracing"
)

// ClaimServiceImpl implements the ClaimService interface.
//
// Every decision is made inside one store transaction while holding the
// in-process task and device locks, so capacity and per-device uniqueness
// hold no matter how many callers race. Notifications are published after
// commit, still under the task lock, which keeps per-task event order.
type ClaimServiceImpl struct {
	tx          txRunner
	broadcaster secondary.Broadcaster
	locker      *KeyedLocker
	logger      secondary.Logger
	metrics     secondary.Metrics

	newID func() string
	now   func() time.Time
}

// NewClaimService creates a new ClaimService with injected dependencies.
func NewClaimService(
	store secondary.Transactor,
	broadcaster secondary.Broadcaster,
	locker *KeyedLocker,
	retry RetryPolicy,
	logger secondary.Logger,
	metrics secondary.Metrics,
) *ClaimServiceImpl {
	return &ClaimServiceImpl{
		tx:          newTxRunner(store, retry, metrics),
		broadcaster: broadcaster,
		locker:      locker,
		logger:      logger,
		metrics:     metrics,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// TryClaim validates the request, then decides and records the claim atomically.
func (s *ClaimServiceImpl) TryClaim(ctx context.Context, req primary.ClaimRequest) (*primary.Assignment, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "claim.try")
	span.WithAttributes(map[string]string{"task_id": req.TaskID, "device_id": req.DeviceID})

	assignment, err := s.tryClaim(ctx, req)

	result := resultLabel(err)
	span.SetAttribute("claim.result", result)
	tracing.EndSpan(span, infraOnly(err))
	s.metrics.ObserveClaim(result, time.Since(start).Seconds())

	return assignment, err
}

func (s *ClaimServiceImpl) tryClaim(ctx context.Context, req primary.ClaimRequest) (*primary.Assignment, error) {
	guard := claim.ValidateRequest(claim.RequestContext{
		TaskID:          req.TaskID,
		ParticipantName: req.ParticipantName,
		DeviceID:        req.DeviceID,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	taskID := strings.TrimSpace(req.TaskID)
	deviceID := strings.TrimSpace(req.DeviceID)
	name := claim.NormalizeName(req.ParticipantName)
	actor := ctxutil.ActorFromContext(ctx)

	unlock, err := s.locker.Lock(ctx, TaskLockKey(taskID), DeviceLockKey(deviceID))
	if err != nil {
		return nil, claim.Unavailable("timed out waiting for task", err)
	}
	defer unlock()

	var (
		record       *secondary.AssignmentRecord
		dedupEnabled bool
	)
	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		policy, err := loadPolicy(ctx, repos.Settings)
		if err != nil {
			return fmt.Errorf("failed to read policy: %w", err)
		}
		dedupEnabled = policy.DedupEnabled

		decision := claim.ClaimContext{TaskID: taskID, DedupEnabled: policy.DedupEnabled}

		task, err := repos.Tasks.GetByID(ctx, taskID)
		switch {
		case errors.Is(err, secondary.ErrNotFound):
			return claim.CanClaim(decision).Error()
		case err != nil:
			return fmt.Errorf("failed to read task: %w", err)
		}
		decision.TaskExists = true
		decision.Capacity = task.Capacity

		if policy.DedupEnabled {
			existing, err := repos.Assignments.FindByDevice(ctx, deviceID)
			if err != nil {
				return fmt.Errorf("failed to check device: %w", err)
			}
			if existing != nil {
				decision.DeviceTaskID = existing.TaskID
			}
		}

		count, err := repos.Assignments.CountByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to count assignments: %w", err)
		}
		decision.AssignedCount = count

		if guard := claim.CanClaim(decision); !guard.Allowed {
			return guard.Error()
		}

		record = &secondary.AssignmentRecord{
			ID:              s.newID(),
			TaskID:          taskID,
			ParticipantName: name,
			DeviceID:        deviceID,
			CreatedAt:       s.now().UTC().Format(time.RFC3339Nano),
		}
		if err := repos.Assignments.Insert(ctx, record); err != nil {
			return fmt.Errorf("failed to record assignment: %w", err)
		}
		return nil
	})

	if err != nil {
		if claim.IsContention(err) {
			s.logger.Debug("claim rejected",
				"task_id", taskID, "device_id", deviceID, "actor", actor,
				"kind", claim.KindOf(err), "reason", err.Error())
			return nil, err
		}
		if claim.KindOf(err) != "" {
			s.logger.Info("claim refused",
				"task_id", taskID, "device_id", deviceID, "actor", actor,
				"kind", claim.KindOf(err), "reason", err.Error())
			return nil, err
		}
		s.logger.Error("claim failed", "task_id", taskID, "device_id", deviceID, "actor", actor, "error", err)
		if errors.Is(err, secondary.ErrConflict) {
			return nil, claim.Unavailable("store is busy, try again", err)
		}
		return nil, claim.Unavailable("failed to record claim", err)
	}

	events := []secondary.Event{{Topic: secondary.TaskTopic(taskID), Kind: secondary.EventAssignmentCreated}}
	if dedupEnabled {
		events = append(events, secondary.Event{Topic: secondary.DeviceTopic(deviceID), Kind: secondary.EventAssignmentCreated})
	}
	publish(ctx, s.broadcaster, s.logger, events...)

	s.logger.Info("claim recorded", "task_id", taskID, "assignment_id", record.ID, "actor", actor)
	return recordToAssignment(record), nil
}

// RemoveAssignment deletes one assignment, freeing its slot.
func (s *ClaimServiceImpl) RemoveAssignment(ctx context.Context, assignmentID string) error {
	ctx, span := tracing.StartSpan(ctx, "claim.remove_assignment")
	err := s.removeAssignment(ctx, assignmentID)
	tracing.EndSpan(span, infraOnly(err))
	return err
}

func (s *ClaimServiceImpl) removeAssignment(ctx context.Context, assignmentID string) error {
	notFound := &claim.Error{
		Kind:   claim.KindAssignmentNotFound,
		Reason: fmt.Sprintf("assignment %s not found", assignmentID),
	}

	var existing *secondary.AssignmentRecord
	err := s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		existing, err = repos.Assignments.GetByID(ctx, assignmentID)
		return err
	})
	if errors.Is(err, secondary.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return claim.Unavailable("failed to read assignment", err)
	}

	unlock, err := s.locker.Lock(ctx, TaskLockKey(existing.TaskID), DeviceLockKey(existing.DeviceID))
	if err != nil {
		return claim.Unavailable("timed out waiting for task", err)
	}
	defer unlock()

	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		return repos.Assignments.Delete(ctx, assignmentID)
	})
	if errors.Is(err, secondary.ErrNotFound) {
		return notFound
	}
	if err != nil {
		return claim.Unavailable("failed to remove assignment", err)
	}

	s.metrics.IncAdminOp("remove")
	publish(ctx, s.broadcaster, s.logger,
		secondary.Event{Topic: secondary.TaskTopic(existing.TaskID), Kind: secondary.EventAssignmentRemoved},
		secondary.Event{Topic: secondary.DeviceTopic(existing.DeviceID), Kind: secondary.EventAssignmentRemoved},
	)
	s.logger.Info("assignment removed",
		"assignment_id", assignmentID, "task_id", existing.TaskID, "actor", ctxutil.ActorFromContext(ctx))
	return nil
}

// ClearAssignments deletes every assignment of a task and returns how many were removed.
func (s *ClaimServiceImpl) ClearAssignments(ctx context.Context, taskID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "claim.clear_assignments")
	n, err := s.clearAssignments(ctx, strings.TrimSpace(taskID))
	tracing.EndSpan(span, infraOnly(err))
	return n, err
}

func (s *ClaimServiceImpl) clearAssignments(ctx context.Context, taskID string) (int, error) {
	if taskID == "" {
		return 0, &claim.Error{Kind: claim.KindInvalidInput, Reason: "task id is required"}
	}

	unlock, err := s.locker.Lock(ctx, TaskLockKey(taskID))
	if err != nil {
		return 0, claim.Unavailable("timed out waiting for task", err)
	}
	defer unlock()

	var (
		removed int
		devices []string
	)
	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		if _, err := repos.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		held, err := repos.Assignments.List(ctx, secondary.AssignmentFilters{TaskID: taskID})
		if err != nil {
			return err
		}
		devices = devices[:0]
		for _, a := range held {
			devices = append(devices, a.DeviceID)
		}
		removed, err = repos.Assignments.DeleteByTask(ctx, taskID)
		return err
	})
	if errors.Is(err, secondary.ErrNotFound) {
		return 0, &claim.Error{Kind: claim.KindTaskNotFound, TaskID: taskID, Reason: fmt.Sprintf("task %s not found", taskID)}
	}
	if err != nil {
		return 0, claim.Unavailable("failed to clear assignments", err)
	}

	s.metrics.IncAdminOp("clear")
	events := []secondary.Event{{Topic: secondary.TaskTopic(taskID), Kind: secondary.EventTaskCleared}}
	for _, d := range devices {
		events = append(events, secondary.Event{Topic: secondary.DeviceTopic(d), Kind: secondary.EventTaskCleared})
	}
	publish(ctx, s.broadcaster, s.logger, events...)

	s.logger.Info("assignments cleared", "task_id", taskID, "removed", removed, "actor", ctxutil.ActorFromContext(ctx))
	return removed, nil
}

// ResetAll deletes every assignment and then every task. No claim can
// interleave with it.
func (s *ClaimServiceImpl) ResetAll(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "claim.reset_all")
	err := s.resetAll(ctx)
	tracing.EndSpan(span, err)
	return err
}

func (s *ClaimServiceImpl) resetAll(ctx context.Context) error {
	unlock, err := s.locker.LockAll(ctx)
	if err != nil {
		return claim.Unavailable("reset cancelled", err)
	}
	defer unlock()

	var assignments, tasks int
	err = s.tx.run(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		var err error
		if assignments, err = repos.Assignments.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete assignments: %w", err)
		}
		if tasks, err = repos.Tasks.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("reset failed", "error", err)
		return claim.Unavailable("failed to reset", err)
	}

	s.metrics.IncAdminOp("reset")
	publish(ctx, s.broadcaster, s.logger,
		secondary.Event{Topic: secondary.AllTasksTopic, Kind: secondary.EventReset},
		secondary.Event{Topic: secondary.SettingsTopic, Kind: secondary.EventReset},
	)
	s.logger.Info("all data reset",
		"assignments", assignments, "tasks", tasks, "actor", ctxutil.ActorFromContext(ctx))
	return nil
}

// resultLabel maps a TryClaim outcome to a metrics label.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	if k := claim.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

// infraOnly hides expected outcomes from span status.
func infraOnly(err error) error {
	if err == nil || claim.KindOf(err).Category() != claim.CategoryInfrastructure {
		return nil
	}
	return err
}

// Helper functions

func recordToAssignment(r *secondary.AssignmentRecord) *primary.Assignment {
	return &primary.Assignment{
		ID:              r.ID,
		TaskID:          r.TaskID,
		ParticipantName: r.ParticipantName,
		DeviceID:        r.DeviceID,
		CreatedAt:       r.CreatedAt,
	}
}
