package cli

import (
	"context"

	"github.com/example/claimhub/internal/core/claim"
	"github.com/example/claimhub/internal/ports/primary"
)

// mockTaskService implements primary.TaskService for testing
type mockTaskService struct {
	tasks       map[string]*primary.Task
	assignments []*primary.Assignment
	err         error

	// Track calls for verification
	lastCreateReq primary.CreateTaskRequest
	lastUpdateReq primary.UpdateTaskRequest
	deleted       []string
}

func newMockTaskService(tasks ...*primary.Task) *mockTaskService {
	m := &mockTaskService{tasks: map[string]*primary.Task{}}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *mockTaskService) CreateTask(ctx context.Context, req primary.CreateTaskRequest) (*primary.CreateTaskResponse, error) {
	m.lastCreateReq = req
	if m.err != nil {
		return nil, m.err
	}
	task := &primary.Task{ID: "TASK-001", Name: req.Name, Subtitle: req.Subtitle, Capacity: req.Capacity}
	return &primary.CreateTaskResponse{TaskID: task.ID, Task: task}, nil
}

func (m *mockTaskService) GetTask(ctx context.Context, taskID string) (*primary.Task, error) {
	if t, ok := m.tasks[taskID]; ok {
		return t, nil
	}
	return nil, &claim.Error{Kind: claim.KindTaskNotFound, TaskID: taskID}
}

func (m *mockTaskService) ListTasks(ctx context.Context) ([]*primary.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*primary.Task
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, req primary.UpdateTaskRequest) error {
	m.lastUpdateReq = req
	return m.err
}

func (m *mockTaskService) DeleteTask(ctx context.Context, taskID string) error {
	m.deleted = append(m.deleted, taskID)
	return m.err
}

func (m *mockTaskService) ListAssignments(ctx context.Context, taskID string) ([]*primary.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*primary.Assignment
	for _, a := range m.assignments {
		if taskID == "" || a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

// mockClaimService implements primary.ClaimService for testing
type mockClaimService struct {
	claimErr  error
	removeErr error
	clearErr  error
	resetErr  error
	cleared   int

	lastReq primary.ClaimRequest
	resets  int
}

func (m *mockClaimService) TryClaim(ctx context.Context, req primary.ClaimRequest) (*primary.Assignment, error) {
	m.lastReq = req
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	return &primary.Assignment{ID: "a-1", TaskID: req.TaskID, ParticipantName: req.ParticipantName, DeviceID: req.DeviceID}, nil
}

func (m *mockClaimService) RemoveAssignment(ctx context.Context, assignmentID string) error {
	return m.removeErr
}

func (m *mockClaimService) ClearAssignments(ctx context.Context, taskID string) (int, error) {
	return m.cleared, m.clearErr
}

func (m *mockClaimService) ResetAll(ctx context.Context) error {
	m.resets++
	return m.resetErr
}

// mockSettingsService implements primary.SettingsService for testing
type mockSettingsService struct {
	policy  primary.Policy
	lastReq primary.UpdatePolicyRequest
}

func (m *mockSettingsService) GetPolicy(ctx context.Context) (*primary.Policy, error) {
	p := m.policy
	return &p, nil
}

func (m *mockSettingsService) SetPolicy(ctx context.Context, policy primary.Policy) error {
	m.policy = policy
	return nil
}

func (m *mockSettingsService) UpdatePolicy(ctx context.Context, req primary.UpdatePolicyRequest) (*primary.Policy, error) {
	m.lastReq = req
	if req.DedupEnabled != nil {
		m.policy.DedupEnabled = *req.DedupEnabled
	}
	if req.Title != nil {
		m.policy.Title = *req.Title
	}
	if req.Instructions != nil {
		m.policy.Instructions = *req.Instructions
	}
	p := m.policy
	return &p, nil
}

// mockViewService implements primary.ViewService for testing
type mockViewService struct {
	board   *primary.Board
	updates []*primary.Board
}

func (m *mockViewService) Board(ctx context.Context, deviceID string) (*primary.Board, error) {
	return m.board, nil
}

func (m *mockViewService) Watch(ctx context.Context, deviceID string, fn func(*primary.Board)) error {
	fn(m.board)
	for _, b := range m.updates {
		fn(b)
	}
	return context.Canceled
}
