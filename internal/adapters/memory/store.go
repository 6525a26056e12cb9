// Package memory provides an in-memory transactional implementation of the
// persistence ports. It is used by tests and by single-process deployments
// that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/claimhub/internal/core/settings"
	"github.com/example/claimhub/internal/ports/secondary"
)

type taskRow struct {
	rec secondary.TaskRecord
	seq uint64
}

type assignmentRow struct {
	rec secondary.AssignmentRecord
	seq uint64
}

type state struct {
	tasks       map[string]taskRow
	assignments map[string]assignmentRow
	settings    map[string]secondary.SettingRecord
	seq         uint64
}

func newState() *state {
	return &state{
		tasks:       map[string]taskRow{},
		assignments: map[string]assignmentRow{},
		settings:    map[string]secondary.SettingRecord{},
	}
}

func (s *state) clone() *state {
	c := &state{
		tasks:       make(map[string]taskRow, len(s.tasks)),
		assignments: make(map[string]assignmentRow, len(s.assignments)),
		settings:    make(map[string]secondary.SettingRecord, len(s.settings)),
		seq:         s.seq,
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

func (s *state) next() uint64 {
	s.seq++
	return s.seq
}

// Store is an in-memory secondary.Store. Transactions are serialized by a
// single mutex and applied copy-on-write, so a failing unit of work leaves no
// trace.
type Store struct {
	mu     sync.Mutex
	state  *state
	closed bool
}

var _ secondary.Store = (*Store)(nil)

// NewStore returns an empty store seeded with default settings.
func NewStore() *Store {
	st := newState()
	now := nowString()
	for k, v := range settings.Default().Values() {
		st.settings[k] = secondary.SettingRecord{Key: k, Value: v, UpdatedAt: now}
	}
	return &Store{state: st}
}

// WithinTx runs fn against a private copy of the state and publishes the copy
// when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("memory store is closed")
	}

	work := s.state.clone()
	repos := secondary.Repositories{
		Tasks:       &taskRepository{st: work},
		Assignments: &assignmentRepository{st: work},
		Settings:    &settingsRepository{st: work},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	s.state = work
	return nil
}

// Close marks the store closed. Subsequent transactions fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type taskRepository struct {
	st *state
}

func (r *taskRepository) Create(_ context.Context, task *secondary.TaskRecord) error {
	if _, exists := r.st.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	if task.Capacity < 1 {
		return fmt.Errorf("task %s: capacity must be at least 1", task.ID)
	}
	rec := *task
	if rec.CreatedAt == "" {
		rec.CreatedAt = nowString()
	}
	r.st.tasks[rec.ID] = taskRow{rec: rec, seq: r.st.next()}
	return nil
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*secondary.TaskRecord, error) {
	row, ok := r.st.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}
	rec := row.rec
	return &rec, nil
}

func (r *taskRepository) List(_ context.Context) ([]*secondary.TaskRecord, error) {
	rows := make([]taskRow, 0, len(r.st.tasks))
	for _, row := range r.st.tasks {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*secondary.TaskRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.rec
		out = append(out, &rec)
	}
	return out, nil
}

func (r *taskRepository) Update(_ context.Context, task *secondary.TaskRecord) error {
	row, ok := r.st.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task %s: %w", task.ID, secondary.ErrNotFound)
	}
	if task.Capacity < 1 {
		return fmt.Errorf("task %s: capacity must be at least 1", task.ID)
	}
	row.rec.Name = task.Name
	row.rec.Subtitle = task.Subtitle
	row.rec.Capacity = task.Capacity
	r.st.tasks[task.ID] = row
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.st.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, secondary.ErrNotFound)
	}
	delete(r.st.tasks, id)
	for aid, a := range r.st.assignments {
		if a.rec.TaskID == id {
			delete(r.st.assignments, aid)
		}
	}
	return nil
}

func (r *taskRepository) DeleteAll(_ context.Context) (int, error) {
	n := len(r.st.tasks)
	r.st.tasks = map[string]taskRow{}
	r.st.assignments = map[string]assignmentRow{}
	return n, nil
}

func (r *taskRepository) GetNextID(_ context.Context) (string, error) {
	maxID := 0
	for id := range r.st.tasks {
		var n int
		if _, err := fmt.Sscanf(id, "TASK-%d", &n); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("TASK-%03d", maxID+1), nil
}

type assignmentRepository struct {
	st *state
}

func (r *assignmentRepository) Insert(_ context.Context, a *secondary.AssignmentRecord) error {
	if _, exists := r.st.assignments[a.ID]; exists {
		return fmt.Errorf("assignment %s already exists", a.ID)
	}
	if _, ok := r.st.tasks[a.TaskID]; !ok {
		return fmt.Errorf("assignment %s references unknown task %s", a.ID, a.TaskID)
	}
	rec := *a
	if rec.CreatedAt == "" {
		rec.CreatedAt = nowString()
	}
	r.st.assignments[rec.ID] = assignmentRow{rec: rec, seq: r.st.next()}
	return nil
}

func (r *assignmentRepository) GetByID(_ context.Context, id string) (*secondary.AssignmentRecord, error) {
	row, ok := r.st.assignments[id]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", id, secondary.ErrNotFound)
	}
	rec := row.rec
	return &rec, nil
}

func (r *assignmentRepository) List(_ context.Context, filters secondary.AssignmentFilters) ([]*secondary.AssignmentRecord, error) {
	return r.matching(func(a secondary.AssignmentRecord) bool {
		if filters.TaskID != "" && a.TaskID != filters.TaskID {
			return false
		}
		if filters.DeviceID != "" && a.DeviceID != filters.DeviceID {
			return false
		}
		return true
	}), nil
}

func (r *assignmentRepository) CountByTask(_ context.Context, taskID string) (int, error) {
	n := 0
	for _, row := range r.st.assignments {
		if row.rec.TaskID == taskID {
			n++
		}
	}
	return n, nil
}

func (r *assignmentRepository) FindByDevice(_ context.Context, deviceID string) (*secondary.AssignmentRecord, error) {
	found := r.matching(func(a secondary.AssignmentRecord) bool { return a.DeviceID == deviceID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *assignmentRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.st.assignments[id]; !ok {
		return fmt.Errorf("assignment %s: %w", id, secondary.ErrNotFound)
	}
	delete(r.st.assignments, id)
	return nil
}

func (r *assignmentRepository) DeleteByTask(_ context.Context, taskID string) (int, error) {
	n := 0
	for id, row := range r.st.assignments {
		if row.rec.TaskID == taskID {
			delete(r.st.assignments, id)
			n++
		}
	}
	return n, nil
}

func (r *assignmentRepository) DeleteAll(_ context.Context) (int, error) {
	n := len(r.st.assignments)
	r.st.assignments = map[string]assignmentRow{}
	return n, nil
}

// matching returns copies of the assignments accepted by keep, oldest first.
func (r *assignmentRepository) matching(keep func(secondary.AssignmentRecord) bool) []*secondary.AssignmentRecord {
	rows := make([]assignmentRow, 0)
	for _, row := range r.st.assignments {
		if keep(row.rec) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]*secondary.AssignmentRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.rec
		out = append(out, &rec)
	}
	return out
}

type settingsRepository struct {
	st *state
}

func (r *settingsRepository) Get(_ context.Context, key string) (string, bool, error) {
	rec, ok := r.st.settings[key]
	return rec.Value, ok, nil
}

func (r *settingsRepository) List(_ context.Context) ([]*secondary.SettingRecord, error) {
	keys := make([]string, 0, len(r.st.settings))
	for k := range r.st.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*secondary.SettingRecord, 0, len(keys))
	for _, k := range keys {
		rec := r.st.settings[k]
		out = append(out, &rec)
	}
	return out, nil
}

func (r *settingsRepository) Put(_ context.Context, key, value string) error {
	r.st.settings[key] = secondary.SettingRecord{Key: key, Value: value, UpdatedAt: nowString()}
	return nil
}
