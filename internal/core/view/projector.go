// Package view folds tasks, assignments and the policy into the read-only
// aggregates observers render. Everything here is pure and recomputed on
// every change; nothing is cached between calls.
//
// The flags produced here are advisory. The assignment engine never consults
// them and always re-validates against the store.
package view

import "github.com/example/claimhub/internal/core/settings"

// TaskInput is the projector's view of a task.
type TaskInput struct {
	ID       string
	Name     string
	Subtitle string
	Capacity int
}

// AssignmentInput is the projector's view of an assignment.
type AssignmentInput struct {
	TaskID   string
	DeviceID string
}

// Snapshot is one consistent read of the authoritative state.
// Tasks and Assignments are expected oldest first.
type Snapshot struct {
	Tasks       []TaskInput
	Assignments []AssignmentInput
	Policy      settings.Policy
}

// TaskState is the derived state of one task.
type TaskState struct {
	TaskID    string
	Name      string
	Subtitle  string
	Capacity  int
	Claimed   int
	Remaining int
	IsFull    bool
}

// DeviceState reports the task a device already holds, if any.
type DeviceState struct {
	DeviceID         string
	AssignedTaskID   string
	AssignedTaskName string
}

// Assigned reports whether the device holds a slot.
func (d DeviceState) Assigned() bool {
	return d.AssignedTaskID != ""
}

// Board is the full aggregate for one observer.
type Board struct {
	Title         string
	Instructions  string
	DedupEnabled  bool
	Tasks         []TaskState
	Device        DeviceState
	TotalCapacity int
	TotalClaimed  int
}

func countByTask(assignments []AssignmentInput) map[string]int {
	counts := make(map[string]int, len(assignments))
	for _, a := range assignments {
		counts[a.TaskID]++
	}
	return counts
}

func deriveTask(t TaskInput, claimed int) TaskState {
	remaining := t.Capacity - claimed
	return TaskState{
		TaskID:    t.ID,
		Name:      t.Name,
		Subtitle:  t.Subtitle,
		Capacity:  t.Capacity,
		Claimed:   claimed,
		Remaining: remaining,
		IsFull:    remaining <= 0,
	}
}

// ProjectTasks derives the state of every task, in the order of s.Tasks.
func ProjectTasks(s Snapshot) []TaskState {
	counts := countByTask(s.Assignments)
	states := make([]TaskState, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		states = append(states, deriveTask(t, counts[t.ID]))
	}
	return states
}

// ProjectTask derives the state of one task. ok is false for unknown ids.
func ProjectTask(s Snapshot, taskID string) (state TaskState, ok bool) {
	for _, t := range s.Tasks {
		if t.ID != taskID {
			continue
		}
		claimed := 0
		for _, a := range s.Assignments {
			if a.TaskID == taskID {
				claimed++
			}
		}
		return deriveTask(t, claimed), true
	}
	return TaskState{}, false
}

// ProjectDevice reports the task a device holds. With dedup disabled devices
// are not tracked and the result is always empty.
func ProjectDevice(s Snapshot, deviceID string) DeviceState {
	state := DeviceState{DeviceID: deviceID}
	if deviceID == "" || !s.Policy.DedupEnabled {
		return state
	}

	for _, a := range s.Assignments {
		if a.DeviceID != deviceID {
			continue
		}
		state.AssignedTaskID = a.TaskID
		for _, t := range s.Tasks {
			if t.ID == a.TaskID {
				state.AssignedTaskName = t.Name
				break
			}
		}
		return state
	}
	return state
}

// ProjectBoard derives everything an observer on deviceID needs.
func ProjectBoard(s Snapshot, deviceID string) Board {
	tasks := ProjectTasks(s)
	board := Board{
		Title:        s.Policy.Title,
		Instructions: s.Policy.Instructions,
		DedupEnabled: s.Policy.DedupEnabled,
		Tasks:        tasks,
		Device:       ProjectDevice(s, deviceID),
	}
	for _, t := range tasks {
		board.TotalCapacity += t.Capacity
		board.TotalClaimed += t.Claimed
	}
	return board
}
