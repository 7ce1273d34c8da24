// Package delegation tracks multi-task sub-agent progress per session. The
// tracker is a fold over the backend's delegation event stream: it records
// each sub-task's lifecycle and keeps one "current progress" banner per
// session for the UI. It schedules nothing and never raises; malformed or
// out-of-order events are logged and absorbed.
package delegation

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/state"
)

// Event names on the backend stream.
const (
	EventTaskStarted   = "delegation:task-started"
	EventTaskOutput    = "delegation:task-output"
	EventTaskCompleted = "delegation:task-completed"
	EventTaskFailed    = "delegation:task-failed"
	EventAllCompleted  = "delegation:completed"
)

// TaskStatus is a sub-task's lifecycle stage.
type TaskStatus string

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// TaskStartedEvent announces one sub-task beginning.
type TaskStartedEvent struct {
	SessionID   string `json:"session_id"`
	WorktreeID  string `json:"worktree_id"`
	TaskID      string `json:"task_id"`
	Description string `json:"description,omitempty"`
	TaskIndex   int    `json:"task_index"`
	TotalTasks  int    `json:"total_tasks"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
}

// TaskOutputEvent carries one streamed output chunk.
type TaskOutputEvent struct {
	SessionID  string `json:"session_id"`
	WorktreeID string `json:"worktree_id"`
	TaskID     string `json:"task_id"`
	Output     string `json:"output"`
}

// TaskCompletedEvent finishes a sub-task. Output, when present, supersedes
// the streamed chunks.
type TaskCompletedEvent struct {
	SessionID  string `json:"session_id"`
	WorktreeID string `json:"worktree_id"`
	TaskID     string `json:"task_id"`
	Output     string `json:"output,omitempty"`
}

// TaskFailedEvent finishes a sub-task with an error.
type TaskFailedEvent struct {
	SessionID  string `json:"session_id"`
	WorktreeID string `json:"worktree_id"`
	TaskID     string `json:"task_id"`
	Error      string `json:"error,omitempty"`
}

// AllCompletedEvent is the terminal event of a delegation run.
type AllCompletedEvent struct {
	SessionID  string `json:"session_id"`
	WorktreeID string `json:"worktree_id"`
}

// TaskState is one sub-task's recorded lifecycle.
type TaskState struct {
	TaskID      string
	Description string
	Status      TaskStatus
	Output      string
	Error       string
	Index       int
	Total       int
	Provider    string
	Model       string
}

// Progress is the banner for a session's currently running sub-task.
type Progress struct {
	TaskID      string
	Description string
	Index       int
	Total       int
	Provider    string
	Model       string
	// Output is the streamed text accumulated for the task so far.
	Output string
}

// Change notifies observers that a session's delegation state moved.
type Change struct {
	SessionID string
	TaskID    string
}

// Tracker folds delegation events into per-session task state.
type Tracker struct {
	mu      sync.Mutex
	current map[string]*Progress
	tasks   map[string]map[string]*TaskState
	arrival map[string]map[string]int
	changes *state.Topic[Change]
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		current: make(map[string]*Progress),
		tasks:   make(map[string]map[string]*TaskState),
		arrival: make(map[string]map[string]int),
		changes: state.NewTopic[Change](),
	}
}

// Changes is the topic delegation observers subscribe to.
func (t *Tracker) Changes() *state.Topic[Change] { return t.changes }

// HandleEvent decodes a raw backend event and dispatches it. Unknown names
// and undecodable payloads are logged and dropped.
func (t *Tracker) HandleEvent(name string, payload json.RawMessage) {
	switch name {
	case EventTaskStarted:
		var ev TaskStartedEvent
		if !decodeEvent(name, payload, &ev) {
			return
		}
		t.HandleTaskStarted(ev)
	case EventTaskOutput:
		var ev TaskOutputEvent
		if !decodeEvent(name, payload, &ev) {
			return
		}
		t.HandleTaskOutput(ev)
	case EventTaskCompleted:
		var ev TaskCompletedEvent
		if !decodeEvent(name, payload, &ev) {
			return
		}
		t.HandleTaskCompleted(ev)
	case EventTaskFailed:
		var ev TaskFailedEvent
		if !decodeEvent(name, payload, &ev) {
			return
		}
		t.HandleTaskFailed(ev)
	case EventAllCompleted:
		var ev AllCompletedEvent
		if !decodeEvent(name, payload, &ev) {
			return
		}
		t.HandleAllCompleted(ev)
	default:
		logger.Debug("Delegation: Ignoring unknown event %s", name)
	}
}

func decodeEvent(name string, payload json.RawMessage, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		logger.Warn("Delegation: Undecodable %s payload: %v", name, err)
		return false
	}
	return true
}

// HandleTaskStarted records the sub-task as in progress and replaces the
// session's current-progress banner.
func (t *Tracker) HandleTaskStarted(ev TaskStartedEvent) {
	if ev.SessionID == "" || ev.TaskID == "" {
		logger.Debug("Delegation: Dropping started event with empty ids")
		return
	}
	t.mu.Lock()
	ts := t.taskLocked(ev.SessionID, ev.TaskID)
	ts.Description = ev.Description
	ts.Status = TaskInProgress
	ts.Index = ev.TaskIndex
	ts.Total = ev.TotalTasks
	ts.Provider = ev.Provider
	ts.Model = ev.Model
	t.current[ev.SessionID] = &Progress{
		TaskID:      ev.TaskID,
		Description: ev.Description,
		Index:       ev.TaskIndex,
		Total:       ev.TotalTasks,
		Provider:    ev.Provider,
		Model:       ev.Model,
	}
	t.mu.Unlock()
	logger.Debug("Delegation: Task %s started for session %s (%d/%d)", ev.TaskID, ev.SessionID, ev.TaskIndex, ev.TotalTasks)
	t.changes.Publish(Change{SessionID: ev.SessionID, TaskID: ev.TaskID})
}

// HandleTaskOutput appends a streamed chunk to the task's output buffer.
// Output for a task never started is dropped.
func (t *Tracker) HandleTaskOutput(ev TaskOutputEvent) {
	t.mu.Lock()
	ts := t.tasks[ev.SessionID][ev.TaskID]
	if ts == nil {
		t.mu.Unlock()
		logger.Debug("Delegation: Output for unknown task %s on session %s", ev.TaskID, ev.SessionID)
		return
	}
	ts.Output += ev.Output
	t.mu.Unlock()
	t.changes.Publish(Change{SessionID: ev.SessionID, TaskID: ev.TaskID})
}

// HandleTaskCompleted marks the sub-task completed. An output in the event
// replaces the accumulated buffer.
func (t *Tracker) HandleTaskCompleted(ev TaskCompletedEvent) {
	t.mu.Lock()
	ts := t.tasks[ev.SessionID][ev.TaskID]
	if ts == nil {
		t.mu.Unlock()
		logger.Debug("Delegation: Completion for unknown task %s on session %s", ev.TaskID, ev.SessionID)
		return
	}
	ts.Status = TaskCompleted
	if ev.Output != "" {
		ts.Output = ev.Output
	}
	t.mu.Unlock()
	logger.Debug("Delegation: Task %s completed for session %s", ev.TaskID, ev.SessionID)
	t.changes.Publish(Change{SessionID: ev.SessionID, TaskID: ev.TaskID})
}

// HandleTaskFailed marks the sub-task failed and records the error.
func (t *Tracker) HandleTaskFailed(ev TaskFailedEvent) {
	t.mu.Lock()
	ts := t.tasks[ev.SessionID][ev.TaskID]
	if ts == nil {
		t.mu.Unlock()
		logger.Debug("Delegation: Failure for unknown task %s on session %s", ev.TaskID, ev.SessionID)
		return
	}
	ts.Status = TaskFailed
	ts.Error = ev.Error
	t.mu.Unlock()
	logger.Debug("Delegation: Task %s failed for session %s: %s", ev.TaskID, ev.SessionID, ev.Error)
	t.changes.Publish(Change{SessionID: ev.SessionID, TaskID: ev.TaskID})
}

// HandleAllCompleted clears the session's current-progress banner. Per-task
// records stay for later display.
func (t *Tracker) HandleAllCompleted(ev AllCompletedEvent) {
	t.mu.Lock()
	delete(t.current, ev.SessionID)
	t.mu.Unlock()
	logger.Debug("Delegation: All tasks completed for session %s", ev.SessionID)
	t.changes.Publish(Change{SessionID: ev.SessionID})
}

// CurrentProgress returns the running sub-task banner for a session, with
// the output streamed so far.
func (t *Tracker) CurrentProgress(sessionID string) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.current[sessionID]
	if p == nil {
		return Progress{}, false
	}
	out := *p
	if ts := t.tasks[sessionID][p.TaskID]; ts != nil {
		out.Output = ts.Output
	}
	return out, true
}

// Task returns one sub-task's recorded state.
func (t *Tracker) Task(sessionID, taskID string) (TaskState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := t.tasks[sessionID][taskID]
	if ts == nil {
		return TaskState{}, false
	}
	return *ts, true
}

// Tasks returns a session's sub-tasks ordered by index, arrival order
// breaking ties.
func (t *Tracker) Tasks(sessionID string) []TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	byID := t.tasks[sessionID]
	if len(byID) == 0 {
		return nil
	}
	out := make([]TaskState, 0, len(byID))
	for _, ts := range byID {
		out = append(out, *ts)
	}
	arrival := t.arrival[sessionID]
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return arrival[out[i].TaskID] < arrival[out[j].TaskID]
	})
	return out
}

// ClearSession drops all delegation state for a session.
func (t *Tracker) ClearSession(sessionID string) {
	t.mu.Lock()
	delete(t.current, sessionID)
	delete(t.tasks, sessionID)
	delete(t.arrival, sessionID)
	t.mu.Unlock()
	t.changes.Publish(Change{SessionID: sessionID})
}

// taskLocked returns the task record, creating it on first sight.
func (t *Tracker) taskLocked(sessionID, taskID string) *TaskState {
	byID := t.tasks[sessionID]
	if byID == nil {
		byID = make(map[string]*TaskState)
		t.tasks[sessionID] = byID
	}
	ts := byID[taskID]
	if ts == nil {
		ts = &TaskState{TaskID: taskID}
		byID[taskID] = ts
		seen := t.arrival[sessionID]
		if seen == nil {
			seen = make(map[string]int)
			t.arrival[sessionID] = seen
		}
		seen[taskID] = len(seen)
	}
	return ts
}
