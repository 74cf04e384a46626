package schema

import "time"

// TaskState represents the lifecycle state of a task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but not yet started.
	TaskStateSubmitted TaskState = "submitted"
	// TaskStateWorking indicates the agent is actively processing the task.
	TaskStateWorking TaskState = "working"
	// TaskStateInputRequired indicates the agent is suspended waiting for user input.
	TaskStateInputRequired TaskState = "input-required"
	// TaskStateCompleted indicates the task finished successfully. Terminal.
	TaskStateCompleted TaskState = "completed"
	// TaskStateFailed indicates the task finished with an error. Terminal.
	TaskStateFailed TaskState = "failed"
	// TaskStateCanceled indicates the task was canceled before completion. Terminal.
	TaskStateCanceled TaskState = "canceled"
)

// IsTerminal reports whether no further state transitions are allowed.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed || s == TaskStateCanceled
}

// TaskStatus holds the current state of a task plus an optional message from the agent
// (e.g., interim "thinking" output while state is "working").
type TaskStatus struct {
	// The lifecycle state. (Required)
	State TaskState `json:"state"`
	// Optional message associated with this status update.
	Message *Message `json:"message,omitempty"`
	// Time at which the status was recorded.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Artifact represents an output produced by a task, delivered whole or in chunks.
type Artifact struct {
	// Optional artifact name.
	Name *string `json:"name,omitempty"`
	// Optional human-readable description.
	Description *string `json:"description,omitempty"`
	// The content parts of the artifact. (Required)
	Parts []Part `json:"parts"`
	// Position of this artifact among the task's artifacts. Defaults to 0.
	Index int `json:"index,omitempty"`
	// If true, Parts extend the artifact at the same Index rather than replacing it.
	Append *bool `json:"append,omitempty"`
	// If true, this is the last chunk for the artifact at this Index.
	LastChunk *bool `json:"lastChunk,omitempty"`
	// Optional metadata associated with the artifact.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}

// Task represents one unit of agent-side work tied to one user request.
type Task struct {
	// Unique identifier of the task. (Required)
	ID string `json:"id"`
	// Optional identifier grouping related tasks into a session.
	SessionID *string `json:"sessionId,omitempty"`
	// Current status of the task. (Required)
	Status TaskStatus `json:"status"`
	// Artifacts produced so far.
	Artifacts []Artifact `json:"artifacts,omitempty"`
	// Message history for the task, oldest first.
	History []Message `json:"history,omitempty"`
	// Optional metadata associated with the task.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}
