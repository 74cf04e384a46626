package schema

// TaskIdParams provides the task ID for operations like cancel.
type TaskIdParams struct {
	// The unique identifier of the task. (Required)
	ID string `json:"id"`
	// Optional metadata for the request context.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}

// TaskQueryParams provides parameters for retrieving task state, including optional history.
type TaskQueryParams struct {
	// The unique identifier of the task. (Required)
	ID string `json:"id"`
	// Optional: Maximum number of historical messages to retrieve for the task.
	// If omitted/negative, no history. If 0, empty history array.
	HistoryLength *int `json:"historyLength,omitempty"`
	// Optional metadata for the request context.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}

// TaskSendParams provides parameters for sending a message to initiate or continue a task.
type TaskSendParams struct {
	// The unique identifier of the task. Client SHOULD generate a unique ID (e.g., UUID) for new tasks. (Required)
	ID string `json:"id"`
	// Optional identifier to group related tasks into a session. Server generates if omitted for new tasks.
	SessionID *string `json:"sessionId,omitempty"`
	// The message content being sent. (Required)
	Message Message `json:"message"`
	// Content types the client can accept for artifacts.
	AcceptedOutputModes []string `json:"acceptedOutputModes,omitempty"`
	// Optional: Maximum number of historical messages to retrieve in the response/stream updates.
	HistoryLength *int `json:"historyLength,omitempty"`
	// Optional metadata for the request context.
	Metadata *map[string]interface{} `json:"metadata,omitempty"`
}
