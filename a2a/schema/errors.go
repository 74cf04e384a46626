package schema

import "fmt"

// A2A specific error codes
const (
	ErrorCodeTaskNotFound            = -32001
	ErrorCodeTaskNotCancelable       = -32002
	ErrorCodeUnsupportedOperation    = -32004
	ErrorCodeContentTypeNotSupported = -32005
)

// NewTaskNotFoundError builds the JSON-RPC error for an unknown task ID.
func NewTaskNotFoundError(taskID string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeTaskNotFound,
		Message: fmt.Sprintf("Task '%s' not found", taskID),
	}
}

// NewTaskNotCancelableError builds the JSON-RPC error for a task in a state
// where it cannot be canceled.
func NewTaskNotCancelableError(taskID string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeTaskNotCancelable,
		Message: fmt.Sprintf("Task '%s' cannot be canceled", taskID),
	}
}

// NewUnsupportedOperationError builds the JSON-RPC error for an operation the
// agent does not implement.
func NewUnsupportedOperationError(operation string) *JSONRPCError {
	return &JSONRPCError{
		Code:    ErrorCodeUnsupportedOperation,
		Message: fmt.Sprintf("Operation '%s' is not supported", operation),
	}
}
