package errors

import (
	"fmt"
)

// StoreError reports a failed read or write against the persistent store.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the store operation and the tracked path it concerned.
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{Op: op, Path: path, Err: err}
}

// DownloadError reports a failed exchange with the remote server.
type DownloadError struct {
	Resource   string
	StatusCode int
	Err        error
}

// Error implements the error interface for DownloadError.
func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %q failed with status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("download %q failed: %v", e.Resource, e.Err)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError wraps a transport or server failure for resource.
func NewDownloadError(resource string, statusCode int, err error) *DownloadError {
	return &DownloadError{Resource: resource, StatusCode: statusCode, Err: err}
}

// CommandError represents an error that occurred during command execution, storing relevant results.
type CommandError struct {
	ExitCode    int
	CommonError string
	Args        interface{}
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// NewCommandError creates a new CommandError instance, encapsulating args and the error message.
func NewCommandError(args interface{}, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Args:        args,
	}
}
