package cryerrors

import (
	"fmt"
	"strings"
)

// ValidationError is returned when a job file field is missing or holds a value
// the scheduler will not accept.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field string, reason string, args ...any) ValidationError {
	return ValidationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid job: " + e.Reason
	}
	return fmt.Sprintf("invalid job: %s: %s", e.Field, e.Reason)
}

// WorkspaceError is returned when the working directory cannot be read or the
// run copy cannot be written.
type WorkspaceError struct {
	Op   string
	Path string
	Err  error
}

func NewWorkspaceError(op string, path string, err error) WorkspaceError {
	return WorkspaceError{Op: op, Path: path, Err: err}
}

func (e WorkspaceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("workspace: %s %s", e.Op, e.Path)
	}
	return fmt.Sprintf("workspace: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e WorkspaceError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when no job in a region matches a fragment.
type NotFoundError struct {
	Fragment string
	Region   string
}

func NewNotFoundError(fragment string, region string) NotFoundError {
	return NotFoundError{Fragment: fragment, Region: region}
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no job found matching %q in region %s", e.Fragment, e.Region)
}

// AmbiguousError is returned when more than one job matches a fragment. Matches
// holds every full job ID that matched.
type AmbiguousError struct {
	Fragment string
	Region   string
	Matches  []string
}

func NewAmbiguousError(fragment string, region string, matches []string) AmbiguousError {
	return AmbiguousError{Fragment: fragment, Region: region, Matches: matches}
}

func (e AmbiguousError) Error() string {
	return fmt.Sprintf("%d jobs in region %s match %q, use a longer fragment: %s",
		len(e.Matches), e.Region, e.Fragment, strings.Join(e.Matches, ", "))
}

// SubmissionError is returned when the control plane rejects a job submission.
// Message is the remote error text, unmodified.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func NewSubmissionError(statusCode int, message string) SubmissionError {
	return SubmissionError{StatusCode: statusCode, Message: message}
}

func (e SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return "job submission failed: " + e.Message
	}
	return fmt.Sprintf("job submission failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// KillError is returned when the control plane refuses to stop a job, for
// example because the job is already in a terminal state.
type KillError struct {
	JobID      string
	StatusCode int
	Message    string
}

func NewKillError(jobID string, statusCode int, message string) KillError {
	return KillError{JobID: jobID, StatusCode: statusCode, Message: message}
}

func (e KillError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("failed to kill job %s: %s", e.JobID, e.Message)
	}
	return fmt.Sprintf("failed to kill job %s (HTTP %d): %s", e.JobID, e.StatusCode, e.Message)
}
