// Package errors provides typed errors for flightcheck.
//
// Each subsystem that talks to the outside world (configuration, GitHub,
// the AI provider, snapshot storage) has its own error type carrying the
// operation that failed and, where known, whether a retry could help.
// JudgmentError covers the one failure the alignment pipeline raises itself:
// a judgment request that came back with no content at all.
//
// All types support errors.Is and errors.As from both the standard library
// and cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Field   string // Which config field has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with an underlying cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// GitHubError represents repository access failures, whether they came from
// the REST API or the gh CLI.
type GitHubError struct {
	Operation  string // e.g., "ListContents", "ListCommits"
	Repo       string // owner/name when known
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *GitHubError) Error() string {
	op := e.Operation
	if e.Repo != "" {
		op = fmt.Sprintf("%s %s", e.Operation, e.Repo)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("github %s failed (HTTP %d): %s", op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github %s failed: %s", op, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *GitHubError) Unwrap() error {
	return e.Cause
}

// NewGitHubError creates a new GitHubError.
func NewGitHubError(operation, message string) *GitHubError {
	return &GitHubError{Operation: operation, Message: message}
}

// NewGitHubErrorWithStatus creates a new GitHubError with HTTP status code.
func NewGitHubErrorWithStatus(operation string, statusCode int, message string) *GitHubError {
	return &GitHubError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// NewGitHubErrorWithCause creates a new GitHubError with an underlying cause.
func NewGitHubErrorWithCause(operation, message string, cause error) *GitHubError {
	return &GitHubError{
		Operation: operation,
		Message:   message,
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// InRepo records which repository the failed operation targeted.
func (e *GitHubError) InRepo(owner, repo string) *GitHubError {
	e.Repo = owner + "/" + repo
	return e
}

// AIError represents AI provider errors.
type AIError struct {
	Provider   string // e.g., "anthropic", "openai"
	Operation  string // e.g., "Chat"
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("ai %s %s failed (HTTP %d): %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("ai %s %s failed: %s", e.Provider, e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// NewAIError creates a new AIError.
func NewAIError(provider, operation, message string) *AIError {
	return &AIError{Provider: provider, Operation: operation, Message: message}
}

// NewAIErrorWithStatus creates a new AIError with HTTP status code.
func NewAIErrorWithStatus(provider, operation string, statusCode int, message string) *AIError {
	return &AIError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  isRetryableHTTPStatus(statusCode),
	}
}

// NewAIErrorWithCause creates a new AIError with an underlying cause.
func NewAIErrorWithCause(provider, operation, message string, cause error) *AIError {
	return &AIError{
		Provider:  provider,
		Operation: operation,
		Message:   message,
		Retryable: IsRetryable(cause),
		Cause:     cause,
	}
}

// SnapshotError represents failures reading or writing persisted snapshots.
type SnapshotError struct {
	Operation string // e.g., "Create", "Latest", "Migrate"
	ProjectID string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	if e.ProjectID != "" {
		return fmt.Sprintf("snapshot %s for %s failed: %s", e.Operation, e.ProjectID, e.Message)
	}
	return fmt.Sprintf("snapshot %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// NewSnapshotError creates a new SnapshotError.
func NewSnapshotError(operation, projectID, message string) *SnapshotError {
	return &SnapshotError{Operation: operation, ProjectID: projectID, Message: message}
}

// NewSnapshotErrorWithCause creates a new SnapshotError with an underlying cause.
func NewSnapshotErrorWithCause(operation, projectID, message string, cause error) *SnapshotError {
	return &SnapshotError{Operation: operation, ProjectID: projectID, Message: message, Cause: cause}
}

// JudgmentError is returned when a judgment request produced no usable
// content at all. Content that is present but malformed never produces a
// JudgmentError; the component substitutes its fallback value instead.
type JudgmentError struct {
	Component string // e.g., "alignment", "impact", "guide"
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *JudgmentError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s judgment failed: %s", e.Component, e.Message)
	}
	return "judgment failed: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *JudgmentError) Unwrap() error {
	return e.Cause
}

// NewJudgmentError creates a new JudgmentError.
func NewJudgmentError(component, message string) *JudgmentError {
	return &JudgmentError{Component: component, Message: message}
}

// IsRetryable checks if an error or any error in its chain is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ghErr *GitHubError
	if errors.As(err, &ghErr) {
		return ghErr.Retryable
	}

	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Retryable
	}

	// An empty judgment is usually a transient provider hiccup.
	var jErr *JudgmentError
	if errors.As(err, &jErr) {
		return true
	}

	return false
}

// IsConfigError checks if an error or any error in its chain is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGitHubError checks if an error or any error in its chain is a GitHubError.
func IsGitHubError(err error) bool {
	var ghErr *GitHubError
	return errors.As(err, &ghErr)
}

// IsAIError checks if an error or any error in its chain is an AIError.
func IsAIError(err error) bool {
	var aiErr *AIError
	return errors.As(err, &aiErr)
}

// IsSnapshotError checks if an error or any error in its chain is a SnapshotError.
func IsSnapshotError(err error) bool {
	var snapErr *SnapshotError
	return errors.As(err, &snapErr)
}

// IsJudgmentError checks if an error or any error in its chain is a JudgmentError.
func IsJudgmentError(err error) bool {
	var jErr *JudgmentError
	return errors.As(err, &jErr)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Re-export commonly used functions from cockroachdb/errors so callers only
// import one errors package.
var (
	New   = errors.New
	Newf  = errors.Newf
	Wrap  = errors.Wrap
	Wrapf = errors.Wrapf
	Is    = errors.Is
	As    = errors.As
	Cause = errors.Cause
)
