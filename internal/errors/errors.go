// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSyncInProgress is returned when a pending or syncing task already
	// exists for the same account and source repository.
	ErrSyncInProgress = errors.New("sync already in progress or queued")

	// ErrAccountNotFound is returned when no account exists for an identifier.
	ErrAccountNotFound = errors.New("account not found")
)

// ErrUnlinkedAccount is returned when an account lacks a credential required
// to create a mirror task.
type ErrUnlinkedAccount struct {
	AccountID int64
	Missing   []string
}

func (e *ErrUnlinkedAccount) Error() string {
	return fmt.Sprintf("account %d is not linked to %s", e.AccountID, strings.Join(e.Missing, " and "))
}

// ErrInvalidRepoURL is returned when a repository URL cannot be parsed into
// a namespace and repository name.
type ErrInvalidRepoURL struct {
	URL string
}

func (e *ErrInvalidRepoURL) Error() string {
	return fmt.Sprintf("invalid repository url: %q, expected 'https://host/owner/name[.git]'", e.URL)
}

// ErrInvalidPlatform is returned for platform names other than github and gitee.
type ErrInvalidPlatform struct {
	Platform string
}

func (e *ErrInvalidPlatform) Error() string {
	return fmt.Sprintf("invalid platform: %q", e.Platform)
}

// ErrInvalidTransition is returned when a task is not in a state that allows
// the requested transition.
type ErrInvalidTransition struct {
	TaskID int64
	To     string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("task %d cannot transition to %s", e.TaskID, e.To)
}

// ErrProvider wraps a failed call to a hosting provider API.
type ErrProvider struct {
	Platform   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ErrProvider) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Platform, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *ErrProvider) Unwrap() error { return e.Err }

// ErrProvisioning is returned when the target repository could not be
// verified or created.
type ErrProvisioning struct {
	Namespace string
	Name      string
	Err       error
}

func (e *ErrProvisioning) Error() string {
	return fmt.Sprintf("failed to provision target repository %s/%s: %v", e.Namespace, e.Name, e.Err)
}

func (e *ErrProvisioning) Unwrap() error { return e.Err }

// ErrTransfer is returned when a clone or push command fails.
type ErrTransfer struct {
	Op       string
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *ErrTransfer) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("git %s timed out: %s", e.Op, e.Stderr)
	}
	return fmt.Sprintf("git %s failed: %s", e.Op, e.Stderr)
}

func (e *ErrTransfer) Unwrap() error { return e.Err }
