// internal/model/models.go
package model

import (
	"time"
)

// Platform names a code hosting provider an account can link.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitee  Platform = "gitee"
)

// Link is the credential an account holds on a single platform.
type Link struct {
	Username *string
	Token    *string
}

// Linked reports whether the link carries both a username and a token.
func (l Link) Linked() bool {
	return l.Token != nil && *l.Token != "" && l.Handle() != ""
}

// Handle returns the platform username, or "" when unset.
func (l Link) Handle() string {
	if l.Username == nil {
		return ""
	}
	return *l.Username
}

// Account is a principal with at most one credential per platform.
// GitHub is the mirror source and Gitee the mirror target.
type Account struct {
	ID        int64
	GitHub    Link
	Gitee     Link
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanMirror reports whether the account holds credentials on both platforms.
func (a Account) CanMirror() bool {
	return a.GitHub.Linked() && a.Gitee.Linked()
}

// MissingPlatforms lists the platforms the account still has to link.
func (a Account) MissingPlatforms() []Platform {
	var missing []Platform
	if !a.GitHub.Linked() {
		missing = append(missing, PlatformGitHub)
	}
	if !a.Gitee.Linked() {
		missing = append(missing, PlatformGitee)
	}
	return missing
}

// LinkStatus is the per-platform link summary exposed to clients.
type LinkStatus struct {
	GitHubLinked bool `json:"github_linked"`
	GiteeLinked  bool `json:"gitee_linked"`
}

// TaskStatus is the lifecycle state of a mirror task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSyncing   TaskStatus = "syncing"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskSyncing, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// Active reports whether a task in this status blocks admission of another
// task for the same repository.
func (s TaskStatus) Active() bool {
	return s == TaskPending || s == TaskSyncing
}

// CanTransition reports whether a task may move from s to next.
// pending may fail directly when it could not be dispatched.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskSyncing || next == TaskFailed
	case TaskSyncing:
		return next == TaskCompleted || next == TaskFailed
	}
	return false
}

// Task is one attempted mirror of one repository.
type Task struct {
	ID           int64      `json:"id"`
	AccountID    int64      `json:"-"`
	SourceURL    string     `json:"source_url"`
	TargetURL    string     `json:"target_url"`
	Status       TaskStatus `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RepoInfo is a source repository joined with its mirror history.
type RepoInfo struct {
	Name         string      `json:"name"`
	FullName     string      `json:"full_name"`
	HTMLURL      string      `json:"html_url"`
	Description  *string     `json:"description"`
	Private      bool        `json:"private"`
	CloneURL     string      `json:"clone_url"`
	SyncStatus   *TaskStatus `json:"sync_status"`
	ActivityData []int       `json:"activity_data"`
}

// TaskStats counts an account's tasks by state.
type TaskStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Queued int64 `json:"queued"`
	Failed int64 `json:"failed"`
}

// Dashboard is the aggregate view of an account's mirror activity.
type Dashboard struct {
	Stats       TaskStats `json:"stats"`
	HeatmapData []int     `json:"heatmapData"`
}
