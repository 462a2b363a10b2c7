// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	CountActiveTasks(ctx context.Context, arg CountActiveTasksParams) (int64, error)
	CountTasksByStatus(ctx context.Context, accountID int64) ([]CountTasksByStatusRow, error)
	CreateTask(ctx context.Context, arg CreateTaskParams) (SyncTask, error)
	FailStaleTasks(ctx context.Context, arg FailStaleTasksParams) ([]int64, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetTask(ctx context.Context, id int64) (SyncTask, error)
	LinkGitee(ctx context.Context, arg LinkAccountParams) (Account, error)
	LinkGithub(ctx context.Context, arg LinkAccountParams) (Account, error)
	ListLatestTaskStatuses(ctx context.Context, accountID int64) ([]ListLatestTaskStatusesRow, error)
	ListMirrorableAccounts(ctx context.Context) ([]Account, error)
	ListTaskCreationsSince(ctx context.Context, arg ListTaskCreationsSinceParams) ([]ListTaskCreationsSinceRow, error)
	ListTasks(ctx context.Context, arg ListTasksParams) ([]SyncTask, error)
	LockSourceRepo(ctx context.Context, arg LockSourceRepoParams) error
	MarkTaskCompleted(ctx context.Context, id int64) (SyncTask, error)
	MarkTaskFailed(ctx context.Context, arg MarkTaskFailedParams) (SyncTask, error)
	MarkTaskSyncing(ctx context.Context, id int64) (SyncTask, error)
	UnlinkGitee(ctx context.Context, id int64) (Account, error)
	UnlinkGithub(ctx context.Context, id int64) (Account, error)
}

var _ Querier = (*Queries)(nil)
