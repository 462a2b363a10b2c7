// internal/database/tasks.sql.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const taskColumns = `id, account_id, source_url, target_url, status, error_message, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (SyncTask, error) {
	var i SyncTask
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.SourceUrl,
		&i.TargetUrl,
		&i.Status,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type LockSourceRepoParams struct {
	AccountID int64  `json:"account_id"`
	SourceUrl string `json:"source_url"`
}

// Transaction-scoped; released on commit or rollback.
const lockSourceRepo = `-- name: LockSourceRepo :exec
SELECT pg_advisory_xact_lock(hashtextextended($2::text, $1::bigint))
`

func (q *Queries) LockSourceRepo(ctx context.Context, arg LockSourceRepoParams) error {
	_, err := q.db.Exec(ctx, lockSourceRepo, arg.AccountID, arg.SourceUrl)
	return err
}

type CountActiveTasksParams struct {
	AccountID int64  `json:"account_id"`
	SourceUrl string `json:"source_url"`
}

const countActiveTasks = `-- name: CountActiveTasks :one
SELECT count(*) FROM sync_tasks
WHERE account_id = $1 AND source_url = $2 AND status IN ('pending', 'syncing')
`

func (q *Queries) CountActiveTasks(ctx context.Context, arg CountActiveTasksParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countActiveTasks, arg.AccountID, arg.SourceUrl).Scan(&count)
	return count, err
}

type CreateTaskParams struct {
	AccountID int64  `json:"account_id"`
	SourceUrl string `json:"source_url"`
	TargetUrl string `json:"target_url"`
}

const createTask = `-- name: CreateTask :one
INSERT INTO sync_tasks (account_id, source_url, target_url, status)
VALUES ($1, $2, $3, 'pending')
RETURNING ` + taskColumns

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (SyncTask, error) {
	return scanTask(q.db.QueryRow(ctx, createTask, arg.AccountID, arg.SourceUrl, arg.TargetUrl))
}

const getTask = `-- name: GetTask :one
SELECT ` + taskColumns + ` FROM sync_tasks
WHERE id = $1
`

func (q *Queries) GetTask(ctx context.Context, id int64) (SyncTask, error) {
	return scanTask(q.db.QueryRow(ctx, getTask, id))
}

const markTaskSyncing = `-- name: MarkTaskSyncing :one
UPDATE sync_tasks
SET status = 'syncing', error_message = NULL, updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + taskColumns

func (q *Queries) MarkTaskSyncing(ctx context.Context, id int64) (SyncTask, error) {
	return scanTask(q.db.QueryRow(ctx, markTaskSyncing, id))
}

const markTaskCompleted = `-- name: MarkTaskCompleted :one
UPDATE sync_tasks
SET status = 'completed', error_message = NULL, updated_at = now()
WHERE id = $1 AND status = 'syncing'
RETURNING ` + taskColumns

func (q *Queries) MarkTaskCompleted(ctx context.Context, id int64) (SyncTask, error) {
	return scanTask(q.db.QueryRow(ctx, markTaskCompleted, id))
}

type MarkTaskFailedParams struct {
	ID           int64  `json:"id"`
	ErrorMessage string `json:"error_message"`
}

const markTaskFailed = `-- name: MarkTaskFailed :one
UPDATE sync_tasks
SET status = 'failed', error_message = $2, updated_at = now()
WHERE id = $1 AND status IN ('pending', 'syncing')
RETURNING ` + taskColumns

func (q *Queries) MarkTaskFailed(ctx context.Context, arg MarkTaskFailedParams) (SyncTask, error) {
	return scanTask(q.db.QueryRow(ctx, markTaskFailed, arg.ID, arg.ErrorMessage))
}

type ListTasksParams struct {
	AccountID int64       `json:"account_id"`
	Status    pgtype.Text `json:"status"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
}

const listTasks = `-- name: ListTasks :many
SELECT ` + taskColumns + ` FROM sync_tasks
WHERE account_id = $1
  AND ($2::varchar IS NULL OR status = $2::varchar)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`

func (q *Queries) ListTasks(ctx context.Context, arg ListTasksParams) ([]SyncTask, error) {
	rows, err := q.db.Query(ctx, listTasks, arg.AccountID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SyncTask{}
	for rows.Next() {
		i, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type FailStaleTasksParams struct {
	UpdatedBefore time.Time `json:"updated_before"`
	ErrorMessage  string    `json:"error_message"`
}

const failStaleTasks = `-- name: FailStaleTasks :many
UPDATE sync_tasks
SET status = 'failed', error_message = $2, updated_at = now()
WHERE status IN ('pending', 'syncing') AND updated_at < $1
RETURNING id
`

func (q *Queries) FailStaleTasks(ctx context.Context, arg FailStaleTasksParams) ([]int64, error) {
	rows, err := q.db.Query(ctx, failStaleTasks, arg.UpdatedBefore, arg.ErrorMessage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
