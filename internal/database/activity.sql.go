// internal/database/activity.sql.go
package database

import (
	"context"
	"time"
)

type CountTasksByStatusRow struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

const countTasksByStatus = `-- name: CountTasksByStatus :many
SELECT status, count(*) FROM sync_tasks
WHERE account_id = $1
GROUP BY status
`

func (q *Queries) CountTasksByStatus(ctx context.Context, accountID int64) ([]CountTasksByStatusRow, error) {
	rows, err := q.db.Query(ctx, countTasksByStatus, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountTasksByStatusRow
	for rows.Next() {
		var i CountTasksByStatusRow
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListTaskCreationsSinceParams struct {
	AccountID int64     `json:"account_id"`
	Since     time.Time `json:"since"`
}

type ListTaskCreationsSinceRow struct {
	SourceUrl string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
}

const listTaskCreationsSince = `-- name: ListTaskCreationsSince :many
SELECT source_url, created_at FROM sync_tasks
WHERE account_id = $1 AND created_at >= $2
ORDER BY created_at
`

func (q *Queries) ListTaskCreationsSince(ctx context.Context, arg ListTaskCreationsSinceParams) ([]ListTaskCreationsSinceRow, error) {
	rows, err := q.db.Query(ctx, listTaskCreationsSince, arg.AccountID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListTaskCreationsSinceRow
	for rows.Next() {
		var i ListTaskCreationsSinceRow
		if err := rows.Scan(&i.SourceUrl, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type ListLatestTaskStatusesRow struct {
	SourceUrl string `json:"source_url"`
	Status    string `json:"status"`
}

const listLatestTaskStatuses = `-- name: ListLatestTaskStatuses :many
SELECT DISTINCT ON (source_url) source_url, status FROM sync_tasks
WHERE account_id = $1
ORDER BY source_url, created_at DESC, id DESC
`

func (q *Queries) ListLatestTaskStatuses(ctx context.Context, accountID int64) ([]ListLatestTaskStatusesRow, error) {
	rows, err := q.db.Query(ctx, listLatestTaskStatuses, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLatestTaskStatusesRow
	for rows.Next() {
		var i ListLatestTaskStatusesRow
		if err := rows.Scan(&i.SourceUrl, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
