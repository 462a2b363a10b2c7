// internal/database/accounts.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const accountColumns = `id, github_username, github_token, gitee_username, gitee_token, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.GithubUsername,
		&i.GithubToken,
		&i.GiteeUsername,
		&i.GiteeToken,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccount = `-- name: GetAccount :one
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccount, id))
}

type LinkAccountParams struct {
	ID       int64       `json:"id"`
	Username pgtype.Text `json:"username"`
	Token    pgtype.Text `json:"token"`
}

const linkGithub = `-- name: LinkGithub :one
INSERT INTO accounts (id, github_username, github_token)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET github_username = EXCLUDED.github_username,
    github_token = EXCLUDED.github_token,
    updated_at = now()
RETURNING ` + accountColumns

func (q *Queries) LinkGithub(ctx context.Context, arg LinkAccountParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, linkGithub, arg.ID, arg.Username, arg.Token))
}

const linkGitee = `-- name: LinkGitee :one
INSERT INTO accounts (id, gitee_username, gitee_token)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
SET gitee_username = EXCLUDED.gitee_username,
    gitee_token = EXCLUDED.gitee_token,
    updated_at = now()
RETURNING ` + accountColumns

func (q *Queries) LinkGitee(ctx context.Context, arg LinkAccountParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, linkGitee, arg.ID, arg.Username, arg.Token))
}

const unlinkGithub = `-- name: UnlinkGithub :one
UPDATE accounts
SET github_username = NULL, github_token = NULL, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

func (q *Queries) UnlinkGithub(ctx context.Context, id int64) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, unlinkGithub, id))
}

const unlinkGitee = `-- name: UnlinkGitee :one
UPDATE accounts
SET gitee_username = NULL, gitee_token = NULL, updated_at = now()
WHERE id = $1
RETURNING ` + accountColumns

func (q *Queries) UnlinkGitee(ctx context.Context, id int64) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, unlinkGitee, id))
}

const listMirrorableAccounts = `-- name: ListMirrorableAccounts :many
SELECT ` + accountColumns + ` FROM accounts
WHERE github_token <> '' AND github_username <> ''
  AND gitee_token <> '' AND gitee_username <> ''
ORDER BY id
`

func (q *Queries) ListMirrorableAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, listMirrorableAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		i, err := scanAccount(rows)
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
