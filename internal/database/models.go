// internal/database/models.go
package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID             int64       `json:"id"`
	GithubUsername pgtype.Text `json:"github_username"`
	GithubToken    pgtype.Text `json:"github_token"`
	GiteeUsername  pgtype.Text `json:"gitee_username"`
	GiteeToken     pgtype.Text `json:"gitee_token"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type SyncTask struct {
	ID           int64       `json:"id"`
	AccountID    int64       `json:"account_id"`
	SourceUrl    string      `json:"source_url"`
	TargetUrl    string      `json:"target_url"`
	Status       string      `json:"status"`
	ErrorMessage pgtype.Text `json:"error_message"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
