// internal/database/convert.go
package database

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github-gitee-mirror/internal/model"
)

// ToModel translates a stored account into the internal model.
func (a Account) ToModel() model.Account {
	return model.Account{
		ID:        a.ID,
		GitHub:    model.Link{Username: textPtr(a.GithubUsername), Token: textPtr(a.GithubToken)},
		Gitee:     model.Link{Username: textPtr(a.GiteeUsername), Token: textPtr(a.GiteeToken)},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToModel translates a stored task record into the internal model.
func (t SyncTask) ToModel() model.Task {
	return model.Task{
		ID:           t.ID,
		AccountID:    t.AccountID,
		SourceURL:    t.SourceUrl,
		TargetURL:    t.TargetUrl,
		Status:       model.TaskStatus(t.Status),
		ErrorMessage: textPtr(t.ErrorMessage),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// Text converts a string into a pgtype.Text that is NULL when s is empty.
func Text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
