// internal/database/account.go
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
)

// LookupAccount loads an account, mapping a missing row to ErrAccountNotFound.
func LookupAccount(ctx context.Context, q Querier, id int64) (model.Account, error) {
	acc, err := q.GetAccount(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, custom_errors.ErrAccountNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return acc.ToModel(), nil
}
