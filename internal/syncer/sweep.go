// internal/syncer/sweep.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github-gitee-mirror/internal/database"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
)

// SweepResult summarises one sweep.
type SweepResult struct {
	Accounts int
	Failed   int
	Admitted int
	Skipped  int
}

// Sweep triggers a mirror of every repository of every account that holds
// both credentials. A failing account is logged and the sweep moves on.
func (s *Syncer) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	s.logger.Info("Starting sync sweep")

	rows, err := s.q.ListMirrorableAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list accounts for sweep", "error", err)
		return res
	}

	for i, row := range rows {
		if i > 0 && !sleep(ctx, s.opts.AccountPacing) {
			s.logger.Info("Sweep interrupted", "reason", ctx.Err())
			break
		}
		acc := row.ToModel()
		res.Accounts++

		admitted, skipped, err := s.sweepAccount(ctx, acc)
		res.Admitted += admitted
		res.Skipped += skipped
		if err != nil {
			res.Failed++
			s.metrics.SweepAccounts.WithLabelValues("failed").Inc()
			s.logger.Error("Failed to sweep account", "account_id", acc.ID, "error", err)
			continue
		}
		s.metrics.SweepAccounts.WithLabelValues("ok").Inc()
	}

	s.logger.Info("Sync sweep finished",
		"accounts", res.Accounts, "failed", res.Failed, "admitted", res.Admitted, "skipped", res.Skipped)
	return res
}

func (s *Syncer) sweepAccount(ctx context.Context, acc model.Account) (admitted, skipped int, err error) {
	repos, err := s.source.ListRepositories(ctx, *acc.GitHub.Token)
	if err != nil {
		return 0, 0, fmt.Errorf("listing repositories: %w", err)
	}

	for _, repo := range repos {
		_, err := s.trigger(ctx, acc, repo.CloneURL, TriggerSchedule)
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, custom_errors.ErrSyncInProgress):
			skipped++
		default:
			skipped++
			s.logger.Warn("Failed to trigger repository", "account_id", acc.ID, "repo", repo.FullName, "error", err)
		}
	}
	return admitted, skipped, nil
}

// ReapStale fails every active task that has not moved for longer than
// Options.StaleAfter and returns their IDs. This covers syncing tasks whose
// worker died and pending tasks whose queue message was lost.
func (s *Syncer) ReapStale(ctx context.Context) ([]int64, error) {
	if s.opts.StaleAfter <= 0 {
		return nil, nil
	}
	ids, err := s.q.FailStaleTasks(ctx, database.FailStaleTasksParams{
		UpdatedBefore: s.now().Add(-s.opts.StaleAfter),
		ErrorMessage:  fmt.Sprintf("task abandoned: no progress for %s", s.opts.StaleAfter),
	})
	if err != nil {
		return nil, fmt.Errorf("reaping stale tasks: %w", err)
	}
	if len(ids) > 0 {
		s.metrics.TasksReaped.Add(float64(len(ids)))
		s.metrics.TasksFinished.WithLabelValues(string(model.TaskFailed), "none").Add(float64(len(ids)))
		s.logger.Warn("Failed stale tasks", "count", len(ids), "task_ids", ids)
	}
	return ids, nil
}

// sleep waits for d and reports false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
