// internal/syncer/execute.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github-gitee-mirror/internal/database"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/mirror"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

// Execute runs a pending task to a terminal state. Failures of the transfer
// are recorded on the task; the returned error only reports tasks that could
// not be claimed or recorded.
func (s *Syncer) Execute(ctx context.Context, taskID int64) error {
	logger := s.logger.With("task_id", taskID)

	row, err := s.q.MarkTaskSyncing(ctx, taskID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &custom_errors.ErrInvalidTransition{TaskID: taskID, To: string(model.TaskSyncing)}
	}
	if err != nil {
		return fmt.Errorf("claiming task %d: %w", taskID, err)
	}
	task := row.ToModel()
	logger = logger.With("account_id", task.AccountID, "source_url", task.SourceURL)
	logger.Info("Mirroring repository", "target_url", task.TargetURL)

	acc, err := database.LookupAccount(ctx, s.q, task.AccountID)
	if err != nil {
		s.fail(ctx, logger, task.ID, err)
		return nil
	}
	if !acc.CanMirror() {
		s.fail(ctx, logger, task.ID, unlinked(acc))
		return nil
	}
	secrets := []string{*acc.GitHub.Token, *acc.Gitee.Token}

	start := time.Now()
	result, err := s.transfer(ctx, task, acc)
	s.metrics.ObserveTransfer(start)
	if err != nil {
		s.fail(ctx, logger, task.ID, errors.New(mirror.Redact(err.Error(), secrets...)))
		return nil
	}

	if _, err := s.q.MarkTaskCompleted(ctx, task.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Task left syncing state before completion was recorded")
			return nil
		}
		return fmt.Errorf("completing task %d: %w", task.ID, err)
	}
	s.metrics.TasksFinished.WithLabelValues(string(model.TaskCompleted), string(result.Mode)).Inc()
	logger.Info("Mirror completed", "mode", result.Mode, "duration", time.Since(start).String())
	return nil
}

// transfer provisions the target repository and copies every ref into it.
func (s *Syncer) transfer(ctx context.Context, task model.Task, acc model.Account) (mirror.Result, error) {
	ref, err := provider.ParseRepoRef(task.TargetURL)
	if err != nil {
		return mirror.Result{}, err
	}

	created, err := s.target.EnsureRepository(ctx, *acc.Gitee.Token, ref, "Mirrored from "+task.SourceURL)
	if err != nil {
		return mirror.Result{}, &custom_errors.ErrProvisioning{Namespace: ref.Namespace, Name: ref.Name, Err: err}
	}
	if created {
		s.logger.Info("Created target repository", "task_id", task.ID, "target", ref.String())
	}

	sourceURL, err := s.source.AuthenticatedURL(task.SourceURL, *acc.GitHub.Token)
	if err != nil {
		return mirror.Result{}, err
	}
	targetURL, err := s.target.AuthenticatedURL(task.TargetURL, *acc.Gitee.Token)
	if err != nil {
		return mirror.Result{}, err
	}

	return s.mirrorer.Mirror(ctx, mirror.Request{
		SourceURL: sourceURL,
		TargetURL: targetURL,
		Secrets:   []string{*acc.GitHub.Token, *acc.Gitee.Token},
	})
}

func (s *Syncer) fail(ctx context.Context, logger *slog.Logger, taskID int64, cause error) {
	logger.Error("Mirror failed", "error", cause)
	if s.markFailed(ctx, logger, taskID, cause.Error()) {
		s.metrics.TasksFinished.WithLabelValues(string(model.TaskFailed), "none").Inc()
	}
}

// markFailed records message on the task and reports whether the task was
// still active.
func (s *Syncer) markFailed(ctx context.Context, logger *slog.Logger, taskID int64, message string) bool {
	_, err := s.q.MarkTaskFailed(ctx, database.MarkTaskFailedParams{ID: taskID, ErrorMessage: message})
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Warn("Task already reached a terminal state")
		return false
	}
	if err != nil {
		logger.Error("Failed to record task failure", "error", err)
		return false
	}
	return true
}
