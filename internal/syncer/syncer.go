// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github-gitee-mirror/internal/database"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/metrics"
	"github-gitee-mirror/internal/mirror"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

// Trigger names what caused a task to be created.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerWebhook  Trigger = "webhook"
	TriggerSchedule Trigger = "schedule"
)

// Mirrorer transfers every ref of one repository to another.
type Mirrorer interface {
	Mirror(ctx context.Context, req mirror.Request) (mirror.Result, error)
}

// Dispatcher hands an admitted task to the worker pool.
type Dispatcher interface {
	Enqueue(ctx context.Context, taskID int64) error
}

// TxFunc runs fn inside a single database transaction.
type TxFunc func(ctx context.Context, fn func(q database.Querier) error) error

// Options tune the sweep and the stale task reaper.
type Options struct {
	// AccountPacing is the pause between accounts during a sweep.
	AccountPacing time.Duration
	// StaleAfter is how long a task may stay syncing before the reaper
	// fails it. Zero disables reaping.
	StaleAfter time.Duration
}

// Syncer is the mirror engine: it admits tasks, executes them on workers and
// runs the periodic sweep.
type Syncer struct {
	q          database.Querier
	withTx     TxFunc
	source     provider.Provider
	target     provider.Provider
	mirrorer   Mirrorer
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

// NewSyncer creates a new Syncer backed by dbpool. source is the platform
// repositories are mirrored from and target the one they are mirrored to.
func NewSyncer(dbpool *pgxpool.Pool, source, target provider.Provider, mirrorer Mirrorer, dispatcher Dispatcher, m *metrics.Metrics, logger *slog.Logger, opts Options) *Syncer {
	return &Syncer{
		q: database.New(dbpool),
		withTx: func(ctx context.Context, fn func(q database.Querier) error) error {
			return database.WithTx(ctx, dbpool, fn)
		},
		source:     source,
		target:     target,
		mirrorer:   mirrorer,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// TriggerRequest asks for one repository of an account to be mirrored.
type TriggerRequest struct {
	AccountID int64
	SourceURL string
	Trigger   Trigger
}

// Trigger admits and dispatches a mirror task. It returns ErrSyncInProgress
// when the repository already has a pending or syncing task, and
// *ErrUnlinkedAccount when the account lacks a credential.
func (s *Syncer) Trigger(ctx context.Context, req TriggerRequest) (model.Task, error) {
	acc, err := database.LookupAccount(ctx, s.q, req.AccountID)
	if err != nil {
		return model.Task{}, err
	}
	if !acc.CanMirror() {
		return model.Task{}, unlinked(acc)
	}
	return s.trigger(ctx, acc, req.SourceURL, req.Trigger)
}

// PushOutcome is the result of a push notification.
type PushOutcome struct {
	Ignored bool
	Reason  string
	Task    model.Task
}

// HandlePush triggers a mirror of cloneURL for a push notification. Accounts
// that cannot mirror are ignored rather than rejected.
func (s *Syncer) HandlePush(ctx context.Context, accountID int64, cloneURL string) (PushOutcome, error) {
	acc, err := database.LookupAccount(ctx, s.q, accountID)
	if errors.Is(err, custom_errors.ErrAccountNotFound) {
		return PushOutcome{Ignored: true, Reason: "account not linked"}, nil
	}
	if err != nil {
		return PushOutcome{}, err
	}
	if !acc.CanMirror() {
		return PushOutcome{Ignored: true, Reason: unlinked(acc).Error()}, nil
	}

	task, err := s.trigger(ctx, acc, cloneURL, TriggerWebhook)
	if err != nil {
		return PushOutcome{}, err
	}
	return PushOutcome{Task: task}, nil
}

func (s *Syncer) trigger(ctx context.Context, acc model.Account, sourceURL string, trigger Trigger) (model.Task, error) {
	sourceURL = provider.EnsureGitSuffix(strings.TrimSpace(sourceURL))
	ref, err := provider.ParseRepoRef(sourceURL)
	if err != nil {
		return model.Task{}, err
	}
	targetURL := s.target.RepositoryURL(provider.RepoRef{Namespace: acc.Gitee.Handle(), Name: ref.Name})

	logger := s.logger.With("account_id", acc.ID, "source_url", sourceURL, "trigger", trigger)

	task, err := s.admit(ctx, acc.ID, sourceURL, targetURL)
	if errors.Is(err, custom_errors.ErrSyncInProgress) {
		s.metrics.TasksRejected.WithLabelValues(string(trigger)).Inc()
		logger.Info("Sync already in progress, not admitting task")
		return model.Task{}, err
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("admitting task: %w", err)
	}
	s.metrics.TasksAdmitted.WithLabelValues(string(trigger)).Inc()
	logger = logger.With("task_id", task.ID)

	if err := s.dispatcher.Enqueue(ctx, task.ID); err != nil {
		logger.Error("Failed to dispatch task", "error", err)
		s.markFailed(context.WithoutCancel(ctx), logger, task.ID, fmt.Sprintf("failed to dispatch task: %v", err))
		return model.Task{}, fmt.Errorf("dispatching task %d: %w", task.ID, err)
	}

	logger.Info("Task queued")
	return task, nil
}

// admit creates a pending task unless one is already pending or syncing for
// the same account and source URL. The advisory lock serializes concurrent
// admissions of the pair until the transaction ends.
func (s *Syncer) admit(ctx context.Context, accountID int64, sourceURL, targetURL string) (model.Task, error) {
	var created database.SyncTask
	err := s.withTx(ctx, func(q database.Querier) error {
		if err := q.LockSourceRepo(ctx, database.LockSourceRepoParams{AccountID: accountID, SourceUrl: sourceURL}); err != nil {
			return err
		}
		active, err := q.CountActiveTasks(ctx, database.CountActiveTasksParams{AccountID: accountID, SourceUrl: sourceURL})
		if err != nil {
			return err
		}
		if active > 0 {
			return custom_errors.ErrSyncInProgress
		}
		created, err = q.CreateTask(ctx, database.CreateTaskParams{
			AccountID: accountID,
			SourceUrl: sourceURL,
			TargetUrl: targetURL,
		})
		return err
	})
	if err != nil {
		return model.Task{}, err
	}
	return created.ToModel(), nil
}

func unlinked(acc model.Account) *custom_errors.ErrUnlinkedAccount {
	missing := acc.MissingPlatforms()
	names := make([]string, len(missing))
	for i, p := range missing {
		names[i] = string(p)
	}
	return &custom_errors.ErrUnlinkedAccount{AccountID: acc.ID, Missing: names}
}
