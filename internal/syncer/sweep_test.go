// internal/syncer/sweep_test.go
package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

func repo(owner, name string) provider.Repository {
	return provider.Repository{
		Name:     name,
		FullName: owner + "/" + name,
		CloneURL: "https://github.com/" + owner + "/" + name + ".git",
	}
}

func TestSyncer_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("a failing account does not abort the sweep", func(t *testing.T) {
		h := newHarness(
			account(1, "ann", "tok-1", "ann-m", "gt-1"),
			account(2, "bob", "tok-2", "bob-m", "gt-2"),
			account(3, "cy", "tok-3", "cy-m", "gt-3"),
			account(4, "dee", "tok-4", "", ""),
		)
		h.source.repos["tok-1"] = []provider.Repository{repo("ann", "a1"), repo("ann", "a2")}
		h.source.listErr["tok-2"] = &custom_errors.ErrProvider{Platform: "github", Op: "list repositories", StatusCode: 502, Err: errors.New("bad gateway")}
		h.source.repos["tok-3"] = []provider.Repository{repo("cy", "c1")}

		res := h.syncer.Sweep(ctx)

		assert.Equal(t, SweepResult{Accounts: 3, Failed: 1, Admitted: 3}, res)
		require.Len(t, h.store.tasks, 3)
		assert.Equal(t, "https://gitee.com/cy-m/c1.git", h.store.tasks[2].TargetUrl)
		assert.Len(t, h.dispatcher.dispatched(), 3)
		assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.SweepAccounts.WithLabelValues("ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SweepAccounts.WithLabelValues("failed")))
		assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.TasksAdmitted.WithLabelValues("schedule")))
	})

	t.Run("repositories with active tasks are skipped", func(t *testing.T) {
		h := newHarness(account(1, "octo", "tok", "mirror", "gt"))
		h.source.repos["tok"] = []provider.Repository{repo("octo", "alpha"), repo("octo", "beta")}
		_, err := h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: alphaURL, Trigger: TriggerManual})
		require.NoError(t, err)

		res := h.syncer.Sweep(ctx)

		assert.Equal(t, SweepResult{Accounts: 1, Admitted: 1, Skipped: 1}, res)
	})

	t.Run("paces between accounts", func(t *testing.T) {
		h := newHarness(
			account(1, "ann", "tok-1", "ann-m", "gt-1"),
			account(2, "bob", "tok-2", "bob-m", "gt-2"),
			account(3, "cy", "tok-3", "cy-m", "gt-3"),
		)
		h.syncer.opts.AccountPacing = 40 * time.Millisecond

		start := time.Now()
		res := h.syncer.Sweep(ctx)

		assert.Equal(t, 3, res.Accounts)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("stops when cancelled during pacing", func(t *testing.T) {
		h := newHarness(
			account(1, "ann", "tok-1", "ann-m", "gt-1"),
			account(2, "bob", "tok-2", "bob-m", "gt-2"),
		)
		h.syncer.opts.AccountPacing = time.Hour
		cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		res := h.syncer.Sweep(cctx)

		assert.Equal(t, 1, res.Accounts)
	})
}

func TestSyncer_ReapStale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(account(1, "octo", "tok", "mirror", "gt"))
	h.syncer.opts.StaleAfter = time.Hour

	stale, err := h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: alphaURL})
	require.NoError(t, err)
	_, err = h.store.MarkTaskSyncing(ctx, stale.ID)
	require.NoError(t, err)

	h.store.clock = h.store.clock.Add(2 * time.Hour)

	fresh, err := h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: "https://github.com/octo/beta.git"})
	require.NoError(t, err)
	_, err = h.store.MarkTaskSyncing(ctx, fresh.ID)
	require.NoError(t, err)

	ids, err := h.syncer.ReapStale(ctx)

	require.NoError(t, err)
	assert.Equal(t, []int64{stale.ID}, ids)
	reaped := h.store.task(t, stale.ID)
	assert.Equal(t, string(model.TaskFailed), reaped.Status)
	assert.Contains(t, reaped.ErrorMessage.String, "no progress for 1h0m0s")
	assert.Equal(t, string(model.TaskSyncing), h.store.task(t, fresh.ID).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.TasksReaped))

	_, err = h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: alphaURL})
	assert.NoError(t, err, "a reaped repository can be mirrored again")
}

func TestSyncer_ReapStaleLostDispatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(account(1, "octo", "tok", "mirror", "gt"))
	h.syncer.opts.StaleAfter = time.Hour

	// Admitted but never picked up by a worker.
	lost, err := h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: alphaURL})
	require.NoError(t, err)
	h.store.clock = h.store.clock.Add(2 * time.Hour)

	queued, err := h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: "https://github.com/octo/beta.git"})
	require.NoError(t, err)

	ids, err := h.syncer.ReapStale(ctx)

	require.NoError(t, err)
	assert.Equal(t, []int64{lost.ID}, ids)
	assert.Equal(t, string(model.TaskFailed), h.store.task(t, lost.ID).Status)
	assert.Equal(t, string(model.TaskPending), h.store.task(t, queued.ID).Status)

	_, err = h.syncer.Trigger(ctx, TriggerRequest{AccountID: 1, SourceURL: alphaURL})
	require.NoError(t, err, "the repository is admitted again")

	// A late delivery of the reaped task must not start a second transfer.
	err = h.syncer.Execute(ctx, lost.ID)
	var transition *custom_errors.ErrInvalidTransition
	require.ErrorAs(t, err, &transition)
	assert.Empty(t, h.mirrorer.requests)
}

func TestSyncer_ReapStaleDisabled(t *testing.T) {
	h := newHarness()

	ids, err := h.syncer.ReapStale(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, ids)
}
