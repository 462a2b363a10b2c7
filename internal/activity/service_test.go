// internal/activity/service_test.go
package activity

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-gitee-mirror/internal/cache"
	"github-gitee-mirror/internal/database"
	"github-gitee-mirror/internal/database/dbmock"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

type fakeSource struct {
	repos []provider.Repository
	err   error
	calls int
	token string
}

func (f *fakeSource) Platform() model.Platform { return model.PlatformGitHub }

func (f *fakeSource) ListRepositories(_ context.Context, token string) ([]provider.Repository, error) {
	f.calls++
	f.token = token
	return f.repos, f.err
}

func (f *fakeSource) EnsureRepository(context.Context, string, provider.RepoRef, string) (bool, error) {
	return false, nil
}

func (f *fakeSource) AuthenticatedURL(rawURL, token string) (string, error) {
	return provider.InjectToken(rawURL, token)
}

func (f *fakeSource) RepositoryURL(ref provider.RepoRef) string {
	return "https://github.com/" + ref.String() + ".git"
}

func linkedAccount(id int64) database.Account {
	return database.Account{
		ID:             id,
		GithubUsername: database.Text("octo"),
		GithubToken:    database.Text("gh-token"),
		GiteeUsername:  database.Text("mirror"),
		GiteeToken:     database.Text("gitee-token"),
	}
}

func newTestService(t *testing.T, q database.Querier, source provider.Provider) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewService(q, source, cache.New(client), 30*time.Minute, time.Minute, logger)
	svc.now = func() time.Time { return now }
	return svc, mr
}

func TestService_RepoOverlay(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{repos: []provider.Repository{
		{Name: "alpha", FullName: "octo/alpha", CloneURL: "https://github.com/octo/alpha.git"},
	}}

	t.Run("builds from history and serves the cache afterwards", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, _ := newTestService(t, mockQ, source)
		source.calls = 0

		mockQ.On("GetAccount", mock.Anything, int64(1)).Return(linkedAccount(1), nil).Once()
		mockQ.On("ListLatestTaskStatuses", mock.Anything, int64(1)).Return([]database.ListLatestTaskStatusesRow{
			{SourceUrl: "https://github.com/octo/alpha", Status: "syncing"},
		}, nil).Once()
		mockQ.On("ListTaskCreationsSince", mock.Anything, mock.MatchedBy(func(arg database.ListTaskCreationsSinceParams) bool {
			return arg.AccountID == 1 && arg.Since.Equal(now.Add(-RepoWindowDays*day))
		})).Return([]database.ListTaskCreationsSinceRow{
			{SourceUrl: "https://github.com/octo/alpha.git", CreatedAt: daysAgo(0)},
		}, nil).Once()

		first, err := svc.RepoOverlay(ctx, 1, false)
		require.NoError(t, err)
		require.Len(t, first, 1)
		require.NotNil(t, first[0].SyncStatus)
		assert.Equal(t, model.TaskSyncing, *first[0].SyncStatus)
		assert.Equal(t, 1, first[0].ActivityData[20])
		assert.Equal(t, "gh-token", source.token)

		second, err := svc.RepoOverlay(ctx, 1, false)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, source.calls, "second read must come from the cache")
		mockQ.AssertExpectations(t)
	})

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, _ := newTestService(t, mockQ, source)
		source.calls = 0

		mockQ.On("GetAccount", mock.Anything, int64(1)).Return(linkedAccount(1), nil).Twice()
		mockQ.On("ListLatestTaskStatuses", mock.Anything, int64(1)).Return([]database.ListLatestTaskStatusesRow{}, nil).Twice()
		mockQ.On("ListTaskCreationsSince", mock.Anything, mock.Anything).Return([]database.ListTaskCreationsSinceRow{}, nil).Twice()

		_, err := svc.RepoOverlay(ctx, 1, false)
		require.NoError(t, err)
		repos, err := svc.RepoOverlay(ctx, 1, true)
		require.NoError(t, err)

		assert.Equal(t, 2, source.calls)
		assert.Nil(t, repos[0].SyncStatus)
		assert.Equal(t, make([]int, RepoWindowDays), repos[0].ActivityData)
		mockQ.AssertExpectations(t)
	})

	t.Run("rejects an account without a source credential", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, _ := newTestService(t, mockQ, source)

		mockQ.On("GetAccount", mock.Anything, int64(2)).Return(database.Account{ID: 2}, nil).Once()

		_, err := svc.RepoOverlay(ctx, 2, false)

		var unlinked *custom_errors.ErrUnlinkedAccount
		require.ErrorAs(t, err, &unlinked)
		assert.Equal(t, []string{"github"}, unlinked.Missing)
		mockQ.AssertNotCalled(t, "ListLatestTaskStatuses", mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, _ := newTestService(t, mockQ, source)

		mockQ.On("GetAccount", mock.Anything, int64(3)).Return(database.Account{}, pgx.ErrNoRows).Once()

		_, err := svc.RepoOverlay(ctx, 3, false)

		assert.ErrorIs(t, err, custom_errors.ErrAccountNotFound)
	})

	t.Run("listing failure is surfaced", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		failing := &fakeSource{err: errors.New("github down")}
		svc, _ := newTestService(t, mockQ, failing)

		mockQ.On("GetAccount", mock.Anything, int64(1)).Return(linkedAccount(1), nil).Once()

		_, err := svc.RepoOverlay(ctx, 1, false)

		assert.ErrorContains(t, err, "github down")
	})
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("account with no history", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, _ := newTestService(t, mockQ, &fakeSource{})

		mockQ.On("GetAccount", mock.Anything, int64(1)).Return(linkedAccount(1), nil).Once()
		mockQ.On("CountTasksByStatus", mock.Anything, int64(1)).Return([]database.CountTasksByStatusRow{}, nil).Once()
		mockQ.On("ListTaskCreationsSince", mock.Anything, mock.MatchedBy(func(arg database.ListTaskCreationsSinceParams) bool {
			return arg.Since.Equal(now.Add(-HeatmapDays * day))
		})).Return([]database.ListTaskCreationsSinceRow{}, nil).Once()

		dash, err := svc.Dashboard(ctx, 1, false)

		require.NoError(t, err)
		assert.Equal(t, model.TaskStats{}, dash.Stats)
		assert.Equal(t, make([]int, HeatmapDays), dash.HeatmapData)
		mockQ.AssertExpectations(t)
	})

	t.Run("includes records outside the repository window", func(t *testing.T) {
		mockQ := new(dbmock.MockQuerier)
		svc, mr := newTestService(t, mockQ, &fakeSource{})

		mockQ.On("GetAccount", mock.Anything, int64(1)).Return(linkedAccount(1), nil).Once()
		mockQ.On("CountTasksByStatus", mock.Anything, int64(1)).Return([]database.CountTasksByStatusRow{
			{Status: "completed", Count: 2},
			{Status: "failed", Count: 1},
		}, nil).Once()
		mockQ.On("ListTaskCreationsSince", mock.Anything, mock.Anything).Return([]database.ListTaskCreationsSinceRow{
			{SourceUrl: "https://github.com/octo/alpha.git", CreatedAt: daysAgo(29)},
			{SourceUrl: "https://github.com/octo/alpha.git", CreatedAt: daysAgo(1)},
			{SourceUrl: "https://github.com/octo/alpha.git", CreatedAt: daysAgo(0)},
		}, nil).Once()

		dash, err := svc.Dashboard(ctx, 1, false)

		require.NoError(t, err)
		assert.Equal(t, model.TaskStats{Total: 3, Failed: 1}, dash.Stats)
		assert.Equal(t, 1, dash.HeatmapData[90])
		assert.Equal(t, 1, dash.HeatmapData[118])
		assert.Equal(t, 1, dash.HeatmapData[119])
		assert.True(t, mr.Exists(cache.DashboardKey(1)))

		cached, err := svc.Dashboard(ctx, 1, false)
		require.NoError(t, err)
		assert.Equal(t, dash, cached)
		mockQ.AssertExpectations(t)
	})
}
