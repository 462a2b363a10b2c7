// internal/database/dbmock/querier.go

// Package dbmock provides a testify mock of database.Querier shared by the
// packages that depend on persistence.
package dbmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github-gitee-mirror/internal/database"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

func (m *MockQuerier) CountActiveTasks(ctx context.Context, arg database.CountActiveTasksParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockQuerier) CountTasksByStatus(ctx context.Context, accountID int64) ([]database.CountTasksByStatusRow, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]database.CountTasksByStatusRow), args.Error(1)
}
func (m *MockQuerier) CreateTask(ctx context.Context, arg database.CreateTaskParams) (database.SyncTask, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.SyncTask), args.Error(1)
}
func (m *MockQuerier) FailStaleTasks(ctx context.Context, arg database.FailStaleTasksParams) ([]int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockQuerier) GetAccount(ctx context.Context, id int64) (database.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Account), args.Error(1)
}
func (m *MockQuerier) GetTask(ctx context.Context, id int64) (database.SyncTask, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.SyncTask), args.Error(1)
}
func (m *MockQuerier) LinkGitee(ctx context.Context, arg database.LinkAccountParams) (database.Account, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Account), args.Error(1)
}
func (m *MockQuerier) LinkGithub(ctx context.Context, arg database.LinkAccountParams) (database.Account, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.Account), args.Error(1)
}
func (m *MockQuerier) ListLatestTaskStatuses(ctx context.Context, accountID int64) ([]database.ListLatestTaskStatusesRow, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).([]database.ListLatestTaskStatusesRow), args.Error(1)
}
func (m *MockQuerier) ListMirrorableAccounts(ctx context.Context) ([]database.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]database.Account), args.Error(1)
}
func (m *MockQuerier) ListTaskCreationsSince(ctx context.Context, arg database.ListTaskCreationsSinceParams) ([]database.ListTaskCreationsSinceRow, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]database.ListTaskCreationsSinceRow), args.Error(1)
}
func (m *MockQuerier) ListTasks(ctx context.Context, arg database.ListTasksParams) ([]database.SyncTask, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]database.SyncTask), args.Error(1)
}
func (m *MockQuerier) LockSourceRepo(ctx context.Context, arg database.LockSourceRepoParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}
func (m *MockQuerier) MarkTaskCompleted(ctx context.Context, id int64) (database.SyncTask, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.SyncTask), args.Error(1)
}
func (m *MockQuerier) MarkTaskFailed(ctx context.Context, arg database.MarkTaskFailedParams) (database.SyncTask, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(database.SyncTask), args.Error(1)
}
func (m *MockQuerier) MarkTaskSyncing(ctx context.Context, id int64) (database.SyncTask, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.SyncTask), args.Error(1)
}
func (m *MockQuerier) UnlinkGitee(ctx context.Context, id int64) (database.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Account), args.Error(1)
}
func (m *MockQuerier) UnlinkGithub(ctx context.Context, id int64) (database.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(database.Account), args.Error(1)
}
