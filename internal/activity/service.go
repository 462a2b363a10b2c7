// internal/activity/service.go
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github-gitee-mirror/internal/cache"
	"github-gitee-mirror/internal/database"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

// Service serves the activity views from task history, memoised in the cache.
type Service struct {
	q            database.Querier
	source       provider.Provider
	cache        *cache.Cache
	repoTTL      time.Duration
	dashboardTTL time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewService creates an activity service. source lists the repositories the
// overlay is built over.
func NewService(q database.Querier, source provider.Provider, c *cache.Cache, repoTTL, dashboardTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		q:            q,
		source:       source,
		cache:        c,
		repoTTL:      repoTTL,
		dashboardTTL: dashboardTTL,
		now:          time.Now,
		logger:       logger,
	}
}

// RepoOverlay lists the account's source repositories joined with their
// mirror history. refresh bypasses and repopulates the cache.
func (s *Service) RepoOverlay(ctx context.Context, accountID int64, refresh bool) ([]model.RepoInfo, error) {
	key := cache.RepoListKey(accountID)
	var repos []model.RepoInfo
	if !refresh && s.cached(ctx, key, &repos) {
		return repos, nil
	}

	acc, err := database.LookupAccount(ctx, s.q, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.GitHub.Linked() {
		return nil, &custom_errors.ErrUnlinkedAccount{AccountID: accountID, Missing: []string{string(s.source.Platform())}}
	}

	listed, err := s.source.ListRepositories(ctx, *acc.GitHub.Token)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	rows, err := s.q.ListLatestTaskStatuses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading latest statuses: %w", err)
	}
	latest := make(map[string]model.TaskStatus, len(rows))
	for _, row := range rows {
		latest[RepoKey(row.SourceUrl)] = model.TaskStatus(row.Status)
	}

	now := s.now()
	created, err := s.q.ListTaskCreationsSince(ctx, database.ListTaskCreationsSinceParams{
		AccountID: accountID,
		Since:     now.Add(-RepoWindowDays * day),
	})
	if err != nil {
		return nil, fmt.Errorf("loading task history: %w", err)
	}
	creations := make(map[string][]time.Time)
	for _, row := range created {
		key := RepoKey(row.SourceUrl)
		creations[key] = append(creations[key], row.CreatedAt)
	}

	repos = Overlay(listed, latest, creations, now)
	s.store(ctx, key, repos, s.repoTTL)
	return repos, nil
}

// Dashboard returns the account's task totals and quantized heatmap.
func (s *Service) Dashboard(ctx context.Context, accountID int64, refresh bool) (model.Dashboard, error) {
	key := cache.DashboardKey(accountID)
	var dash model.Dashboard
	if !refresh && s.cached(ctx, key, &dash) {
		return dash, nil
	}

	if _, err := database.LookupAccount(ctx, s.q, accountID); err != nil {
		return model.Dashboard{}, err
	}

	rows, err := s.q.CountTasksByStatus(ctx, accountID)
	if err != nil {
		return model.Dashboard{}, fmt.Errorf("counting tasks: %w", err)
	}
	counts := make(map[model.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[model.TaskStatus(row.Status)] = row.Count
	}

	now := s.now()
	created, err := s.q.ListTaskCreationsSince(ctx, database.ListTaskCreationsSinceParams{
		AccountID: accountID,
		Since:     now.Add(-HeatmapDays * day),
	})
	if err != nil {
		return model.Dashboard{}, fmt.Errorf("loading task history: %w", err)
	}
	times := make([]time.Time, 0, len(created))
	for _, row := range created {
		times = append(times, row.CreatedAt)
	}

	dash = Dashboard(counts, times, now)
	s.store(ctx, key, dash, s.dashboardTTL)
	return dash, nil
}

// cached reads key into dst. Cache failures degrade to a miss.
func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	hit, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := s.cache.SetJSON(ctx, key, v, ttl); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}
