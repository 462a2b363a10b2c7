// internal/activity/aggregate.go

// Package activity builds the read-side views over mirror task history: the
// per-repository overlay and the account dashboard.
package activity

import (
	"time"

	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/provider"
)

const (
	// RepoWindowDays is the length of a repository's activity array.
	RepoWindowDays = 21
	// HeatmapDays is the length of the dashboard heatmap.
	HeatmapDays = 120
)

const day = 24 * time.Hour

// DailyCounts buckets times into a days-long array of per-day counts, the
// oldest day at index 0 and the day containing now at index days-1. Times in
// the future or older than the window are ignored.
func DailyCounts(times []time.Time, now time.Time, days int) []int {
	counts := make([]int, days)
	for _, t := range times {
		age := now.Sub(t)
		if age < 0 {
			continue
		}
		ago := int(age / day)
		if ago >= days {
			continue
		}
		counts[days-1-ago]++
	}
	return counts
}

// Quantize maps a raw daily count onto the five heatmap levels.
func Quantize(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 2:
		return 1
	case n <= 5:
		return 2
	case n <= 10:
		return 3
	default:
		return 4
	}
}

// RepoKey normalises a clone URL so records and listings compare equal
// regardless of a trailing .git.
func RepoKey(cloneURL string) string {
	return provider.EnsureGitSuffix(cloneURL)
}

// Overlay joins each repository with its latest task status and its task
// creations over the last RepoWindowDays days. Both maps are keyed by RepoKey.
func Overlay(repos []provider.Repository, latest map[string]model.TaskStatus, creations map[string][]time.Time, now time.Time) []model.RepoInfo {
	out := make([]model.RepoInfo, 0, len(repos))
	for _, r := range repos {
		key := RepoKey(r.CloneURL)
		info := model.RepoInfo{
			Name:         r.Name,
			FullName:     r.FullName,
			HTMLURL:      r.HTMLURL,
			Description:  r.Description,
			Private:      r.Private,
			CloneURL:     r.CloneURL,
			ActivityData: DailyCounts(creations[key], now, RepoWindowDays),
		}
		if status, ok := latest[key]; ok {
			info.SyncStatus = &status
		}
		out = append(out, info)
	}
	return out
}

// Dashboard computes the account summary from per-status totals and the task
// creation times of the last HeatmapDays days.
func Dashboard(counts map[model.TaskStatus]int64, creations []time.Time, now time.Time) model.Dashboard {
	var stats model.TaskStats
	for status, n := range counts {
		stats.Total += n
		switch status {
		case model.TaskSyncing:
			stats.Active += n
		case model.TaskPending:
			stats.Queued += n
		case model.TaskFailed:
			stats.Failed += n
		}
	}

	heatmap := DailyCounts(creations, now, HeatmapDays)
	for i, n := range heatmap {
		heatmap[i] = Quantize(n)
	}
	return model.Dashboard{Stats: stats, HeatmapData: heatmap}
}
