// Package analysis provides helpers for ranking requests, used by the
// assignment dispatcher to decide which request is served first.
package analysis

import (
	"sort"
	"time"

	"reqtrack/backend/internal/config"
	"reqtrack/backend/internal/models"
)

// GetPriorityWeight returns the dispatch weight for a priority.
// It returns 0 if the priority is not recognized.
func GetPriorityWeight(priority string) int {
	return config.PriorityWeights[priority]
}

// agingBoost gives long-waiting requests a small edge so low-priority
// requests are not starved indefinitely. One point per full waiting day.
func agingBoost(createdAt time.Time, now time.Time) int {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RankForDispatch orders requests by priority weight plus aging boost,
// highest first. Ties keep the oldest request first.
func RankForDispatch(requests []models.Request, now time.Time) []models.Request {
	ranked := make([]models.Request, len(requests))
	copy(ranked, requests)

	sort.SliceStable(ranked, func(i, j int) bool {
		wi := GetPriorityWeight(ranked[i].Priority) + agingBoost(ranked[i].CreatedAt, now)
		wj := GetPriorityWeight(ranked[j].Priority) + agingBoost(ranked[j].CreatedAt, now)
		if wi != wj {
			return wi > wj
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})
	return ranked
}
