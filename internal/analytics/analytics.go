// Package analytics folds a slug's click log into grouped summaries.
package analytics

import (
	"time"

	"shortlink/internal/domain"
)

// Summarize counts events by browser, platform, country, referrer and
// UTC calendar date. It is a pure fold: the same log always yields the
// same summary, and event order does not affect the counts.
func Summarize(events []*domain.ClickEvent) *domain.AnalyticsSummary {
	summary := &domain.AnalyticsSummary{
		Browsers:     make(map[string]int64),
		Platforms:    make(map[string]int64),
		Countries:    make(map[string]int64),
		Referrers:    make(map[string]int64),
		ClicksByDate: make(map[string]int64),
	}

	for _, e := range events {
		summary.TotalClicks++
		summary.Browsers[e.Browser]++
		summary.Platforms[e.Platform]++
		summary.Countries[e.Country]++
		summary.Referrers[e.Referrer]++

		date := e.Timestamp.UTC().Format(time.DateOnly)
		summary.ClicksByDate[date]++
	}

	return summary
}
