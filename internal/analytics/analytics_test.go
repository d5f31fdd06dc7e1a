package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shortlink/internal/analytics"
	"shortlink/internal/domain"
)

func event(browser, platform, country, referrer string, ts time.Time) *domain.ClickEvent {
	return &domain.ClickEvent{
		Browser:   browser,
		Platform:  platform,
		Country:   country,
		Referrer:  referrer,
		Timestamp: ts,
	}
}

func TestSummarize_KnownDistribution(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	events := []*domain.ClickEvent{
		event("Chrome", "Windows", "US", "Direct", day1),
		event("Firefox", "MacOS", "US", "Direct", day1),
		event("Chrome", "Windows", "CA", "https://twitter.com", day2),
	}

	summary := analytics.Summarize(events)

	assert.Equal(t, int64(3), summary.TotalClicks)
	assert.Equal(t, map[string]int64{"Chrome": 2, "Firefox": 1}, summary.Browsers)
	assert.Equal(t, map[string]int64{"Windows": 2, "MacOS": 1}, summary.Platforms)
	assert.Equal(t, map[string]int64{"US": 2, "CA": 1}, summary.Countries)
	assert.Equal(t, map[string]int64{"Direct": 2, "https://twitter.com": 1}, summary.Referrers)
	assert.Equal(t, map[string]int64{"2024-01-01": 2, "2024-01-02": 1}, summary.ClicksByDate)
}

func TestSummarize_Empty(t *testing.T) {
	summary := analytics.Summarize(nil)

	assert.Equal(t, int64(0), summary.TotalClicks)
	assert.Empty(t, summary.Browsers)
	assert.Empty(t, summary.Platforms)
	assert.Empty(t, summary.Countries)
	assert.Empty(t, summary.Referrers)
	assert.Empty(t, summary.ClicksByDate)

	// Maps are allocated so the JSON encoding is {} rather than null.
	assert.NotNil(t, summary.Browsers)
	assert.NotNil(t, summary.ClicksByDate)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	day := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	a := event("Chrome", "Windows", "US", "Direct", day)
	b := event("Safari", "iOS", "FR", "https://news.ycombinator.com", day.Add(time.Hour))

	first := analytics.Summarize([]*domain.ClickEvent{a, b})
	second := analytics.Summarize([]*domain.ClickEvent{b, a})

	assert.Equal(t, first, second)
}

func TestSummarize_DateBucketsAreUTC(t *testing.T) {
	// 23:30 in UTC-5 is 04:30 the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)

	summary := analytics.Summarize([]*domain.ClickEvent{
		event("Chrome", "Windows", "US", "Direct", ts),
	})

	assert.Equal(t, map[string]int64{"2024-01-02": 1}, summary.ClicksByDate)
}
