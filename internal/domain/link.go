package domain

import "time"

// Link is one slug-keyed record. Slug, OriginalURL and OwnerID are
// immutable after creation; lifecycle mutation touches Active,
// UpdatedAt and the click counters only.
type Link struct {
	Slug         string     `json:"slug"`
	OriginalURL  string     `json:"originalUrl"`
	OwnerID      string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Active       bool       `json:"active"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	OneTimeUse   bool       `json:"oneTimeUse"`
	TotalClicks  int64      `json:"totalClicks"`
	LastAccessed *time.Time `json:"lastAccessed,omitempty"`
	Description  string     `json:"description,omitempty"`
}

// Expired reports whether the link's expiration, if any, has passed.
// A link with no ExpiresAt never expires.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ClickEvent is one entry in a slug's append-only event log. ID is
// assigned at collection time so a retried append stays idempotent.
type ClickEvent struct {
	ID        string    `json:"-"`
	Slug      string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	City      string    `json:"city"`
	Browser   string    `json:"browser"`
	Platform  string    `json:"platform"`
	Referrer  string    `json:"referrer"`
}

// AnalyticsSummary is the fold of a slug's event log: frequency tables
// keyed by category value, and a click histogram keyed by UTC calendar
// date (YYYY-MM-DD).
type AnalyticsSummary struct {
	TotalClicks  int64            `json:"totalClicks"`
	Browsers     map[string]int64 `json:"browsers"`
	Platforms    map[string]int64 `json:"platforms"`
	Countries    map[string]int64 `json:"countries"`
	Referrers    map[string]int64 `json:"referrers"`
	ClicksByDate map[string]int64 `json:"clicksByDate"`
}

type ShortenRequest struct {
	OriginalURL string     `json:"originalUrl"`
	CustomSlug  string     `json:"customSlug,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	OneTimeUse  bool       `json:"oneTimeUse,omitempty"`
	Description string     `json:"description,omitempty"`
}

type ShortenResponse struct {
	Slug        string     `json:"slug"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	OneTimeUse  bool       `json:"oneTimeUse"`
}

// UserLink is the owner-facing list entry; Expired is computed at
// read time rather than stored.
type UserLink struct {
	Slug        string    `json:"slug"`
	ShortURL    string    `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalClicks int64     `json:"totalClicks"`
	Active      bool      `json:"active"`
	Expired     bool      `json:"expired"`
	Description string    `json:"description"`
}
