package store

import (
	"context"
	"errors"
	"time"

	"shortlink/internal/domain"
)

var (
	// ErrSlugTaken is returned by CreateLink when the slug already
	// exists, regardless of owner.
	ErrSlugTaken = errors.New("slug already taken")

	// ErrNotFound is returned when no link exists for the given slug.
	ErrNotFound = errors.New("link not found")
)

// Store is the persistence boundary: a slug-keyed link table plus an
// append-only click log per slug.
type Store interface {
	// CreateLink inserts the link only if its slug is free. The check
	// and the insert are atomic; on a taken slug it returns
	// ErrSlugTaken.
	CreateLink(ctx context.Context, link *domain.Link) error

	GetLink(ctx context.Context, slug string) (*domain.Link, error)

	// ListLinksByOwner returns the owner's links newest first.
	ListLinksByOwner(ctx context.Context, ownerID string) ([]*domain.Link, error)

	// DeactivateLink clears the active flag. Deactivating an already
	// inactive link is a no-op, not an error.
	DeactivateLink(ctx context.Context, slug string, now time.Time) error

	// DeleteLink removes the link and its entire click log atomically.
	DeleteLink(ctx context.Context, slug string) error

	// AppendClick adds one event to the slug's click log. Appending to
	// a deleted slug returns ErrNotFound.
	AppendClick(ctx context.Context, event *domain.ClickEvent) error

	ListClicks(ctx context.Context, slug string) ([]*domain.ClickEvent, error)

	// RecordAccess bumps the denormalized click counter and the
	// last-accessed timestamp.
	RecordAccess(ctx context.Context, slug string, at time.Time) error

	Ping(ctx context.Context) error
	Close()
}
