package handler

import (
	"context"

	"shortlink/internal/domain"
)

type LinkService interface {
	Create(ctx context.Context, ownerID string, req *domain.ShortenRequest) (*domain.ShortenResponse, error)
	Get(ctx context.Context, ownerID, slug string) (*domain.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.UserLink, error)
	Deactivate(ctx context.Context, ownerID, slug string) error
	Delete(ctx context.Context, ownerID, slug string) error
	Resolve(ctx context.Context, slug string) (*domain.Link, error)
	Summarize(ctx context.Context, ownerID, slug string) (*domain.AnalyticsSummary, error)
	ShortURL(slug string) string
}

type ClickRecorder interface {
	Record(event *domain.ClickEvent)
}

type Pinger interface {
	Ping(ctx context.Context) error
}
