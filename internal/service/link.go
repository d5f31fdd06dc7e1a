package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/analytics"
	"shortlink/internal/domain"
	"shortlink/internal/slug"
	"shortlink/internal/store"
)

var (
	ErrNotFound     = errors.New("link not found")
	ErrUnauthorized = errors.New("not the link owner")
	ErrSlugTaken    = errors.New("slug already taken")
	ErrInvalidSlug  = errors.New("invalid slug")
	ErrDeactivated  = errors.New("link deactivated")
	ErrExpired      = errors.New("link expired")
)

// LinkService owns the slug registry: creation, lifecycle transitions,
// redirect resolution and analytics reads.
type LinkService struct {
	store           store.Store
	cache           Cache
	validator       URLValidator
	baseURL         string
	slugLength      int
	slugMaxAttempts int
}

func NewLinkService(st store.Store, cache Cache, validator URLValidator, baseURL string, slugLength, slugMaxAttempts int) *LinkService {
	return &LinkService{
		store:           st,
		cache:           cache,
		validator:       validator,
		baseURL:         baseURL,
		slugLength:      slugLength,
		slugMaxAttempts: slugMaxAttempts,
	}
}

// Create registers a new link. A custom slug is validated and a taken
// slug surfaces ErrSlugTaken to the caller; auto-generated slugs retry
// on collision up to slugMaxAttempts before giving up.
func (s *LinkService) Create(ctx context.Context, ownerID string, req *domain.ShortenRequest) (*domain.ShortenResponse, error) {
	if err := s.validator.ValidateURL(req.OriginalURL); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	link := &domain.Link{
		OriginalURL: req.OriginalURL,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Active:      true,
		ExpiresAt:   req.ExpiresAt,
		OneTimeUse:  req.OneTimeUse,
		Description: req.Description,
	}

	if req.CustomSlug != "" {
		if !slug.Valid(req.CustomSlug) {
			return nil, ErrInvalidSlug
		}
		link.Slug = req.CustomSlug
		if err := s.store.CreateLink(ctx, link); err != nil {
			if errors.Is(err, store.ErrSlugTaken) {
				return nil, ErrSlugTaken
			}
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
		return s.shortenResponse(link), nil
	}

	for attempt := 0; attempt < s.slugMaxAttempts; attempt++ {
		generated, err := slug.Generate(s.slugLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}
		link.Slug = generated

		err = s.store.CreateLink(ctx, link)
		if err == nil {
			return s.shortenResponse(link), nil
		}
		if !errors.Is(err, store.ErrSlugTaken) {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}
	}
	return nil, fmt.Errorf("could not find a free slug after %d attempts: %w", s.slugMaxAttempts, ErrSlugTaken)
}

func (s *LinkService) shortenResponse(link *domain.Link) *domain.ShortenResponse {
	return &domain.ShortenResponse{
		Slug:        link.Slug,
		ShortURL:    s.ShortURL(link.Slug),
		OriginalURL: link.OriginalURL,
		ExpiresAt:   link.ExpiresAt,
		OneTimeUse:  link.OneTimeUse,
	}
}

func (s *LinkService) ShortURL(slug string) string {
	return fmt.Sprintf("%s/s/%s", s.baseURL, slug)
}

// Get returns the link only to its owner; anyone else sees
// ErrUnauthorized.
func (s *LinkService) Get(ctx context.Context, ownerID, slug string) (*domain.Link, error) {
	link, err := s.store.GetLink(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	if link.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return link, nil
}

func (s *LinkService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.UserLink, error) {
	links, err := s.store.ListLinksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	now := time.Now().UTC()
	out := make([]*domain.UserLink, 0, len(links))
	for _, link := range links {
		out = append(out, &domain.UserLink{
			Slug:        link.Slug,
			ShortURL:    s.ShortURL(link.Slug),
			OriginalURL: link.OriginalURL,
			CreatedAt:   link.CreatedAt,
			TotalClicks: link.TotalClicks,
			Active:      link.Active,
			Expired:     link.Expired(now),
			Description: link.Description,
		})
	}
	return out, nil
}

// Deactivate flips the link inactive. Already-inactive links succeed.
func (s *LinkService) Deactivate(ctx context.Context, ownerID, slug string) error {
	if _, err := s.Get(ctx, ownerID, slug); err != nil {
		return err
	}
	if err := s.store.DeactivateLink(ctx, slug, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to deactivate link: %w", err)
	}
	s.cache.Del(slug)
	return nil
}

// Delete removes the link and its click log as one unit.
func (s *LinkService) Delete(ctx context.Context, ownerID, slug string) error {
	if _, err := s.Get(ctx, ownerID, slug); err != nil {
		return err
	}
	if err := s.store.DeleteLink(ctx, slug); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete link: %w", err)
	}
	s.cache.Del(slug)
	return nil
}

// Resolve applies the lifecycle checks in order: missing, deactivated,
// expired. A deactivated link that has also expired still reports
// ErrDeactivated. The cache short-circuits the store lookup only;
// lifecycle is re-evaluated on every call.
func (s *LinkService) Resolve(ctx context.Context, slug string) (*domain.Link, error) {
	link, cached := s.cache.Get(slug)
	if !cached {
		var err error
		link, err = s.store.GetLink(ctx, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to find link: %w", err)
		}
		s.cache.Set(slug, link)
	}

	if !link.Active {
		return nil, ErrDeactivated
	}
	if link.Expired(time.Now().UTC()) {
		return nil, ErrExpired
	}
	return link, nil
}

// Summarize folds the slug's click log into an analytics summary.
// Owner-only, like Get.
func (s *LinkService) Summarize(ctx context.Context, ownerID, slug string) (*domain.AnalyticsSummary, error) {
	if _, err := s.Get(ctx, ownerID, slug); err != nil {
		return nil, err
	}

	events, err := s.store.ListClicks(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	return analytics.Summarize(events), nil
}
