package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"shortlink/internal/domain"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded map implementation of Store, used in
// tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[string]*domain.Link
	clicks map[string][]*domain.ClickEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[string]*domain.Link),
		clicks: make(map[string][]*domain.ClickEvent),
	}
}

func (s *MemoryStore) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.Slug]; exists {
		return ErrSlugTaken
	}
	cp := *link
	s.links[link.Slug] = &cp
	return nil
}

func (s *MemoryStore) GetLink(_ context.Context, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[slug]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *MemoryStore) ListLinksByOwner(_ context.Context, ownerID string) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*domain.Link
	for _, link := range s.links {
		if link.OwnerID == ownerID {
			cp := *link
			links = append(links, &cp)
		}
	}
	// Newest first, matching the SQL ordering.
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (s *MemoryStore) DeactivateLink(_ context.Context, slug string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[slug]
	if !ok {
		return ErrNotFound
	}
	link.Active = false
	link.UpdatedAt = now
	return nil
}

func (s *MemoryStore) DeleteLink(_ context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[slug]; !ok {
		return ErrNotFound
	}
	delete(s.links, slug)
	delete(s.clicks, slug)
	return nil
}

func (s *MemoryStore) AppendClick(_ context.Context, event *domain.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[event.Slug]; !ok {
		return ErrNotFound
	}
	if event.ID != "" {
		for _, existing := range s.clicks[event.Slug] {
			if existing.ID == event.ID {
				return nil
			}
		}
	}
	cp := *event
	s.clicks[event.Slug] = append(s.clicks[event.Slug], &cp)
	return nil
}

func (s *MemoryStore) ListClicks(_ context.Context, slug string) ([]*domain.ClickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*domain.ClickEvent, 0, len(s.clicks[slug]))
	for _, e := range s.clicks[slug] {
		cp := *e
		events = append(events, &cp)
	}
	return events, nil
}

func (s *MemoryStore) RecordAccess(_ context.Context, slug string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[slug]
	if !ok {
		return ErrNotFound
	}
	link.TotalClicks++
	t := at
	link.LastAccessed = &t
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() {}
