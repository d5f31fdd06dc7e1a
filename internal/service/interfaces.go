package service

import "shortlink/internal/domain"

type Cache interface {
	Get(slug string) (*domain.Link, bool)
	Set(slug string, link *domain.Link)
	Del(slug string)
}

type URLValidator interface {
	ValidateURL(rawURL string) error
}
