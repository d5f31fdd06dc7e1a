package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shortlink/internal/config"
	"shortlink/internal/domain"
)

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS links (
			slug          TEXT PRIMARY KEY,
			original_url  TEXT NOT NULL,
			owner_id      TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at    TIMESTAMPTZ,
			one_time_use  BOOLEAN NOT NULL DEFAULT FALSE,
			total_clicks  BIGINT NOT NULL DEFAULT 0,
			last_accessed TIMESTAMPTZ,
			description   TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS links_owner_idx ON links (owner_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS clicks (
			id        TEXT PRIMARY KEY,
			slug      TEXT NOT NULL REFERENCES links (slug) ON DELETE CASCADE,
			ts        TIMESTAMPTZ NOT NULL,
			ip        TEXT NOT NULL DEFAULT '',
			country   TEXT NOT NULL DEFAULT '',
			region    TEXT NOT NULL DEFAULT '',
			city      TEXT NOT NULL DEFAULT '',
			browser   TEXT NOT NULL DEFAULT '',
			platform  TEXT NOT NULL DEFAULT '',
			referrer  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS clicks_slug_idx ON clicks (slug, ts);
	`)
	return err
}

func (s *PostgresStore) CreateLink(ctx context.Context, link *domain.Link) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO links (slug, original_url, owner_id, created_at, updated_at,
			active, expires_at, one_time_use, total_clicks, last_accessed, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO NOTHING`,
		link.Slug, link.OriginalURL, link.OwnerID, link.CreatedAt, link.UpdatedAt,
		link.Active, link.ExpiresAt, link.OneTimeUse, link.TotalClicks,
		link.LastAccessed, link.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlugTaken
	}
	return nil
}

func (s *PostgresStore) GetLink(ctx context.Context, slug string) (*domain.Link, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT slug, original_url, owner_id, created_at, updated_at,
			active, expires_at, one_time_use, total_clicks, last_accessed, description
		FROM links WHERE slug = $1`, slug)

	link, err := scanLink(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

func (s *PostgresStore) ListLinksByOwner(ctx context.Context, ownerID string) ([]*domain.Link, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slug, original_url, owner_id, created_at, updated_at,
			active, expires_at, one_time_use, total_clicks, last_accessed, description
		FROM links WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*domain.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (s *PostgresStore) DeactivateLink(ctx context.Context, slug string, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE links SET active = FALSE, updated_at = $2 WHERE slug = $1`,
		slug, now,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteLink(ctx context.Context, slug string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM clicks WHERE slug = $1`, slug); err != nil {
		return fmt.Errorf("failed to delete clicks: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM links WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) AppendClick(ctx context.Context, event *domain.ClickEvent) error {
	// The collector assigns event IDs, so a retry after a partial
	// failure cannot double-append.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clicks (id, slug, ts, ip, country, region, city, browser, platform, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.Slug, event.Timestamp, event.IP, event.Country, event.Region,
		event.City, event.Browser, event.Platform, event.Referrer,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to append click: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListClicks(ctx context.Context, slug string) ([]*domain.ClickEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, ts, ip, country, region, city, browser, platform, referrer
		FROM clicks WHERE slug = $1 ORDER BY ts`, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var events []*domain.ClickEvent
	for rows.Next() {
		var e domain.ClickEvent
		if err := rows.Scan(&e.ID, &e.Slug, &e.Timestamp, &e.IP, &e.Country, &e.Region,
			&e.City, &e.Browser, &e.Platform, &e.Referrer); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) RecordAccess(ctx context.Context, slug string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE links SET total_clicks = total_clicks + 1, last_accessed = $2
		WHERE slug = $1`, slug, at)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	var l domain.Link
	err := row.Scan(&l.Slug, &l.OriginalURL, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
		&l.Active, &l.ExpiresAt, &l.OneTimeUse, &l.TotalClicks, &l.LastAccessed,
		&l.Description)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	// 23503 is foreign_key_violation: the click's slug no longer exists.
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
