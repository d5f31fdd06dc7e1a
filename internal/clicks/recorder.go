package clicks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/internal/store"
)

// Recorder persists click events off the redirect path. Events flow
// through a bounded channel into a worker pool; when the buffer is
// full, Record drops the event rather than block the redirect.
//
// Workers run until Close, not until some request context ends: the
// server keeps serving redirects while it shuts down, and an event
// accepted in that window must still reach the log.
type Recorder struct {
	store        store.Store
	logger       *slog.Logger
	cfg          *config.ClicksConfig
	eventCh      chan *domain.ClickEvent
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func NewRecorder(st store.Store, cfg *config.ClicksConfig, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:      st,
		logger:     logger,
		cfg:        cfg,
		eventCh:    make(chan *domain.ClickEvent, cfg.BufferSize),
		shutdownCh: make(chan struct{}),
	}
}

// Record enqueues an event without blocking. A full buffer drops the
// event and logs a warning; the redirect has already been served.
func (r *Recorder) Record(event *domain.ClickEvent) {
	select {
	case r.eventCh <- event:
	default:
		r.logger.Warn("click buffer full, dropping event",
			slog.String("slug", event.Slug))
	}
}

func (r *Recorder) Start() {
	r.wg.Add(r.cfg.Workers)
	for i := 0; i < r.cfg.Workers; i++ {
		go r.worker()
	}

	r.logger.Info("click recorder started",
		slog.Int("workers", r.cfg.Workers),
		slog.Int("buffer_size", r.cfg.BufferSize))
}

// Close stops the workers after draining any buffered events.
func (r *Recorder) Close() {
	r.shutdownOnce.Do(func() {
		close(r.shutdownCh)
		r.wg.Wait()
	})
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.shutdownCh:
			r.drain()
			return
		case event := <-r.eventCh:
			r.persist(event)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case event := <-r.eventCh:
			r.persist(event)
		default:
			return
		}
	}
}

// persist appends the event to the log and then bumps the link's
// running counters. The two writes are not transactional; a failure
// after the append leaves the counter lagging the log, which the next
// aggregation pass tolerates.
func (r *Recorder) persist(event *domain.ClickEvent) {
	backoff := time.Duration(r.cfg.RetryBackoffMs) * time.Millisecond

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err := r.tryPersist(event)
		if err == nil {
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			// Link deleted while the event was in flight. Deletion is
			// authoritative, so drop the event for good.
			r.logger.Info("dropping click for deleted link",
				slog.String("slug", event.Slug))
			return
		}

		r.logger.Warn("failed to persist click",
			slog.String("slug", event.Slug),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < r.cfg.MaxAttempts {
			time.Sleep(backoff * time.Duration(attempt))
		}
	}

	r.logger.Error("giving up on click event",
		slog.String("slug", event.Slug),
		slog.Int("attempts", r.cfg.MaxAttempts))
}

func (r *Recorder) tryPersist(event *domain.ClickEvent) error {
	opCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.AppendClick(opCtx, event); err != nil {
		return err
	}
	return r.store.RecordAccess(opCtx, event.Slug, event.Timestamp)
}
