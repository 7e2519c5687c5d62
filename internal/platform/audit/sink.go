package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const storeTimeout = 5 * time.Second

// Sink is a Recorder backed by a bounded queue. Record never blocks: when
// the queue is full the entry is dropped and counted.
type Sink struct {
	store   Store
	logger  zerolog.Logger
	queue   chan Entry
	dropped atomic.Int64
	failed  atomic.Int64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

// NewSink starts the drainer goroutine. Call Close to flush and stop it.
func NewSink(store Store, size int, logger zerolog.Logger) *Sink {
	if size <= 0 {
		size = 1
	}
	s := &Sink{
		store:  store,
		logger: logger,
		queue:  make(chan Entry, size),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Sink) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- e:
	default:
		n := s.dropped.Add(1)
		s.logger.Warn().
			Str("action", e.Action).
			Str("route", e.Route).
			Int64("dropped_total", n).
			Msg("audit queue full, entry dropped")
	}
}

// Dropped returns how many entries were discarded because the queue was
// full or the sink was closed.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Failed returns how many entries the store rejected.
func (s *Sink) Failed() int64 { return s.failed.Load() }

func (s *Sink) drain() {
	defer close(s.done)
	for e := range s.queue {
		s.write(e)
	}
}

func (s *Sink) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.store.Insert(ctx, &e); err != nil {
		s.failed.Add(1)
		s.logger.Error().Err(err).
			Str("action", e.Action).
			Str("route", e.Route).
			Str("request_id", e.RequestID).
			Msg("failed to persist audit entry")
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to
// expire.
func (s *Sink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
