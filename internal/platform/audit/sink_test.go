package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memStore struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
	block   chan struct{}
}

func (m *memStore) Insert(_ context.Context, e *Entry) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]*Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.entries) {
		return nil, len(m.entries), nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], len(m.entries), nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func closeSink(t *testing.T, s *Sink) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestSink_PersistsEntries(t *testing.T) {
	store := &memStore{}
	s := NewSink(store, 16, zerolog.Nop())

	uid := int64(3)
	for i := 0; i < 5; i++ {
		s.Record(Entry{UserID: &uid, Action: "create", Route: "/api/patients"})
	}
	closeSink(t, s)

	if store.count() != 5 {
		t.Fatalf("expected 5 persisted entries, got %d", store.count())
	}
	if store.entries[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
	if s.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", s.Dropped())
	}
}

func TestSink_DropsWhenFull(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	s := NewSink(store, 2, zerolog.Nop())

	// The drainer takes one entry and blocks in Insert; two more fill the
	// queue and the rest must be dropped without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.Record(Entry{Action: "read", Route: "/api/patients/1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	if s.Dropped() < 7 {
		t.Errorf("expected at least 7 drops, got %d", s.Dropped())
	}

	close(store.block)
	closeSink(t, s)
}

func TestSink_StoreFailureIsSwallowed(t *testing.T) {
	store := &memStore{err: errors.New("relation audit_event does not exist")}
	s := NewSink(store, 4, zerolog.Nop())

	s.Record(Entry{Action: "delete", Route: "/api/patients/9"})
	closeSink(t, s)

	if s.Failed() != 1 {
		t.Errorf("expected 1 failed write, got %d", s.Failed())
	}
}

func TestSink_RecordAfterClose(t *testing.T) {
	s := NewSink(&memStore{}, 4, zerolog.Nop())
	closeSink(t, s)

	s.Record(Entry{Action: "read", Route: "/api/patients"})
	if s.Dropped() != 1 {
		t.Errorf("expected entry after close to be dropped, got %d", s.Dropped())
	}
	closeSink(t, s)
}

func TestRecorderFunc(t *testing.T) {
	var got Entry
	var r Recorder = RecorderFunc(func(e Entry) { got = e })
	r.Record(Entry{Action: "login"})
	if got.Action != "login" {
		t.Errorf("expected login, got %q", got.Action)
	}
}
