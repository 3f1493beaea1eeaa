package store

import (
	"context"
	"sync"

	"github.com/smallbiznis/confeitaria/internal/cart/domain"
)

// MemoryStore keeps carts in process memory. Carts are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	carts       map[string][]domain.Line
	subscribers map[string]map[int]func([]domain.Line)
	nextSub     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:       make(map[string][]domain.Line),
		subscribers: make(map[string]map[int]func([]domain.Line)),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.carts[key]), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, lines []domain.Line) error {
	s.mu.Lock()
	if len(lines) == 0 {
		delete(s.carts, key)
	} else {
		s.carts[key] = cloneLines(lines)
	}
	fns := make([]func([]domain.Line), 0, len(s.subscribers[key]))
	for _, fn := range s.subscribers[key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(cloneLines(lines))
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, key string, fn func([]domain.Line)) error {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[int]func([]domain.Line))
	}
	s.subscribers[key][id] = fn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers[key], id)
		if len(s.subscribers[key]) == 0 {
			delete(s.subscribers, key)
		}
		s.mu.Unlock()
	}()
	return nil
}

func cloneLines(lines []domain.Line) []domain.Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]domain.Line, len(lines))
	copy(out, lines)
	return out
}
