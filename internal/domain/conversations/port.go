package conversations

import (
	"context"
	"sync"

	"github.com/veritasai/veritas-claims/internal/domain/analysis"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
}

// MemoryRepository keeps sessions in process. Used when no database
// backend carries a session table, and in tests.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*Session)}
}

func (r *MemoryRepository) Save(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Turns = append([]Turn(nil), s.Turns...)
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	cp := *s
	cp.Turns = append([]Turn(nil), s.Turns...)
	return &cp, nil
}
