package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
)

// Store is a thread-safe in-memory GameStore. Games are copied on the way in
// and out, so callers never share slices with the stored record.
type Store struct {
	mu    sync.Mutex
	games map[uuid.UUID]*game.Game
}

// New creates an empty Store.
func New() *Store {
	return &Store{games: make(map[uuid.UUID]*game.Game)}
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return g.Clone(), nil
}

// Insert stores a new game. An existing id is left untouched.
func (s *Store) Insert(_ context.Context, g *game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return nil
	}
	s.games[g.ID] = g.Clone()
	return nil
}

// SaveIfVersion overwrites the game only when the current stored StateVersion
// equals expectedVersion, providing optimistic concurrency safety.
func (s *Store) SaveIfVersion(_ context.Context, g *game.Game, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.games[g.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if cur.StateVersion != expectedVersion {
		return ports.ErrVersionConflict
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *Store) List(_ context.Context, f ports.ListFilter) ([]*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*game.Game{}
	for _, g := range s.games {
		if f.Matches(g) {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
