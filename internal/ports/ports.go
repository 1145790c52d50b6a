package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
)

// Sentinel store errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

// DefaultListLimit caps List when the filter does not set a limit.
const DefaultListLimit = 100

// ListFilter narrows GameStore.List. Zero values match everything.
type ListFilter struct {
	Status game.Status
	// Player matches either the white or the black label.
	Player   string
	TestType string
	Limit    int
}

// Matches reports whether g passes the filter. Stores that cannot push the
// filter down to their backend use it directly.
func (f ListFilter) Matches(g *game.Game) bool {
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	if f.Player != "" && g.WhitePlayer != f.Player && g.BlackPlayer != f.Player {
		return false
	}
	if f.TestType != "" && g.TestType != f.TestType {
		return false
	}
	return true
}

// EffectiveLimit returns Limit, or DefaultListLimit when unset.
func (f ListFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// GameStore is the persistence interface for games. It does not enforce
// domain rules; terminal-state checks happen before SaveIfVersion.
type GameStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error)
	// Insert stores a new game. An id that already exists is left as it is
	// and Insert still returns nil; ids come from uuid.New, so a duplicate
	// means a retried insert of the same game.
	Insert(ctx context.Context, g *game.Game) error
	// SaveIfVersion overwrites the game in a single atomic write only when the
	// stored StateVersion equals expectedVersion. Returns ErrVersionConflict
	// otherwise.
	SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error
	// List returns games matching the filter, newest first.
	List(ctx context.Context, f ListFilter) ([]*game.Game, error)
}

// RateLimiter gates requests by IP and optional client token.
type RateLimiter interface {
	Allow(ip, token string) bool
}
