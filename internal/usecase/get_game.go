package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
)

// GameGetter handles single-game retrieval.
type GameGetter struct {
	store ports.GameStore
	rl    ports.RateLimiter
}

func NewGameGetter(store ports.GameStore, rl ports.RateLimiter) *GameGetter {
	return &GameGetter{store: store, rl: rl}
}

func (g *GameGetter) GetGame(ctx context.Context, client Client, id uuid.UUID) (*game.Game, error) {
	if !g.rl.Allow(client.IP, client.Token) {
		return nil, ErrRateLimited
	}
	return g.store.GetByID(ctx, id)
}
