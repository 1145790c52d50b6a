package usecase

import (
	"context"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
)

// MaxListLimit bounds the page size a caller may ask for.
const MaxListLimit = 500

// Lister returns stored games for dashboards and result collection.
type Lister struct {
	store ports.GameStore
	rl    ports.RateLimiter
}

func NewLister(store ports.GameStore, rl ports.RateLimiter) *Lister {
	return &Lister{store: store, rl: rl}
}

// List returns games matching f, newest first. Limits above MaxListLimit are clamped.
func (l *Lister) List(ctx context.Context, client Client, f ports.ListFilter) ([]*game.Game, error) {
	if !l.rl.Allow(client.IP, client.Token) {
		return nil, ErrRateLimited
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return l.store.List(ctx, f)
}
