package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
)

// MoveSubmitter handles move submission.
type MoveSubmitter struct {
	store ports.GameStore
	rl    ports.RateLimiter
	log   zerolog.Logger
	now   func() time.Time
}

func NewMoveSubmitter(store ports.GameStore, rl ports.RateLimiter, log zerolog.Logger) *MoveSubmitter {
	return &MoveSubmitter{store: store, rl: rl, log: log, now: time.Now}
}

// SubmitMove applies one move for the side to move and persists the result.
//
// An illegal move is not an error: the returned game has status invalid_move.
// Errors are ports.ErrNotFound, game.ErrGameOver, ports.ErrVersionConflict
// when another submission for the same game won the race, or a store error.
func (m *MoveSubmitter) SubmitMove(ctx context.Context, client Client, gameID uuid.UUID, move string) (*game.Game, error) {
	if !m.rl.Allow(client.IP, client.Token) {
		return nil, ErrRateLimited
	}

	g, err := m.store.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return g, game.ErrGameOver
	}

	pos, err := g.Position()
	if err != nil {
		return nil, err
	}

	next, err := g.ApplyMove(pos, move, m.now().UTC())
	if err != nil {
		return g, err
	}

	// CAS against the version we loaded; a concurrent writer makes this fail.
	if err := m.store.SaveIfVersion(ctx, next, g.StateVersion); err != nil {
		return nil, err
	}

	if next.Status.Terminal() {
		ev := m.log.Info().
			Str("game_id", next.ID.String()).
			Str("status", string(next.Status)).
			Str("last_move", next.LastMove()).
			Int("plies", len(next.MoveHistory))
		if next.Winner != nil {
			ev = ev.Str("winner", string(*next.Winner))
		}
		if next.Reason != nil {
			ev = ev.Str("reason", string(*next.Reason))
		}
		ev.Msg("game finished")
	}
	return next, nil
}
