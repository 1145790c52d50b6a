package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
)

var ErrRateLimited = errors.New("rate limited")

// Client identifies the caller for rate limiting.
type Client struct {
	IP    string
	Token string
}

// Creator starts new games.
type Creator struct {
	store ports.GameStore
	rl    ports.RateLimiter
	log   zerolog.Logger
	now   func() time.Time
}

func NewCreator(store ports.GameStore, rl ports.RateLimiter, log zerolog.Logger) *Creator {
	return &Creator{store: store, rl: rl, log: log, now: time.Now}
}

// Create stores a fresh game at the standard starting position.
func (c *Creator) Create(ctx context.Context, client Client, labels game.Labels) (*game.Game, error) {
	if !c.rl.Allow(client.IP, client.Token) {
		return nil, ErrRateLimited
	}
	g := game.NewGame(uuid.New(), labels, c.now().UTC())
	if err := c.store.Insert(ctx, g); err != nil {
		return nil, err
	}
	c.log.Info().
		Str("game_id", g.ID.String()).
		Str("white", g.WhitePlayer).
		Str("black", g.BlackPlayer).
		Str("test_type", g.TestType).
		Msg("game created")
	return g, nil
}
