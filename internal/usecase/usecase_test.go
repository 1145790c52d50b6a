package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessbench/chess-arena-api/internal/adapters/memory"
	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
	"github.com/chessbench/chess-arena-api/internal/usecase"
)

var client = usecase.Client{IP: "127.0.0.1"}

type denyAll struct{}

func (denyAll) Allow(_, _ string) bool { return false }

// racingStore lets another writer land between GetByID and SaveIfVersion.
type racingStore struct {
	*memory.Store
	raced bool
}

func (r *racingStore) SaveIfVersion(ctx context.Context, g *game.Game, expected int) error {
	if !r.raced {
		r.raced = true
		cur, err := r.Store.GetByID(ctx, g.ID)
		if err != nil {
			return err
		}
		pos, err := cur.Position()
		if err != nil {
			return err
		}
		other, err := cur.ApplyMove(pos, "d4", cur.UpdatedAt)
		if err != nil {
			return err
		}
		if err := r.Store.SaveIfVersion(ctx, other, cur.StateVersion); err != nil {
			return err
		}
	}
	return r.Store.SaveIfVersion(ctx, g, expected)
}

func TestCreateAndGet(t *testing.T) {
	store := memory.New()
	rl := memory.AlwaysAllow{}
	ctx := context.Background()

	g, err := usecase.NewCreator(store, rl, zerolog.Nop()).Create(ctx, client, game.Labels{WhitePlayer: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", g.WhitePlayer)
	assert.Equal(t, game.UnknownLabel, g.BlackPlayer)

	got, err := usecase.NewGameGetter(store, rl).GetGame(ctx, client, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)

	_, err = usecase.NewGameGetter(store, rl).GetGame(ctx, client, uuid.New())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSubmitMove(t *testing.T) {
	store := memory.New()
	rl := memory.AlwaysAllow{}
	ctx := context.Background()

	g, err := usecase.NewCreator(store, rl, zerolog.Nop()).Create(ctx, client, game.Labels{})
	require.NoError(t, err)
	sub := usecase.NewMoveSubmitter(store, rl, zerolog.Nop())

	next, err := sub.SubmitMove(ctx, client, g.ID, "e4")
	require.NoError(t, err)
	assert.Equal(t, game.StatusContinue, next.Status)
	assert.Equal(t, rules.Black, next.SideToMove)

	stored, err := store.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, next.FEN, stored.FEN)
	assert.Equal(t, 1, stored.StateVersion)

	lost, err := sub.SubmitMove(ctx, client, g.ID, "e4")
	require.NoError(t, err)
	assert.Equal(t, game.StatusInvalidMove, lost.Status)
	require.NotNil(t, lost.Winner)
	assert.Equal(t, rules.White, *lost.Winner)

	over, err := sub.SubmitMove(ctx, client, g.ID, "e5")
	assert.ErrorIs(t, err, game.ErrGameOver)
	require.NotNil(t, over)
	assert.Equal(t, game.StatusInvalidMove, over.Status)

	_, err = sub.SubmitMove(ctx, client, uuid.New(), "e4")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSubmitMove_FullGameToMate(t *testing.T) {
	store := memory.New()
	rl := memory.AlwaysAllow{}
	ctx := context.Background()

	g, err := usecase.NewCreator(store, rl, zerolog.Nop()).Create(ctx, client, game.Labels{})
	require.NoError(t, err)
	sub := usecase.NewMoveSubmitter(store, rl, zerolog.Nop())

	var last *game.Game
	for _, mv := range []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"} {
		last, err = sub.SubmitMove(ctx, client, g.ID, mv)
		require.NoError(t, err, mv)
	}
	assert.Equal(t, game.StatusMate, last.Status)
	require.NotNil(t, last.Winner)
	assert.Equal(t, rules.White, *last.Winner)
	assert.Empty(t, last.LegalMoves)
}

func TestSubmitMove_ConcurrentWriterConflicts(t *testing.T) {
	store := &racingStore{Store: memory.New()}
	rl := memory.AlwaysAllow{}
	ctx := context.Background()

	g, err := usecase.NewCreator(store, rl, zerolog.Nop()).Create(ctx, client, game.Labels{})
	require.NoError(t, err)

	_, err = usecase.NewMoveSubmitter(store, rl, zerolog.Nop()).SubmitMove(ctx, client, g.ID, "e4")
	assert.ErrorIs(t, err, ports.ErrVersionConflict)

	stored, err := store.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"d4"}, stored.MoveHistory)
}

func TestRateLimited(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	_, err := usecase.NewCreator(store, denyAll{}, zerolog.Nop()).Create(ctx, client, game.Labels{})
	assert.ErrorIs(t, err, usecase.ErrRateLimited)
	_, err = usecase.NewMoveSubmitter(store, denyAll{}, zerolog.Nop()).SubmitMove(ctx, client, uuid.New(), "e4")
	assert.ErrorIs(t, err, usecase.ErrRateLimited)
	_, err = usecase.NewLister(store, denyAll{}).List(ctx, client, ports.ListFilter{})
	assert.ErrorIs(t, err, usecase.ErrRateLimited)
	_, err = usecase.NewPositionEvaluator(denyAll{}).LegalMoves(client, rules.StartFEN)
	assert.ErrorIs(t, err, usecase.ErrRateLimited)
}

func TestLister(t *testing.T) {
	store := memory.New()
	rl := memory.AlwaysAllow{}
	ctx := context.Background()
	creator := usecase.NewCreator(store, rl, zerolog.Nop())

	for _, tt := range []string{"blitz", "blitz", "format"} {
		_, err := creator.Create(ctx, client, game.Labels{TestType: tt})
		require.NoError(t, err)
	}

	games, err := usecase.NewLister(store, rl).List(ctx, client, ports.ListFilter{TestType: "blitz"})
	require.NoError(t, err)
	assert.Len(t, games, 2)

	games, err = usecase.NewLister(store, rl).List(ctx, client, ports.ListFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Len(t, games, 3)
}

func TestPositionEvaluator(t *testing.T) {
	ev := usecase.NewPositionEvaluator(memory.AlwaysAllow{})

	res, err := ev.Evaluate(client, rules.StartFEN, "e4")
	require.NoError(t, err)
	assert.Equal(t, game.StatusContinue, res.Status)
	assert.Equal(t, rules.Black, res.SideToMove)

	res, err = ev.Evaluate(client, rules.StartFEN, "e5")
	require.NoError(t, err)
	assert.Equal(t, game.StatusInvalidMove, res.Status)
	assert.Nil(t, res.Winner)
	assert.Equal(t, rules.StartFEN, res.FEN)

	_, err = ev.Evaluate(client, "garbage", "e4")
	assert.True(t, errors.Is(err, rules.ErrInvalidPosition))

	res, err = ev.LegalMoves(client, rules.StartFEN)
	require.NoError(t, err)
	assert.Len(t, res.LegalMoves, 20)
}
