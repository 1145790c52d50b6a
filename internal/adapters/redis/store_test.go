//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	redisstore "github.com/chessbench/chess-arena-api/internal/adapters/redis"
	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
)

func setupStore(t *testing.T) *redisstore.Store {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := redisstore.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return redisstore.New(rdb)
}

func apply(t *testing.T, g *game.Game, mv string) *game.Game {
	t.Helper()
	pos, err := g.Position()
	require.NoError(t, err)
	next, err := g.ApplyMove(pos, mv, time.Now().UTC())
	require.NoError(t, err)
	return next
}

func TestGetByID_NotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestInsertAndGetByID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g := game.NewGame(uuid.New(), game.Labels{BlackPlayer: "model-b"}, time.Now().UTC())
	require.NoError(t, s.Insert(ctx, g))

	got, err := s.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.StartFEN, got.FEN)
	assert.Equal(t, "model-b", got.BlackPlayer)
	assert.Equal(t, game.UnknownLabel, got.WhitePlayer)
	assert.NotNil(t, got.MoveHistory)
	assert.Len(t, got.LegalMoves, 20)
	assert.True(t, g.CreatedAt.Equal(got.CreatedAt))
}

func TestSaveIfVersion(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	g := game.NewGame(uuid.New(), game.Labels{}, time.Now().UTC())
	require.NoError(t, s.Insert(ctx, g))

	first := apply(t, g, "e4")
	second := apply(t, g, "Nf9")
	require.NoError(t, s.SaveIfVersion(ctx, first, 0))
	assert.ErrorIs(t, s.SaveIfVersion(ctx, second, 0), ports.ErrVersionConflict)

	got, err := s.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4"}, got.MoveHistory)
	assert.Equal(t, 1, got.StateVersion)

	lost := apply(t, got, "Ke7")
	require.NoError(t, s.SaveIfVersion(ctx, lost, 1))
	got, err = s.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Winner)
	assert.Equal(t, rules.White, *got.Winner)
	assert.Equal(t, game.StatusInvalidMove, got.Status)

	missing := game.NewGame(uuid.New(), game.Labels{}, time.Now().UTC())
	assert.ErrorIs(t, s.SaveIfVersion(ctx, missing, 0), ports.ErrNotFound)
}

func TestList(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	a := game.NewGame(uuid.New(), game.Labels{WhitePlayer: "alpha", TestType: "blitz"}, base)
	b := game.NewGame(uuid.New(), game.Labels{BlackPlayer: "alpha"}, base.Add(time.Second))
	c := game.NewGame(uuid.New(), game.Labels{TestType: "blitz"}, base.Add(2*time.Second))
	for _, g := range []*game.Game{a, b, c} {
		require.NoError(t, s.Insert(ctx, g))
	}

	all, err := s.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)

	byPlayer, err := s.List(ctx, ports.ListFilter{Player: "alpha"})
	require.NoError(t, err)
	assert.Len(t, byPlayer, 2)

	limited, err := s.List(ctx, ports.ListFilter{TestType: "blitz", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, c.ID, limited[0].ID)
}

func TestList_PagesThroughIndex(t *testing.T) {
	defer redisstore.SetListPageSize(2)()
	s := setupStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		tt := "other"
		if i%2 == 0 {
			tt = "blitz"
		}
		g := game.NewGame(uuid.New(), game.Labels{TestType: tt}, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.Insert(ctx, g))
		ids = append(ids, g.ID)
	}

	all, err := s.List(ctx, ports.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, g := range all {
		assert.Equal(t, ids[4-i], g.ID)
	}

	blitz, err := s.List(ctx, ports.ListFilter{TestType: "blitz", Limit: 2})
	require.NoError(t, err)
	require.Len(t, blitz, 2)
	assert.Equal(t, ids[4], blitz[0].ID)
	assert.Equal(t, ids[2], blitz[1].ID)
}
