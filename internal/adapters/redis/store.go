// Package redis stores games as JSON documents in Redis. Each game lives
// under its own key; a sorted set scored by creation time backs List.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
)

const (
	keyPrefix = "chess:game:"
	indexKey  = "chess:games"
)

// Store is a Redis-backed GameStore.
type Store struct {
	rdb *goredis.Client
}

// New wraps an existing client.
func New(rdb *goredis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// record is the stored document shape.
type record struct {
	ID              uuid.UUID `json:"id"`
	FEN             string    `json:"fen"`
	SideToMove      string    `json:"sideToMove"`
	Status          string    `json:"status"`
	Winner          *string   `json:"winner,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	LegalMoves      []string  `json:"legalMoves"`
	MoveHistory     []string  `json:"moveHistory"`
	WhitePlayer     string    `json:"whitePlayer"`
	BlackPlayer     string    `json:"blackPlayer"`
	TestType        string    `json:"testType"`
	TestDescription string    `json:"testDescription"`
	StateVersion    int       `json:"stateVersion"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func gameKey(id uuid.UUID) string { return keyPrefix + id.String() }

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	return s.get(ctx, s.rdb, id)
}

// Insert writes g only if its key is free, and indexes it for List.
func (s *Store) Insert(ctx context.Context, g *game.Game) error {
	raw, err := json.Marshal(toRecord(g))
	if err != nil {
		return err
	}
	created, err := s.rdb.SetNX(ctx, gameKey(g.ID), raw, 0).Result()
	if err != nil || !created {
		return err
	}
	return s.rdb.ZAdd(ctx, indexKey, goredis.Z{
		Score:  float64(g.CreatedAt.UnixNano()),
		Member: g.ID.String(),
	}).Err()
}

// SaveIfVersion watches the game key, compares the stored version and
// overwrites the document in a MULTI block. A concurrent write between the
// read and EXEC aborts the transaction and is reported as a conflict.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	raw, err := json.Marshal(toRecord(g))
	if err != nil {
		return err
	}
	key := gameKey(g.ID)

	err = s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := s.get(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		if cur.StateVersion != expectedVersion {
			return ports.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return ports.ErrVersionConflict
	}
	return err
}

// listPageSize is how many index entries List reads per round trip.
var listPageSize int64 = 100

// List pages through the creation index newest first, fetching each page of
// documents with one MGET and filtering in process.
func (s *Store) List(ctx context.Context, f ports.ListFilter) ([]*game.Game, error) {
	limit := f.EffectiveLimit()
	out := []*game.Game{}

	for start := int64(0); ; start += listPageSize {
		ids, err := s.rdb.ZRevRange(ctx, indexKey, start, start+listPageSize-1).Result()
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return out, nil
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = keyPrefix + id
		}
		vals, err := s.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, err
		}

		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				// index entry whose document is gone
				continue
			}
			var r record
			if err := json.Unmarshal([]byte(raw), &r); err != nil {
				return nil, fmt.Errorf("decode game %s: %w", ids[i], err)
			}
			g := r.toGame()
			if !f.Matches(g) {
				continue
			}
			out = append(out, g)
			if len(out) == limit {
				return out, nil
			}
		}

		if int64(len(ids)) < listPageSize {
			return out, nil
		}
	}
}

// getter is satisfied by both the client and a watched transaction.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *Store) get(ctx context.Context, c getter, id uuid.UUID) (*game.Game, error) {
	raw, err := c.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return r.toGame(), nil
}

func toRecord(g *game.Game) record {
	r := record{
		ID:              g.ID,
		FEN:             g.FEN,
		SideToMove:      string(g.SideToMove),
		Status:          string(g.Status),
		LegalMoves:      g.LegalMoves,
		MoveHistory:     g.MoveHistory,
		WhitePlayer:     g.WhitePlayer,
		BlackPlayer:     g.BlackPlayer,
		TestType:        g.TestType,
		TestDescription: g.TestDescription,
		StateVersion:    g.StateVersion,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	if g.Winner != nil {
		w := string(*g.Winner)
		r.Winner = &w
	}
	if g.Reason != nil {
		reason := string(*g.Reason)
		r.Reason = &reason
	}
	return r
}

func (r record) toGame() *game.Game {
	g := &game.Game{
		ID:           r.ID,
		FEN:          r.FEN,
		SideToMove:   rules.Color(r.SideToMove),
		Status:       game.Status(r.Status),
		LegalMoves:   r.LegalMoves,
		MoveHistory:  r.MoveHistory,
		StateVersion: r.StateVersion,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Labels: game.Labels{
			WhitePlayer:     r.WhitePlayer,
			BlackPlayer:     r.BlackPlayer,
			TestType:        r.TestType,
			TestDescription: r.TestDescription,
		},
	}
	if g.LegalMoves == nil {
		g.LegalMoves = []string{}
	}
	if g.MoveHistory == nil {
		g.MoveHistory = []string{}
	}
	if r.Winner != nil {
		w := rules.Color(*r.Winner)
		g.Winner = &w
	}
	if r.Reason != nil {
		reason := game.Reason(*r.Reason)
		g.Reason = &reason
	}
	return g
}
