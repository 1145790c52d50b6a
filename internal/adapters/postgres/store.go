package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
)

const gameColumns = `
id, fen, side_to_move, status, winner, reason, legal_moves, move_history,
white_player, black_player, test_type, test_desc, state_version, created_at, updated_at`

const queryGetByID = `SELECT ` + gameColumns + `
FROM games
WHERE id = $1`

const queryList = `SELECT ` + gameColumns + `
FROM games
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR white_player = $2 OR black_player = $2)
  AND ($3 = '' OR test_type = $3)
ORDER BY created_at DESC
LIMIT $4`

const queryInsert = `
INSERT INTO games (` + gameColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (id) DO NOTHING`

// Labels and created_at are immutable and deliberately absent here.
const querySaveIfVersion = `
UPDATE games SET
    fen           = $1,
    side_to_move  = $2,
    status        = $3,
    winner        = $4,
    reason        = $5,
    legal_moves   = $6,
    move_history  = $7,
    state_version = $8,
    updated_at    = $9
WHERE id = $10 AND state_version = $11`

const queryExists = `SELECT EXISTS(SELECT 1 FROM games WHERE id = $1)`

// Store is a PostgreSQL-backed GameStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	row := s.pool.QueryRow(ctx, queryGetByID, id)
	g, err := scanGame(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return g, err
}

// Insert persists a new game. Silently ignores duplicate IDs (ON CONFLICT DO NOTHING).
func (s *Store) Insert(ctx context.Context, g *game.Game) error {
	_, err := s.pool.Exec(ctx, queryInsert,
		g.ID,
		g.FEN,
		string(g.SideToMove),
		string(g.Status),
		colorPtr(g.Winner),
		reasonPtr(g.Reason),
		g.LegalMoves,
		g.MoveHistory,
		g.WhitePlayer,
		g.BlackPlayer,
		g.TestType,
		g.TestDescription,
		g.StateVersion,
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

// SaveIfVersion writes every mutable column in one statement, guarded by the
// stored state_version. Returns ErrVersionConflict when the version differs
// and ErrNotFound when the row does not exist.
func (s *Store) SaveIfVersion(ctx context.Context, g *game.Game, expectedVersion int) error {
	tag, err := s.pool.Exec(ctx, querySaveIfVersion,
		g.FEN,
		string(g.SideToMove),
		string(g.Status),
		colorPtr(g.Winner),
		reasonPtr(g.Reason),
		g.LegalMoves,
		g.MoveHistory,
		g.StateVersion,
		g.UpdatedAt,
		g.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, queryExists, g.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ports.ErrNotFound
	}
	return ports.ErrVersionConflict
}

func (s *Store) List(ctx context.Context, f ports.ListFilter) ([]*game.Game, error) {
	rows, err := s.pool.Query(ctx, queryList,
		string(f.Status), f.Player, f.TestType, f.EffectiveLimit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// scanGame reads a game row from either a pgx.Row or pgx.Rows.
func scanGame(s interface {
	Scan(dest ...any) error
}) (*game.Game, error) {
	var (
		id           uuid.UUID
		fen          string
		sideToMove   string
		statusStr    string
		winnerStr    *string
		reasonStr    *string
		legalMoves   []string
		moveHistory  []string
		whitePlayer  string
		blackPlayer  string
		testType     string
		testDesc     string
		stateVersion int
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := s.Scan(
		&id, &fen, &sideToMove, &statusStr, &winnerStr, &reasonStr, &legalMoves, &moveHistory,
		&whitePlayer, &blackPlayer, &testType, &testDesc, &stateVersion, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g := &game.Game{
		ID:           id,
		FEN:          fen,
		SideToMove:   rules.Color(sideToMove),
		Status:       game.Status(statusStr),
		LegalMoves:   nonNil(legalMoves),
		MoveHistory:  nonNil(moveHistory),
		StateVersion: stateVersion,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Labels: game.Labels{
			WhitePlayer:     whitePlayer,
			BlackPlayer:     blackPlayer,
			TestType:        testType,
			TestDescription: testDesc,
		},
	}
	if winnerStr != nil {
		w := rules.Color(*winnerStr)
		g.Winner = &w
	}
	if reasonStr != nil {
		r := game.Reason(*reasonStr)
		g.Reason = &r
	}
	return g, nil
}

func colorPtr(c *rules.Color) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func reasonPtr(r *game.Reason) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
