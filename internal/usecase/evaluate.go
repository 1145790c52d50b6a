package usecase

import (
	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
)

// PositionEvaluator answers stateless questions about a FEN. Nothing is stored.
type PositionEvaluator struct {
	rl ports.RateLimiter
}

func NewPositionEvaluator(rl ports.RateLimiter) *PositionEvaluator {
	return &PositionEvaluator{rl: rl}
}

// Evaluate applies move to fen. Returns rules.ErrInvalidPosition when fen
// does not parse; an illegal move is reported through the evaluation status.
func (e *PositionEvaluator) Evaluate(client Client, fen, move string) (game.Evaluation, error) {
	if !e.rl.Allow(client.IP, client.Token) {
		return game.Evaluation{}, ErrRateLimited
	}
	pos, err := rules.ParsePosition(fen)
	if err != nil {
		return game.Evaluation{}, err
	}
	return game.Evaluate(pos, move), nil
}

// LegalMoves lists the moves available in fen.
func (e *PositionEvaluator) LegalMoves(client Client, fen string) (game.Evaluation, error) {
	if !e.rl.Allow(client.IP, client.Token) {
		return game.Evaluation{}, ErrRateLimited
	}
	pos, err := rules.ParsePosition(fen)
	if err != nil {
		return game.Evaluation{}, err
	}
	return game.Inspect(pos), nil
}
