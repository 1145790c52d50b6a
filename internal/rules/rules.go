// Package rules adapts github.com/notnil/chess to the small surface the
// transition engine needs. Positions are immutable values: every operation
// returns a new Position and never touches the receiver.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidPosition is returned when a FEN string cannot be parsed.
var ErrInvalidPosition = errors.New("invalid position")

// Color is the side to move, encoded as on the wire.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// DrawReason names the draw rule a position satisfies.
type DrawReason string

const (
	DrawNone                 DrawReason = ""
	DrawThreefoldRepetition  DrawReason = "threefold_repetition"
	DrawInsufficientMaterial DrawReason = "insufficient_material"
	DrawFiftyMoveRule        DrawReason = "50_move_rule"
)

// Position is a chess position together with the history needed to detect
// repetitions. The zero value is not usable; build one with StartPosition,
// ParsePosition or Replay.
type Position struct {
	g *chess.Game
}

// MoveResult is the outcome of Position.Apply. A rejected move is a normal
// result, not an error.
type MoveResult struct {
	Applied  bool
	Position Position
	// SAN is the canonical notation of the applied move, including any
	// check or mate suffix.
	SAN string
}

// StartPosition returns the standard initial position.
func StartPosition() Position {
	return Position{g: chess.NewGame()}
}

// ParsePosition decodes a FEN string. Malformed input wraps ErrInvalidPosition.
func ParsePosition(fen string) (Position, error) {
	if strings.TrimSpace(fen) == "" {
		return Position{}, fmt.Errorf("%w: empty fen", ErrInvalidPosition)
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	g := chess.NewGame(opt)
	if err := checkKings(g.Position().Board()); err != nil {
		return Position{}, err
	}
	return Position{g: g}, nil
}

// checkKings requires exactly one king per side.
func checkKings(b *chess.Board) error {
	var white, black int
	for _, pc := range b.SquareMap() {
		switch pc {
		case chess.WhiteKing:
			white++
		case chess.BlackKing:
			black++
		}
	}
	if white != 1 || black != 1 {
		return fmt.Errorf("%w: need one king per side, have %d white and %d black",
			ErrInvalidPosition, white, black)
	}
	return nil
}

// Replay applies SAN moves from the standard start. Unlike ParsePosition the
// result remembers every earlier position, so repetition draws are detected.
func Replay(moves []string) (Position, error) {
	pos := StartPosition()
	for i, mv := range moves {
		res := pos.Apply(mv)
		if !res.Applied {
			return Position{}, fmt.Errorf("replay ply %d: move %q not legal", i, mv)
		}
		pos = res.Position
	}
	return pos, nil
}

// FEN serializes the position.
func (p Position) FEN() string {
	return p.g.Position().String()
}

// SideToMove reports whose turn it is.
func (p Position) SideToMove() Color {
	return colorOf(p.g.Position().Turn())
}

// LegalMoves lists every legal move in SAN, in move generator order.
func (p Position) LegalMoves() []string {
	pos := p.g.Position()
	valid := p.g.ValidMoves()
	out := make([]string, 0, len(valid))
	for _, m := range valid {
		out = append(out, chess.AlgebraicNotation{}.Encode(pos, m))
	}
	return out
}

// Apply plays moveText if it is the SAN of a legal move. Comparison is exact
// and case-sensitive; a trailing "+" or "#" is optional on input.
func (p Position) Apply(moveText string) MoveResult {
	want := stripCheckSuffix(moveText)
	if want == "" {
		return MoveResult{}
	}

	pos := p.g.Position()
	for _, m := range p.g.ValidMoves() {
		san := chess.AlgebraicNotation{}.Encode(pos, m)
		if stripCheckSuffix(san) != want {
			continue
		}
		next := p.g.Clone()
		if err := next.Move(m); err != nil {
			return MoveResult{}
		}
		return MoveResult{Applied: true, Position: Position{g: next}, SAN: san}
	}
	return MoveResult{}
}

// IsCheckmate reports whether the side to move is mated.
func (p Position) IsCheckmate() bool {
	return p.g.Position().Status() == chess.Checkmate
}

// IsStalemate reports whether the side to move has no legal move and is not
// in check.
func (p Position) IsStalemate() bool {
	return p.g.Position().Status() == chess.Stalemate
}

// DrawReason returns the first draw rule that applies, checked in the order
// threefold repetition, insufficient material, fifty-move rule.
func (p Position) DrawReason() DrawReason {
	eligible := p.g.EligibleDraws()
	method := p.automaticDraw()

	if hasMethod(eligible, chess.ThreefoldRepetition) {
		return DrawThreefoldRepetition
	}
	if method == chess.InsufficientMaterial {
		return DrawInsufficientMaterial
	}
	if hasMethod(eligible, chess.FiftyMoveRule) || method == chess.SeventyFiveMoveRule {
		return DrawFiftyMoveRule
	}
	return DrawNone
}

// automaticDraw reports the automatic draw of the current position alone.
// A game's Method sticks once set, so it is read from a game rebuilt from
// the current FEN. Repetitions come from EligibleDraws, which is computed
// from the live history on every call.
func (p Position) automaticDraw() chess.Method {
	opt, err := chess.FEN(p.FEN())
	if err != nil {
		return chess.NoMethod
	}
	return chess.NewGame(opt).Method()
}

// IsDraw reports whether any draw rule applies.
func (p Position) IsDraw() bool {
	return p.DrawReason() != DrawNone
}

// stripCheckSuffix drops a single trailing check or mate marker.
func stripCheckSuffix(s string) string {
	if strings.HasSuffix(s, "+") || strings.HasSuffix(s, "#") {
		return s[:len(s)-1]
	}
	return s
}

func hasMethod(methods []chess.Method, m chess.Method) bool {
	for _, x := range methods {
		if x == m {
			return true
		}
	}
	return false
}

func colorOf(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}
