package game

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chessbench/chess-arena-api/internal/rules"
)

// Status values match the API contract enum.
type Status string

const (
	StatusContinue    Status = "continue"
	StatusMate        Status = "mate"
	StatusStalemate   Status = "stalemate"
	StatusDraw        Status = "draw"
	StatusInvalidMove Status = "invalid_move"
)

// Terminal reports whether no further move may be applied.
func (s Status) Terminal() bool {
	return s != StatusContinue
}

// Reason explains a terminal status.
type Reason string

const (
	ReasonCheckmate            Reason = "checkmate"
	ReasonStalemate            Reason = "stalemate"
	ReasonThreefoldRepetition  Reason = Reason(rules.DrawThreefoldRepetition)
	ReasonInsufficientMaterial Reason = Reason(rules.DrawInsufficientMaterial)
	ReasonFiftyMoveRule        Reason = Reason(rules.DrawFiftyMoveRule)
	ReasonInvalidMove          Reason = "invalid_move"
)

const (
	// UnknownLabel replaces missing player and test labels.
	UnknownLabel = "Unknown"
	// InvalidMarker is appended to a rejected move in the history.
	InvalidMarker = "??"
	// EmptyMove stands in for an empty submission in the history.
	EmptyMove = "(empty)"
	// NoMove is reported as the last move of a game without history.
	NoMove = "-"
)

// ErrGameOver is returned by ApplyMove once the game reached a terminal status.
var ErrGameOver = errors.New("game_over")

// Labels are the free-text fields fixed at creation.
type Labels struct {
	WhitePlayer     string
	BlackPlayer     string
	TestType        string
	TestDescription string
}

// Game is the domain entity. Winner and Reason are nil while the game continues.
type Game struct {
	ID           uuid.UUID
	FEN          string
	SideToMove   rules.Color
	Status       Status
	Winner       *rules.Color
	Reason       *Reason
	LegalMoves   []string
	MoveHistory  []string
	StateVersion int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Labels
}

// NewGame creates a Game at the standard starting position.
func NewGame(id uuid.UUID, labels Labels, now time.Time) *Game {
	pos := rules.StartPosition()
	return &Game{
		ID:          id,
		FEN:         pos.FEN(),
		SideToMove:  pos.SideToMove(),
		Status:      StatusContinue,
		LegalMoves:  pos.LegalMoves(),
		MoveHistory: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Labels: Labels{
			WhitePlayer:     labelOrUnknown(labels.WhitePlayer),
			BlackPlayer:     labelOrUnknown(labels.BlackPlayer),
			TestType:        labelOrUnknown(labels.TestType),
			TestDescription: labelOrUnknown(labels.TestDescription),
		},
	}
}

// LastMove returns the latest history entry, or NoMove.
func (g *Game) LastMove() string {
	if len(g.MoveHistory) == 0 {
		return NoMove
	}
	return g.MoveHistory[len(g.MoveHistory)-1]
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	c := *g
	c.LegalMoves = copyMoves(g.LegalMoves)
	c.MoveHistory = copyMoves(g.MoveHistory)
	if g.Winner != nil {
		w := *g.Winner
		c.Winner = &w
	}
	if g.Reason != nil {
		r := *g.Reason
		c.Reason = &r
	}
	return &c
}

// Position rebuilds the rules position for the game. The history is replayed
// from the start so repetition draws are seen; if the replay does not land on
// FEN (a game seeded from a custom position) the stored FEN is parsed instead.
func (g *Game) Position() (rules.Position, error) {
	if pos, err := rules.Replay(g.MoveHistory); err == nil && pos.FEN() == g.FEN {
		return pos, nil
	}
	return rules.ParsePosition(g.FEN)
}

// ApplyMove runs one transition and returns the successor record. The
// receiver is never mutated. pos must be the position of g (see Position).
//
// An illegal or empty move is not an error: the successor has status
// invalid_move, the opponent wins, and the raw text is kept in the history
// while the position stays frozen. The only error is ErrGameOver.
func (g *Game) ApplyMove(pos rules.Position, moveText string, now time.Time) (*Game, error) {
	if g.Status.Terminal() {
		return nil, ErrGameOver
	}

	next := g.Clone()
	next.StateVersion = g.StateVersion + 1
	next.UpdatedAt = now

	res := applyText(pos, moveText)
	if !res.Applied {
		winner := g.SideToMove.Opponent()
		reason := ReasonInvalidMove
		next.Status = StatusInvalidMove
		next.Winner = &winner
		next.Reason = &reason
		next.MoveHistory = append(next.MoveHistory, invalidEntry(moveText))
		return next, nil
	}

	after := res.Position
	next.MoveHistory = append(next.MoveHistory, res.SAN)
	next.FEN = after.FEN()
	next.SideToMove = after.SideToMove()
	next.LegalMoves = after.LegalMoves()
	next.Status, next.Winner, next.Reason = classify(after, g.SideToMove)
	return next, nil
}

// Evaluation is the result of a transition on a bare position.
type Evaluation struct {
	Status     Status
	FEN        string
	SideToMove rules.Color
	Winner     *rules.Color
	Reason     *Reason
	LegalMoves []string
	// SAN is the canonical move that was played; empty when rejected.
	SAN string
}

// Evaluate runs the transition rules against pos without any record. An
// illegal move yields StatusInvalidMove with the unchanged position and no
// winner, since there is no game to award.
func Evaluate(pos rules.Position, moveText string) Evaluation {
	res := applyText(pos, moveText)
	if !res.Applied {
		reason := ReasonInvalidMove
		return Evaluation{
			Status:     StatusInvalidMove,
			FEN:        pos.FEN(),
			SideToMove: pos.SideToMove(),
			Reason:     &reason,
			LegalMoves: pos.LegalMoves(),
		}
	}

	after := res.Position
	status, winner, reason := classify(after, pos.SideToMove())
	return Evaluation{
		Status:     status,
		FEN:        after.FEN(),
		SideToMove: after.SideToMove(),
		Winner:     winner,
		Reason:     reason,
		LegalMoves: after.LegalMoves(),
		SAN:        res.SAN,
	}
}

// Inspect reports the side to move and legal moves of pos.
func Inspect(pos rules.Position) Evaluation {
	return Evaluation{
		Status:     StatusContinue,
		FEN:        pos.FEN(),
		SideToMove: pos.SideToMove(),
		LegalMoves: pos.LegalMoves(),
	}
}

// applyText treats blank text as illegal without asking the rules engine.
func applyText(pos rules.Position, moveText string) rules.MoveResult {
	if strings.TrimSpace(moveText) == "" {
		return rules.MoveResult{}
	}
	return pos.Apply(moveText)
}

// classify maps the position reached by mover's move to a status, checking
// checkmate, stalemate and the draw rules in that order.
func classify(after rules.Position, mover rules.Color) (Status, *rules.Color, *Reason) {
	switch {
	case after.IsCheckmate():
		r := ReasonCheckmate
		return StatusMate, &mover, &r
	case after.IsStalemate():
		r := ReasonStalemate
		return StatusStalemate, nil, &r
	}
	if d := after.DrawReason(); d != rules.DrawNone {
		r := Reason(d)
		return StatusDraw, nil, &r
	}
	return StatusContinue, nil, nil
}

func invalidEntry(moveText string) string {
	if strings.TrimSpace(moveText) == "" {
		return EmptyMove + InvalidMarker
	}
	return moveText + InvalidMarker
}

// copyMoves never returns nil, so an empty list stays an empty array in
// storage and on the wire.
func copyMoves(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func labelOrUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownLabel
	}
	return s
}
