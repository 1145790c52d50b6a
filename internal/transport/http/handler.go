package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
	"github.com/chessbench/chess-arena-api/internal/usecase"
)

// gameJSON is the wire representation of domain/game.Game.
type gameJSON struct {
	GameID          string    `json:"gameId"`
	FEN             string    `json:"fen"`
	SideToMove      string    `json:"sideToMove"`
	LegalMoves      []string  `json:"legalMoves"`
	Status          string    `json:"status"`
	Winner          *string   `json:"winner"`
	Reason          *string   `json:"reason"`
	MoveHistory     []string  `json:"moveHistory"`
	LastMove        string    `json:"lastMove"`
	WhitePlayer     string    `json:"whitePlayer"`
	BlackPlayer     string    `json:"blackPlayer"`
	TestType        string    `json:"testType"`
	TestDescription string    `json:"testDescription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// createdJSON is the reply to game creation.
type createdJSON struct {
	GameID          string   `json:"gameId"`
	FEN             string   `json:"fen"`
	SideToMove      string   `json:"sideToMove"`
	LegalMoves      []string `json:"legalMoves"`
	Status          string   `json:"status"`
	WhitePlayer     string   `json:"whitePlayer"`
	BlackPlayer     string   `json:"blackPlayer"`
	TestType        string   `json:"testType"`
	TestDescription string   `json:"testDescription"`
}

// summaryJSON is one row of the game listing.
type summaryJSON struct {
	GameID      string    `json:"gameId"`
	WhitePlayer string    `json:"whitePlayer"`
	BlackPlayer string    `json:"blackPlayer"`
	Winner      *string   `json:"winner"`
	Status      string    `json:"status"`
	Reason      *string   `json:"reason"`
	TestType    string    `json:"testType"`
	CreatedAt   time.Time `json:"createdAt"`
	MoveCount   int       `json:"moveCount"`
}

// evaluationJSON is the reply to a stateless move.
type evaluationJSON struct {
	OK         bool     `json:"ok"`
	Status     string   `json:"status"`
	FEN        string   `json:"fen"`
	SideToMove string   `json:"sideToMove"`
	Winner     *string  `json:"winner"`
	Reason     *string  `json:"reason"`
	LegalMoves []string `json:"legalMoves"`
}

type legalMovesJSON struct {
	OK         bool     `json:"ok"`
	FEN        string   `json:"fen"`
	SideToMove string   `json:"sideToMove"`
	LegalMoves []string `json:"legalMoves"`
}

func colorString(c *rules.Color) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func reasonString(r *game.Reason) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func toGameJSON(g *game.Game) *gameJSON {
	return &gameJSON{
		GameID:          g.ID.String(),
		FEN:             g.FEN,
		SideToMove:      string(g.SideToMove),
		LegalMoves:      g.LegalMoves,
		Status:          string(g.Status),
		Winner:          colorString(g.Winner),
		Reason:          reasonString(g.Reason),
		MoveHistory:     g.MoveHistory,
		LastMove:        g.LastMove(),
		WhitePlayer:     g.WhitePlayer,
		BlackPlayer:     g.BlackPlayer,
		TestType:        g.TestType,
		TestDescription: g.TestDescription,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

func toSummaryJSON(g *game.Game) summaryJSON {
	return summaryJSON{
		GameID:      g.ID.String(),
		WhitePlayer: g.WhitePlayer,
		BlackPlayer: g.BlackPlayer,
		Winner:      colorString(g.Winner),
		Status:      string(g.Status),
		Reason:      reasonString(g.Reason),
		TestType:    g.TestType,
		CreatedAt:   g.CreatedAt,
		MoveCount:   len(g.MoveHistory),
	}
}

func clientOf(c echo.Context) usecase.Client {
	return usecase.Client{
		IP:    c.RealIP(),
		Token: c.Request().Header.Get("X-Client-Token"),
	}
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	creator   *usecase.Creator
	getter    *usecase.GameGetter
	submitter *usecase.MoveSubmitter
	lister    *usecase.Lister
	evaluator *usecase.PositionEvaluator
	log       zerolog.Logger
}

func NewHandlers(
	creator *usecase.Creator,
	getter *usecase.GameGetter,
	submitter *usecase.MoveSubmitter,
	lister *usecase.Lister,
	evaluator *usecase.PositionEvaluator,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		creator:   creator,
		getter:    getter,
		submitter: submitter,
		lister:    lister,
		evaluator: evaluator,
		log:       log,
	}
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleStartPosition(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "fen": rules.StartFEN})
}

func (h *Handlers) handleCreateGame(c echo.Context) error {
	var body struct {
		WhitePlayer     string `json:"whitePlayer"`
		BlackPlayer     string `json:"blackPlayer"`
		TestType        string `json:"testType"`
		TestDescription string `json:"testDescription"`
	}
	// Labels are optional; an unreadable body creates an unlabeled game.
	_ = c.Bind(&body)

	g, err := h.creator.Create(c.Request().Context(), clientOf(c), game.Labels{
		WhitePlayer:     body.WhitePlayer,
		BlackPlayer:     body.BlackPlayer,
		TestType:        body.TestType,
		TestDescription: body.TestDescription,
	})
	if err != nil {
		return h.writeErr(c, err, nil)
	}

	return c.JSON(http.StatusOK, createdJSON{
		GameID:          g.ID.String(),
		FEN:             g.FEN,
		SideToMove:      string(g.SideToMove),
		LegalMoves:      g.LegalMoves,
		Status:          string(g.Status),
		WhitePlayer:     g.WhitePlayer,
		BlackPlayer:     g.BlackPlayer,
		TestType:        g.TestType,
		TestDescription: g.TestDescription,
	})
}

func (h *Handlers) handleListGames(c echo.Context) error {
	f := ports.ListFilter{
		Player:   c.QueryParam("player"),
		TestType: c.QueryParam("testType"),
	}
	if s := c.QueryParam("status"); s != "" {
		st := game.Status(s)
		switch st {
		case game.StatusContinue, game.StatusMate, game.StatusStalemate, game.StatusDraw, game.StatusInvalidMove:
			f.Status = st
		default:
			return badRequest(c, "bad_request", "status must be one of continue, mate, stalemate, draw, invalid_move.")
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return badRequest(c, "bad_request", "limit must be a positive integer.")
		}
		f.Limit = n
	}

	games, err := h.lister.List(c.Request().Context(), clientOf(c), f)
	if err != nil {
		return h.writeErr(c, err, nil)
	}

	out := make([]summaryJSON, len(games))
	for i, g := range games {
		out[i] = toSummaryJSON(g)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"ok":    true,
		"count": len(out),
		"games": out,
	})
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	id, err := uuid.Parse(c.Param("gameId"))
	if err != nil {
		return h.writeErr(c, ports.ErrNotFound, nil)
	}

	g, err := h.getter.GetGame(c.Request().Context(), clientOf(c), id)
	if err != nil {
		return h.writeErr(c, err, nil)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(g))
}

func (h *Handlers) handleSubmitMove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("gameId"))
	if err != nil {
		return h.writeErr(c, ports.ErrNotFound, nil)
	}

	var body struct {
		Move string `json:"move"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad_request", "Request body must be a JSON object with a move field.")
	}

	g, err := h.submitter.SubmitMove(c.Request().Context(), clientOf(c), id, body.Move)
	if err != nil {
		return h.writeErr(c, err, g)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(g))
}

func (h *Handlers) handleEvaluateMove(c echo.Context) error {
	var body struct {
		FEN  string `json:"fen"`
		Move string `json:"move"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad_request", "Request body must be a JSON object.")
	}
	if strings.TrimSpace(body.FEN) == "" {
		return badRequest(c, "bad_request", "fen is required.")
	}

	ev, err := h.evaluator.Evaluate(clientOf(c), body.FEN, body.Move)
	if err != nil {
		return h.writeErr(c, err, nil)
	}

	return c.JSON(http.StatusOK, evaluationJSON{
		OK:         true,
		Status:     string(ev.Status),
		FEN:        ev.FEN,
		SideToMove: string(ev.SideToMove),
		Winner:     colorString(ev.Winner),
		Reason:     reasonString(ev.Reason),
		LegalMoves: ev.LegalMoves,
	})
}

func (h *Handlers) handleLegalMoves(c echo.Context) error {
	var body struct {
		FEN string `json:"fen"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad_request", "Request body must be a JSON object.")
	}
	if strings.TrimSpace(body.FEN) == "" {
		return badRequest(c, "bad_request", "fen is required.")
	}

	ev, err := h.evaluator.LegalMoves(clientOf(c), body.FEN)
	if err != nil {
		return h.writeErr(c, err, nil)
	}

	return c.JSON(http.StatusOK, legalMovesJSON{
		OK:         true,
		FEN:        ev.FEN,
		SideToMove: string(ev.SideToMove),
		LegalMoves: ev.LegalMoves,
	})
}
