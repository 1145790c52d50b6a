package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chessbench/chess-arena-api/internal/domain/game"
	"github.com/chessbench/chess-arena-api/internal/ports"
	"github.com/chessbench/chess-arena-api/internal/rules"
	"github.com/chessbench/chess-arena-api/internal/usecase"
)

const errBase = "https://errors.chess-arena.local"

// Problem is the error body. OK is always false.
type Problem struct {
	OK     bool   `json:"ok"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// GameOverProblem carries the finished game so the client can see how it ended.
type GameOverProblem struct {
	Problem
	Game *gameJSON `json:"game,omitempty"`
}

func badRequest(c echo.Context, code, detail string) error {
	return c.JSON(http.StatusBadRequest, Problem{
		Type:   errBase + "/bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
		Code:   code,
	})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, Problem{
		Type:   errBase + "/unauthorized",
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: "Missing or invalid X-Api-Key header.",
		Code:   "unauthorized",
	})
}

// writeErr maps a domain/usecase error to the correct HTTP response. g is the
// current game, if known; it is echoed back on game_over.
func (h *Handlers) writeErr(c echo.Context, err error, g *game.Game) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return c.JSON(http.StatusNotFound, Problem{
			Type:   errBase + "/not-found",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Game not found.",
		})
	case errors.Is(err, ports.ErrVersionConflict):
		return c.JSON(http.StatusConflict, Problem{
			Type:   errBase + "/conflict",
			Title:  "Conflict",
			Status: http.StatusConflict,
			Detail: "Another move for this game was committed first; reload the game.",
			Code:   "conflict",
		})
	case errors.Is(err, usecase.ErrRateLimited):
		c.Response().Header().Set("Retry-After", "2")
		return c.JSON(http.StatusTooManyRequests, Problem{
			Type:   errBase + "/rate-limited",
			Title:  "Too Many Requests",
			Status: http.StatusTooManyRequests,
			Detail: "Rate limit exceeded. Try again later.",
		})
	case errors.Is(err, game.ErrGameOver):
		p := GameOverProblem{
			Problem: Problem{
				Type:   errBase + "/game-over",
				Title:  "Unprocessable Entity",
				Status: http.StatusUnprocessableEntity,
				Detail: "Game is already finished.",
				Code:   "game_over",
			},
		}
		if g != nil {
			p.Game = toGameJSON(g)
		}
		return c.JSON(http.StatusUnprocessableEntity, p)
	case errors.Is(err, rules.ErrInvalidPosition):
		return badRequest(c, "invalid_fen", "fen is not a valid FEN string.")
	default:
		h.log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return c.JSON(http.StatusInternalServerError, Problem{
			Type:   errBase + "/internal",
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "Unexpected error.",
		})
	}
}
