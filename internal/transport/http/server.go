package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

var errInvalidAPIKey = errors.New("invalid api key")

// Options configures the server beyond its handlers.
type Options struct {
	AllowOrigins []string
	// APISecret, when set, must be sent as X-Api-Key to create games.
	APISecret string
	Logger    zerolog.Logger
}

// New constructs and returns a configured Echo instance.
func New(h *Handlers, opts Options) *echo.Echo {
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Api-Key", "X-Client-Token"},
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(middleware.Recover())

	var createMW []echo.MiddlewareFunc
	if opts.APISecret != "" {
		createMW = append(createMW, apiKeyAuth(opts.APISecret))
	}

	e.GET("/api/v1/healthz", h.handleHealthz)
	e.GET("/api/v1/start-position", h.handleStartPosition)
	e.POST("/api/v1/games", h.handleCreateGame, createMW...)
	e.GET("/api/v1/games", h.handleListGames)
	e.GET("/api/v1/games/:gameId", h.handleGetGame)
	e.POST("/api/v1/games/:gameId/moves", h.handleSubmitMove)
	e.POST("/api/v1/positions/moves", h.handleEvaluateMove)
	e.POST("/api/v1/positions/legal-moves", h.handleLegalMoves)

	return e
}

func apiKeyAuth(secret string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-Api-Key",
		Validator: func(key string, _ echo.Context) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) == 1 {
				return true, nil
			}
			return false, errInvalidAPIKey
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return unauthorized(c)
		},
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
